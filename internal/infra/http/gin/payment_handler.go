package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"erent/internal/app/commands"
	"erent/internal/app/dto"
	paymentsapp "erent/internal/app/handlers/payments"
	"erent/internal/app/queries"
	"erent/internal/domain/payment"
)

type PaymentsHTTP interface {
	CreateIntent(c *gin.Context)
	Confirm(c *gin.Context)
	Search(c *gin.Context)
	Get(c *gin.Context)
}

type PaymentsHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createIntentRequest struct {
	RentID        string      `json:"rent_id"`
	Amount        int64       `json:"amount"`
	Currency      string      `json:"currency"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	Billing       dto.Billing `json:"billing"`
}

type confirmPaymentRequest struct {
	RentID string `json:"rent_id"`
}

// CreateIntent opens a gateway payment intent. With rent_id set the amount
// is taken from the rent.
func (h PaymentsHandler) CreateIntent(c *gin.Context) {
	var req createIntentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := paymentsapp.CreateIntentCommand{
		ID:            newID(),
		Actor:         currentActor(c),
		RentID:        req.RentID,
		AmountCents:   req.Amount,
		Currency:      req.Currency,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Billing:       req.Billing,
		IdemKey:       idempotencyKey(c),
	}
	result, err := commands.Dispatch[paymentsapp.CreateIntentCommand, dto.PaymentIntent](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h PaymentsHandler) Confirm(c *gin.Context) {
	var req confirmPaymentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := paymentsapp.ConfirmPaymentCommand{PaymentID: c.Param("id"), Actor: currentActor(c), RentID: req.RentID}
	result, err := commands.Dispatch[paymentsapp.ConfirmPaymentCommand, dto.Payment](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PaymentsHandler) Search(c *gin.Context) {
	q := readQuery(c)
	query := paymentsapp.SearchPaymentsQuery{
		Actor:     currentActor(c),
		UserID:    q.str("user_id"),
		RentID:    q.str("rent_id"),
		Status:    payment.Status(q.str("status")),
		From:      q.timePtr("from"),
		To:        q.timePtr("to"),
		MinAmount: q.int64Ptr("min_amount"),
		MaxAmount: q.int64Ptr("max_amount"),
		Text:      q.str("text"),
		Paging:    q.paging(),
	}
	if q.err != nil {
		respondError(c, h.Logger, q.err)
		return
	}
	result, err := queries.Ask[paymentsapp.SearchPaymentsQuery, dto.Page[dto.Payment]](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PaymentsHandler) Get(c *gin.Context) {
	query := paymentsapp.GetPaymentQuery{Actor: currentActor(c), PaymentID: c.Param("id")}
	result, err := queries.Ask[paymentsapp.GetPaymentQuery, dto.Payment](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PaymentsHTTP = PaymentsHandler{}
