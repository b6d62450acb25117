package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"erent/internal/app/access"
	"erent/internal/app/commands"
	paymentsapp "erent/internal/app/handlers/payments"
	propertiesapp "erent/internal/app/handlers/properties"
	referenceapp "erent/internal/app/handlers/reference"
	usersapp "erent/internal/app/handlers/users"
	"erent/internal/app/queries"
	authsvc "erent/internal/app/services/auth"
	"erent/internal/app/uow"
	domainauth "erent/internal/domain/auth"
	"erent/internal/domain/chat"
	"erent/internal/domain/notification"
	"erent/internal/domain/payment"
	"erent/internal/domain/property"
	"erent/internal/domain/reference"
	"erent/internal/domain/rent"
	"erent/internal/domain/reviews"
	"erent/internal/domain/user"
	"erent/internal/domain/viewing"
	"erent/internal/infra/validation"
)

// ErrBadRequest marks malformed input caught before a command is dispatched.
var ErrBadRequest = errors.New("http: bad request")

var (
	unauthorizedErrors = []error{
		access.ErrUnauthenticated,
		authsvc.ErrInvalidCredentials,
		authsvc.ErrInvalidToken,
		authsvc.ErrTokenExpired,
		authsvc.ErrUserInactive,
		domainauth.ErrSessionNotFound,
		domainauth.ErrSessionExpired,
	}
	forbiddenErrors = []error{
		access.ErrForbidden,
		property.ErrNotOwner,
		reviews.ErrNotTenant,
		chat.ErrNotRecipient,
		chat.ErrNotParticipant,
		notification.ErrNotRecipient,
	}
	notFoundErrors = []error{
		property.ErrNotFound,
		property.ErrImageNotFound,
		rent.ErrNotFound,
		viewing.ErrNotFound,
		reviews.ErrNotFound,
		reference.ErrNotFound,
		user.ErrNotFound,
		notification.ErrNotFound,
		chat.ErrNotFound,
		payment.ErrNotFound,
	}
	conflictErrors = []error{
		rent.ErrAlreadyRented,
		rent.ErrAcceptConflict,
		rent.ErrInvalidTransition,
		rent.ErrNotEditable,
		viewing.ErrInvalidTransition,
		viewing.ErrSlotTaken,
		reviews.ErrAlreadyReviewed,
		reference.ErrDuplicateName,
		reference.ErrInUse,
		user.ErrEmailAlreadyUsed,
		user.ErrUsernameTaken,
		payment.ErrAlreadyConfirmed,
		uow.ErrConcurrentUpdate,
	}
	unavailableErrors = []error{
		propertiesapp.ErrImageStore,
		paymentsapp.ErrGatewayUnavailable,
		uow.ErrUnitOfWorkMissing,
		commands.ErrNilBus,
		queries.ErrNilBus,
	}
	badRequestErrors = []error{
		ErrBadRequest,
		validation.ErrInvalid,
		property.ErrTitleRequired,
		property.ErrMonthlyPrice,
		property.ErrDailyPriceRequired,
		property.ErrNegativeDailyPrice,
		property.ErrRooms,
		property.ErrArea,
		property.ErrLandlordRequired,
		property.ErrTypeRequired,
		property.ErrCityRequired,
		propertiesapp.ErrUnknownReference,
		propertiesapp.ErrEmptyImage,
		rent.ErrDailyNotAllowed,
		rent.ErrDailyPriceMissing,
		rent.ErrInvalidDailyRange,
		rent.ErrTenantRequired,
		rent.ErrPropertyRequired,
		rent.ErrPropertyInactive,
		rent.ErrOwnProperty,
		rent.ErrUnknownStatus,
		viewing.ErrStartInPast,
		viewing.ErrPropertyInactive,
		viewing.ErrOwnProperty,
		viewing.ErrPropertyRequired,
		viewing.ErrTenantRequired,
		viewing.ErrNoteTooLong,
		viewing.ErrUnknownStatus,
		reviews.ErrInvalidRating,
		reviews.ErrCommentTooLong,
		reviews.ErrRentRequired,
		reviews.ErrRentNotPaid,
		reference.ErrNameRequired,
		reference.ErrNameTooLong,
		reference.ErrUnknownKind,
		reference.ErrCodeRequired,
		reference.ErrParentRequired,
		referenceapp.ErrUnknownCountry,
		user.ErrIDRequired,
		user.ErrEmailRequired,
		user.ErrUsernameRequired,
		user.ErrNameRequired,
		user.ErrInvalidRole,
		usersapp.ErrUnknownReference,
		authsvc.ErrPasswordTooShort,
		authsvc.ErrRoleNotAllowed,
		authsvc.ErrUnknownReference,
		notification.ErrUnknownType,
		chat.ErrTextRequired,
		chat.ErrTextTooLong,
		chat.ErrReceiverRequired,
		chat.ErrSelfMessage,
		chat.ErrInactiveRecipient,
		payment.ErrAmountRequired,
		payment.ErrCustomerNameRequired,
		payment.ErrRentRequired,
	}
)

// statusFor maps an application error onto an HTTP status. Authentication and
// ownership problems win over the rest when an error wraps several sentinels.
func statusFor(err error) int {
	switch {
	case isAny(err, unauthorizedErrors):
		return http.StatusUnauthorized
	case isAny(err, forbiddenErrors):
		return http.StatusForbidden
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case isAny(err, conflictErrors):
		return http.StatusConflict
	case isAny(err, unavailableErrors):
		return http.StatusServiceUnavailable
	case isAny(err, badRequestErrors):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError writes {"error": message}. Unmapped errors are logged and
// answered with a generic message.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		}
		message = "internal server error"
	} else if logger != nil {
		logger.Debug("request rejected", "status", status, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
