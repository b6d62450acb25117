package ginserver

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"erent/internal/app/commands"
	"erent/internal/app/dto"
	propertiesapp "erent/internal/app/handlers/properties"
	"erent/internal/app/queries"
)

// maxImageSize bounds a single uploaded property image.
const maxImageSize = 10 << 20

type PropertiesHTTP interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Activate(c *gin.Context)
	UploadImage(c *gin.Context)
	DeleteImage(c *gin.Context)
}

type PropertiesHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type propertyRequest struct {
	LandlordID       string   `json:"landlord_id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	PricePerMonth    int64    `json:"price_per_month"`
	PricePerDay      int64    `json:"price_per_day"`
	Currency         string   `json:"currency"`
	AllowDailyRental bool     `json:"allow_daily_rental"`
	Bedrooms         int      `json:"bedrooms"`
	Bathrooms        int      `json:"bathrooms"`
	Area             float64  `json:"area"`
	PropertyTypeID   string   `json:"property_type_id"`
	CityID           string   `json:"city_id"`
	Address          string   `json:"address"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	AmenityIDs       []string `json:"amenity_ids"`
}

func (r propertyRequest) fields() propertiesapp.Fields {
	return propertiesapp.Fields{
		Title:            r.Title,
		Description:      r.Description,
		PricePerMonth:    r.PricePerMonth,
		PricePerDay:      r.PricePerDay,
		Currency:         r.Currency,
		AllowDailyRental: r.AllowDailyRental,
		Bedrooms:         r.Bedrooms,
		Bathrooms:        r.Bathrooms,
		Area:             r.Area,
		PropertyTypeID:   r.PropertyTypeID,
		CityID:           r.CityID,
		Address:          r.Address,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		AmenityIDs:       r.AmenityIDs,
	}
}

func (h PropertiesHandler) Search(c *gin.Context) {
	q := readQuery(c)
	query := propertiesapp.SearchPropertiesQuery{
		Title:            q.str("title"),
		PropertyTypeID:   q.str("property_type_id"),
		CityID:           q.str("city_id"),
		CountryID:        q.str("country_id"),
		LandlordID:       q.str("landlord_id"),
		MinPricePerMonth: q.int64Ptr("min_price_per_month"),
		MaxPricePerMonth: q.int64Ptr("max_price_per_month"),
		MinPricePerDay:   q.int64Ptr("min_price_per_day"),
		MaxPricePerDay:   q.int64Ptr("max_price_per_day"),
		AllowDailyRental: q.boolPtr("allow_daily_rental"),
		MinBedrooms:      q.intPtr("min_bedrooms"),
		MaxBedrooms:      q.intPtr("max_bedrooms"),
		AmenityIDs:       q.list("amenity_id"),
		Active:           q.boolPtr("active"),
		Paging:           q.paging(),
	}
	if q.err != nil {
		respondError(c, h.Logger, q.err)
		return
	}
	result, err := queries.Ask[propertiesapp.SearchPropertiesQuery, dto.Page[dto.Property]](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertiesHandler) Get(c *gin.Context) {
	query := propertiesapp.GetPropertyQuery{PropertyID: c.Param("id")}
	result, err := queries.Ask[propertiesapp.GetPropertyQuery, dto.Property](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertiesHandler) Create(c *gin.Context) {
	var req propertyRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := propertiesapp.CreatePropertyCommand{
		ID:         newID(),
		Actor:      currentActor(c),
		LandlordID: req.LandlordID,
		Fields:     req.fields(),
		IdemKey:    idempotencyKey(c),
	}
	result, err := commands.Dispatch[propertiesapp.CreatePropertyCommand, dto.Property](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h PropertiesHandler) Update(c *gin.Context) {
	var req propertyRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := propertiesapp.UpdatePropertyCommand{
		PropertyID: c.Param("id"),
		Actor:      currentActor(c),
		Fields:     req.fields(),
	}
	result, err := commands.Dispatch[propertiesapp.UpdatePropertyCommand, dto.Property](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Delete hides the property from the catalogue. Rents keep pointing at it.
func (h PropertiesHandler) Delete(c *gin.Context) {
	h.setActive(c, false)
}

func (h PropertiesHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h PropertiesHandler) setActive(c *gin.Context, active bool) {
	cmd := propertiesapp.SetPropertyActiveCommand{
		PropertyID: c.Param("id"),
		Actor:      currentActor(c),
		Active:     active,
	}
	result, err := commands.Dispatch[propertiesapp.SetPropertyActiveCommand, dto.Property](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UploadImage takes a multipart form with an "image" file and optional
// "cover" and "display_order" fields.
func (h PropertiesHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, h.Logger, fmt.Errorf("%w: image file is required", ErrBadRequest))
		return
	}
	if file.Size > maxImageSize {
		respondError(c, h.Logger, fmt.Errorf("%w: image exceeds %d bytes", ErrBadRequest, maxImageSize))
		return
	}
	src, err := file.Open()
	if err != nil {
		respondError(c, h.Logger, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxImageSize))
	if err != nil {
		respondError(c, h.Logger, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	cover, _ := strconv.ParseBool(c.PostForm("cover"))
	order := 0
	if raw := c.PostForm("display_order"); raw != "" {
		if order, err = strconv.Atoi(raw); err != nil {
			respondError(c, h.Logger, fmt.Errorf("%w: display_order must be a number", ErrBadRequest))
			return
		}
	}
	contentType := file.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	cmd := propertiesapp.AddImageCommand{
		PropertyID:   c.Param("id"),
		ImageID:      newID(),
		Actor:        currentActor(c),
		ContentType:  contentType,
		Data:         data,
		Cover:        cover,
		DisplayOrder: order,
	}
	result, err := commands.Dispatch[propertiesapp.AddImageCommand, dto.Property](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h PropertiesHandler) DeleteImage(c *gin.Context) {
	cmd := propertiesapp.RemoveImageCommand{
		PropertyID: c.Param("id"),
		ImageID:    c.Param("imageId"),
		Actor:      currentActor(c),
	}
	result, err := commands.Dispatch[propertiesapp.RemoveImageCommand, dto.Property](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PropertiesHTTP = PropertiesHandler{}
