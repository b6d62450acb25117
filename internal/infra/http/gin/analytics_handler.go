package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	analyticsapp "erent/internal/app/handlers/analytics"
	"erent/internal/app/queries"
	domainanalytics "erent/internal/domain/analytics"
)

type AnalyticsHTTP interface {
	Platform(c *gin.Context)
	Landlord(c *gin.Context)
}

type AnalyticsHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h AnalyticsHandler) Platform(c *gin.Context) {
	query := analyticsapp.PlatformReportQuery{Actor: currentActor(c)}
	report, err := queries.Ask[analyticsapp.PlatformReportQuery, domainanalytics.Report](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h AnalyticsHandler) Landlord(c *gin.Context) {
	query := analyticsapp.LandlordReportQuery{Actor: currentActor(c), LandlordID: c.Param("id")}
	report, err := queries.Ask[analyticsapp.LandlordReportQuery, domainanalytics.Report](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

var _ AnalyticsHTTP = AnalyticsHandler{}
