package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/nearby/internal/calendar"
	"github.com/joshua-takyi/nearby/internal/helpers"
	"github.com/joshua-takyi/nearby/internal/models"
	"github.com/joshua-takyi/nearby/internal/services"
)

// ExportConfig carries what calendar exports need beyond the event itself.
type ExportConfig struct {
	Domain   string
	Location *time.Location
	Now      func() time.Time
}

func exportableEvent(c *gin.Context, es *services.EventService) (*models.Event, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	ev, err := es.GetEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if !canView(ev, optionalActor(c)) {
		respondError(c, models.ErrEventNotFound)
		return nil, false
	}
	return ev, true
}

// eventLocation falls back to the hosting shop's name and address.
func eventLocation(ctx context.Context, ev *models.Event, ss *services.ShopService) string {
	if ev.Location != "" {
		return ev.Location
	}
	shop, err := ss.GetShop(ctx, ev.ShopID)
	if err != nil {
		return ""
	}
	if shop.Location != "" {
		return shop.Name + ", " + shop.Location
	}
	return shop.Name
}

func ExportICS(es *services.EventService, ss *services.ShopService, cfg ExportConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ev, ok := exportableEvent(c, es)
		if !ok {
			return
		}

		payload, err := calendar.ICS(ev, eventLocation(c.Request.Context(), ev, ss), cfg.Domain, cfg.Location, cfg.Now())
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, helpers.ErrorResponse(err.Error()))
			return
		}

		c.Header("Content-Disposition", `attachment; filename="`+calendar.ICSFilename(ev)+`"`)
		c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(payload))
	}
}

func GoogleCalendarLink(es *services.EventService, ss *services.ShopService, cfg ExportConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ev, ok := exportableEvent(c, es)
		if !ok {
			return
		}

		link, err := calendar.GoogleCalendarURL(ev, eventLocation(c.Request.Context(), ev, ss), cfg.Location)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, helpers.ErrorResponse(err.Error()))
			return
		}

		if c.Query("redirect") == "true" {
			c.Redirect(http.StatusFound, link)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"url": link}, ""))
	}
}
