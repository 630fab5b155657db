package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/nearby/internal/helpers"
	"github.com/joshua-takyi/nearby/internal/models"
	"github.com/joshua-takyi/nearby/internal/services"
)

func CreateEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}

		var draft models.EventDraft
		if err := c.ShouldBindJSON(&draft); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}

		ev, err := es.Submit(c.Request.Context(), &draft, actor)
		if err != nil {
			respondError(c, err)
			return
		}

		msg := "Event submitted for review"
		if ev.Status == models.EventStatusApproved {
			msg = "Event created successfully"
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(ev, msg))
	}
}

func UpdateEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		var patch models.EventPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}

		ev, err := es.UpdateContent(c.Request.Context(), id, &patch, actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(ev, "Event updated successfully"))
	}
}

func SetEventStatus(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		var req struct {
			Status models.EventStatus `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("status is required"))
			return
		}

		ev, err := es.SetStatus(c.Request.Context(), id, req.Status, actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(ev, "Event status updated"))
	}
}

func SetEventPublished(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		var req struct {
			Published *bool `json:"is_published" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("is_published is required"))
			return
		}

		ev, err := es.SetPublished(c.Request.Context(), id, *req.Published, actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(ev, "Event visibility updated"))
	}
}

func DeleteEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		if err := es.Delete(c.Request.Context(), id, actor); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Event deleted successfully"))
	}
}

// GetEvent serves published events to everyone and hidden ones only to the
// submitter, the shop owner or an admin.
func GetEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		ev, err := es.GetEvent(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if !canView(ev, optionalActor(c)) {
			respondError(c, models.ErrEventNotFound)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(ev, ""))
	}
}

// ListEventsByStatus is the admin moderation queue. status defaults to pending.
func ListEventsByStatus(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}

		status := models.EventStatus(c.DefaultQuery("status", string(models.EventStatusPending)))
		events, err := es.ListByStatus(c.Request.Context(), status, actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(events, ""))
	}
}

func ListShopEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		shopID, ok := parseID(c, "id")
		if !ok {
			return
		}

		events, err := es.ListByShop(c.Request.Context(), shopID, actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(events, ""))
	}
}
