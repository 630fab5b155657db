package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/nearby/internal/helpers"
	"github.com/joshua-takyi/nearby/internal/models"
	"github.com/joshua-takyi/nearby/internal/services"
)

type attendanceView struct {
	models.AttendanceSnapshot
	ViewerAttending bool   `json:"viewer_attending"`
	Label           string `json:"label"`
}

func newAttendanceView(snap models.AttendanceSnapshot, member bool) attendanceView {
	if snap.RecentAttendees == nil {
		snap.RecentAttendees = []models.AttendeeSummary{}
	}
	return attendanceView{
		AttendanceSnapshot: snap,
		ViewerAttending:    member,
		Label:              services.AttendanceLabel(snap, member),
	}
}

func JoinEvent(as *services.AttendanceService, es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		ev, err := es.GetEvent(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if !canView(ev, actor) {
			respondError(c, models.ErrEventNotFound)
			return
		}

		snap, err := as.Join(c.Request.Context(), id, actor.UserID, actor.AvatarURL)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(newAttendanceView(snap, true), "You're going"))
	}
}

func LeaveEvent(as *services.AttendanceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		snap, err := as.Leave(c.Request.Context(), id, actor.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(newAttendanceView(snap, false), "You left the event"))
	}
}

func GetAttendance(as *services.AttendanceService, es *services.EventService) gin.HandlerFunc {
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
		actor := optionalActor(c)
		if !canView(ev, actor) {
			respondError(c, models.ErrEventNotFound)
			return
		}

		snap := models.SnapshotOf(ev)
		member := false
		if actor.UserID != uuid.Nil {
			if member, err = as.IsAttending(c.Request.Context(), id, actor.UserID); err != nil {
				respondError(c, err)
				return
			}
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(newAttendanceView(snap, member), ""))
	}
}

// ListAttending returns the ids of the events the caller has joined.
func ListAttending(as *services.AttendanceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}

		set, err := as.AttendedSet(c.Request.Context(), actor.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		ids := make([]uuid.UUID, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(ids, ""))
	}
}
