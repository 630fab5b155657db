package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/nearby/internal/helpers"
	"github.com/joshua-takyi/nearby/internal/middleware"
	"github.com/joshua-takyi/nearby/internal/models"
)

// respondError maps domain errors to status codes. Anything unrecognised is
// recorded on the context for ErrorHandler and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var (
		validation *models.ValidationError
		immutable  *models.ImmutableFieldError
		authz      *models.AuthorizationError
		persist    *models.PersistenceError
	)

	switch {
	case errors.As(err, &validation):
		res := helpers.ErrorResponse(validation.Error())
		res.Field = validation.Field
		c.JSON(http.StatusBadRequest, res)
	case errors.As(err, &immutable):
		res := helpers.ErrorResponse(immutable.Error())
		res.Field = immutable.Field
		c.JSON(http.StatusUnprocessableEntity, res)
	case errors.As(err, &authz):
		c.JSON(http.StatusForbidden, helpers.ErrorResponse(authz.Error()))
	case errors.Is(err, models.ErrEventNotFound):
		c.JSON(http.StatusNotFound, helpers.ErrorResponse("event not found"))
	case errors.Is(err, models.ErrShopNotFound):
		c.JSON(http.StatusNotFound, helpers.ErrorResponse("shop not found"))
	case errors.As(err, &persist):
		_ = c.Error(err)
		res := helpers.ErrorResponse("The change could not be saved, please try again")
		res.Retryable = persist.Retryable()
		c.JSON(http.StatusServiceUnavailable, res)
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, helpers.ErrorResponse("Internal server error"))
	}
}

// parseID reads a uuid path parameter, tolerating stray spaces and quotes.
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := strings.Trim(strings.TrimSpace(c.Param(name)), "\"'")
	if raw == "" {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse(name+" is required"))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid "+name+" format"))
		return uuid.Nil, false
	}
	return id, true
}

// requireActor returns the authenticated caller or writes a 401.
func requireActor(c *gin.Context) (models.Actor, bool) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("unauthorized"))
		return models.Actor{}, false
	}
	actor := claims.Actor()
	if actor.UserID == uuid.Nil {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid user ID in token"))
		return models.Actor{}, false
	}
	return actor, true
}

// optionalActor returns the caller if one is signed in, else an anonymous actor.
func optionalActor(c *gin.Context) models.Actor {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return models.Actor{}
	}
	return claims.Actor()
}

// canView reports whether actor may see ev outside the public feed.
func canView(ev *models.Event, actor models.Actor) bool {
	if ev.IsPubliclyVisible() || actor.IsPrivilegedFor(ev.ShopID) {
		return true
	}
	return actor.UserID != uuid.Nil && actor.UserID == ev.SubmittedBy
}
