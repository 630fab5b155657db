package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/nearby/internal/helpers"
	"github.com/joshua-takyi/nearby/internal/services"
)

func EventFeed(fs *services.FeedService, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := services.FeedQuery{
			Query:     c.Query("q"),
			EventType: c.Query("type"),
		}

		feed, err := fs.Build(c.Request.Context(), query, optionalActor(c).UserID, now())
		if err != nil {
			respondError(c, err)
			return
		}
		if feed.Today == nil {
			feed.Today = []services.FeedItem{}
		}
		if feed.Upcoming == nil {
			feed.Upcoming = []services.FeedItem{}
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(feed, ""))
	}
}
