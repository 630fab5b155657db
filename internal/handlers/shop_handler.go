package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/nearby/internal/helpers"
	"github.com/joshua-takyi/nearby/internal/services"
)

func ListShops(ss *services.ShopService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid page parameter"))
			return
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultShopPageSize)))
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid limit parameter"))
			return
		}

		shops, total, err := ss.ListShops(c.Request.Context(), page, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.PaginatedResponse(shops, page, limit, total))
	}
}

func GetShop(ss *services.ShopService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		shop, err := ss.GetShop(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(shop, ""))
	}
}
