package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/nearby/internal/helpers"
	"github.com/joshua-takyi/nearby/internal/middleware"
	"github.com/joshua-takyi/nearby/internal/models"
	"github.com/joshua-takyi/nearby/internal/services"
)

func AuthenticateUser(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}

		tokenRes, err := u.AuthenticateUser(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			if models.IsValidation(err) {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("invalid email or password"))
			return
		}
		if tokenRes == nil || tokenRes.AccessToken == "" {
			c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("invalid authentication response"))
			return
		}

		middleware.SetAuthCookies(c, tokenRes.AccessToken, tokenRes.RefreshToken, tokenRes.ExpiresIn, secureCookies)
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"user": tokenRes.User}, "Logged in successfully"))
	}
}

func Logout(secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.ClearAuthCookies(c, secureCookies)
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Logged out successfully"))
	}
}

func Profile() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.CurrentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("unauthorized"))
			return
		}

		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{
			"user_id":        claims.UserID,
			"email":          claims.Email,
			"role":           claims.GetSafeRole(),
			"username":       claims.Username,
			"avatar_url":     claims.AvatarURL,
			"is_admin":       claims.IsAdmin(),
			"owned_shop_ids": claims.OwnedShopIDs,
		}, ""))
	}
}
