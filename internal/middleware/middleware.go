package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/nearby/internal/helpers"
	"github.com/joshua-takyi/nearby/internal/monitoring"
	"github.com/joshua-takyi/nearby/internal/services"
)

const (
	UserKey      = "user"
	RequestIDKey = "request_id"

	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
	refreshTokenMaxAge = 3600 * 24 * 30
)

// TokenVerifier checks an access token and returns its claims.
type TokenVerifier interface {
	Validate(token string) (*helpers.CustomClaims, error)
}

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get(RequestIDKey)

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "HTTP Request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", latency,
			"client_ip", c.ClientIP(),
		)
	}
}

// Metrics records request latency by route template, so /events/:id is one series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		monitoring.ObserveHTTP(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// ErrorHandler provides centralized error handling
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		requestID, _ := c.Get(RequestIDKey)

		logger.Error("Request error",
			"request_id", requestID,
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, helpers.ErrorResponse("Internal server error"))
		}
	}
}

// AuthMiddleware requires a valid access token cookie. An expired token is
// refreshed once through the refresh cookie.
func AuthMiddleware(verifier TokenVerifier, userService *services.UserService, secureCookies bool, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(accessTokenCookie)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, helpers.ErrorResponse("JWT token not found in cookie"))
			return
		}

		claims, err := verifier.Validate(token)
		if err != nil {
			token, claims, err = refresh(c, verifier, userService, secureCookies, logger)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, helpers.ErrorResponse("Unauthorized access"))
				return
			}
		}

		enhanced, err := enhance(c, claims, token, userService, logger)
		if err != nil {
			logger.Error("failed to resolve actor", "user_id", claims.Subject, "error", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, helpers.ErrorResponse("Could not load your account, please retry"))
			return
		}

		c.Set(UserKey, enhanced)
		c.Next()
	}
}

// OptionalAuth attaches claims when a valid token is present and lets
// anonymous requests through untouched.
func OptionalAuth(verifier TokenVerifier, userService *services.UserService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(accessTokenCookie)
		if err != nil || token == "" {
			c.Next()
			return
		}
		claims, err := verifier.Validate(token)
		if err != nil {
			c.Next()
			return
		}
		if enhanced, err := enhance(c, claims, token, userService, logger); err == nil {
			c.Set(UserKey, enhanced)
		}
		c.Next()
	}
}

func refresh(c *gin.Context, verifier TokenVerifier, userService *services.UserService, secureCookies bool, logger *slog.Logger) (string, *helpers.CustomClaims, error) {
	refreshToken, err := c.Cookie(refreshTokenCookie)
	if err != nil {
		return "", nil, err
	}

	tokenRes, err := userService.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil {
		logger.Warn("Token refresh failed", "error", err)
		return "", nil, err
	}

	logger.Info("Token refreshed successfully",
		"user_id", tokenRes.User.ID,
		"expires_in", tokenRes.ExpiresIn,
	)
	SetAuthCookies(c, tokenRes.AccessToken, tokenRes.RefreshToken, tokenRes.ExpiresIn, secureCookies)

	claims, err := verifier.Validate(tokenRes.AccessToken)
	if err != nil {
		return "", nil, err
	}
	return tokenRes.AccessToken, claims, nil
}

func enhance(c *gin.Context, claims *helpers.CustomClaims, token string, userService *services.UserService, logger *slog.Logger) (*helpers.EnhancedClaims, error) {
	enhanced := &helpers.EnhancedClaims{
		CustomClaims: claims,
		Role:         helpers.RoleGuest,
		UserID:       claims.Subject,
		Email:        claims.Email,
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		logger.Warn("Invalid user ID in token", "user_id", claims.Subject, "error", err)
		return enhanced, nil
	}

	user, err := userService.GetUser(c.Request.Context(), userID, token)
	if err != nil {
		logger.Info("Profile not found, using default role", "user_id", claims.Subject, "error", err)
	} else {
		if user.Role != "" {
			enhanced.Role = user.Role
		}
		enhanced.Username = user.Username
		enhanced.Fullname = user.FullName
		enhanced.AvatarURL = user.AvatarURL
	}

	actor, err := userService.ResolveActor(c.Request.Context(), userID, enhanced.IsAdmin(), enhanced.AvatarURL)
	if err != nil {
		return nil, err
	}
	enhanced.OwnedShopIDs = actor.OwnedShopIDs
	return enhanced, nil
}

func SetAuthCookies(c *gin.Context, accessToken, refreshToken string, expiresIn int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, accessToken, expiresIn, "/", "", secure, true)
	c.SetCookie(refreshTokenCookie, refreshToken, refreshTokenMaxAge, "/", "", secure, true)
}

func ClearAuthCookies(c *gin.Context, secure bool) {
	c.SetCookie(accessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", secure, true)
}

// CurrentClaims returns the claims attached by AuthMiddleware or OptionalAuth.
func CurrentClaims(c *gin.Context) (*helpers.EnhancedClaims, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*helpers.EnhancedClaims)
	return claims, ok
}

// NoVerifier rejects every token. It stands in when no identity provider is configured.
type NoVerifier struct{}

func (NoVerifier) Validate(string) (*helpers.CustomClaims, error) {
	return nil, errors.New("authentication is not configured")
}
