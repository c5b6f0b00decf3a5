package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/notevault/backend/internal/model"
	"github.com/notevault/backend/internal/ratelimit"
	"github.com/notevault/backend/internal/service"
	"github.com/notevault/backend/internal/token"
)

const (
	authUserKey   = "auth_user"
	refreshCtxKey = "refresh_context"
)

// Authentication is the single gate every protected route passes through. It
// reads the accesstoken header, verifies it, rejects revoked token ids and
// loads the owning user into the request context.
func Authentication(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		tokenString := strings.TrimSpace(c.GetHeader("accesstoken"))
		if tokenString == "" {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "Access token required, please login"})
			c.Abort()
			return
		}

		authUser, err := authService.AuthenticateAccess(c.Request.Context(), tokenString)
		if err != nil {
			switch {
			case errors.Is(err, token.ErrInvalidToken):
				c.JSON(http.StatusUnauthorized, model.ErrorResponse{Message: "Access token is invalid or expired, please login"})
			case errors.Is(err, service.ErrRevokedToken):
				c.JSON(http.StatusUnauthorized, model.ErrorResponse{Message: "Access token is revoked, please login"})
			case errors.Is(err, service.ErrUserNotFound):
				c.JSON(http.StatusNotFound, model.ErrorResponse{Message: "User not found, please sign up"})
			default:
				c.JSON(http.StatusInternalServerError, model.ErrorResponse{Message: "Something went wrong, please try again later"})
			}
			c.Abort()
			return
		}

		c.Set(authUserKey, authUser)
		c.Next()
	}
}

// RefreshGuard validates the refreshtoken header and attaches its claims for
// downstream issuance. It does not load the user.
func RefreshGuard(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimSpace(c.GetHeader("refreshtoken"))
		if tokenString == "" {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "Refresh token required, please login"})
			c.Abort()
			return
		}

		refreshCtx, err := authService.ValidateRefresh(c.Request.Context(), tokenString)
		if err != nil {
			switch {
			case errors.Is(err, token.ErrInvalidToken):
				c.JSON(http.StatusUnauthorized, model.ErrorResponse{Message: "Refresh token is invalid or expired, please login"})
			case errors.Is(err, service.ErrRevokedToken):
				c.JSON(http.StatusUnauthorized, model.ErrorResponse{Message: "Refresh token is revoked, please login"})
			default:
				c.JSON(http.StatusInternalServerError, model.ErrorResponse{Message: "Something went wrong, please try again later"})
			}
			c.Abort()
			return
		}

		c.Set(refreshCtxKey, refreshCtx)
		c.Next()
	}
}

// RequireRoles authorizes the identity attached by Authentication against a
// required role set. It must run after Authentication.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authUser := GetAuthUser(c)
		if authUser == nil {
			c.JSON(http.StatusUnauthorized, model.ErrorResponse{Message: "Unauthorized role"})
			c.Abort()
			return
		}

		for _, role := range allowedRoles {
			if authUser.User.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Message: "Unauthorized role"})
		c.Abort()
	}
}

func GetAuthUser(c *gin.Context) *model.AuthUser {
	if value, ok := c.Get(authUserKey); ok {
		if user, ok := value.(*model.AuthUser); ok {
			return user
		}
	}
	return nil
}

func GetRefreshContext(c *gin.Context) *model.RefreshContext {
	if value, ok := c.Get(refreshCtxKey); ok {
		if rc, ok := value.(*model.RefreshContext); ok {
			return rc
		}
	}
	return nil
}

// RateLimit applies a fixed-window limit keyed by client IP. Limiter errors
// other than the limit itself fail open so a Redis outage does not take the
// API down with it.
func RateLimit(limiter ratelimit.Limiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := limiter.CheckAndIncrement(c.Request.Context(), c.ClientIP(), limit, window)
		if errors.Is(err, ratelimit.ErrLimitExceeded) {
			c.JSON(http.StatusTooManyRequests, model.ErrorResponse{Message: "Too many requests from this IP, please try again later"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func CORSMiddleware(allowedOrigins []string, allowCredentials bool) gin.HandlerFunc {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := originMap[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				if allowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
				c.Header("Access-Control-Allow-Headers", "Content-Type, accesstoken, refreshtoken")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
