package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/k4sper1love/school-service/internal/auth"
	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/policy"
	"github.com/k4sper1love/school-service/internal/utils"
)

const (
	ctxUser     = "user"
	ctxUserID   = "user_id"
	ctxUserRole = "user_role"
)

// AuthMiddleware requires a bearer token accepted by authenticator.
func AuthMiddleware(authenticator auth.Authenticator, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.DetailResponse{
				Detail: "Authentication credentials were not provided.",
			})
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.DetailResponse{
				Detail: "Authorization header must contain two space-delimited values",
			})
			return
		}

		user, err := authenticator.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			utils.LoggerFromContext(c.Request.Context(), logger).Warn("Token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.DetailResponse{
				Detail: "Given token not valid for any token type",
			})
			return
		}

		c.Set(ctxUser, user)
		c.Set(ctxUserID, user.ID)
		c.Set(ctxUserRole, user.Role)
		c.Next()
	}
}

// GetUserFromContext returns the authenticated user, if any.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// actorFromContext writes a 401 when no user is authenticated.
func actorFromContext(c *gin.Context) (policy.Actor, bool) {
	user, ok := GetUserFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.DetailResponse{
			Detail: "Authentication credentials were not provided.",
		})
		return policy.Actor{}, false
	}
	return policy.Actor{UserID: user.ID, Role: user.Role}, true
}
