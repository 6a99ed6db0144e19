package middleware

import (
	"errors"
	"strings"

	"kidoai-service/internal/apperror"
	"kidoai-service/internal/models"
	"kidoai-service/internal/repository"
	"kidoai-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const userContextKey = "currentUser"

// Protect verifies the bearer token and loads the account behind it. The
// user lookup is not optional: a token for a deleted or deactivated account
// must stop working immediately.
func Protect(tokens *service.TokenService, repo *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			abortWith(c, apperror.Unauthorized("Access denied. No token provided."))
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				abortWith(c, apperror.Unauthorized("Token expired"))
			} else {
				abortWith(c, apperror.Unauthorized("Invalid token"))
			}
			return
		}

		id, err := bson.ObjectIDFromHex(claims.Subject)
		if err != nil {
			abortWith(c, apperror.Unauthorized("Invalid token"))
			return
		}

		user, err := repo.FindByID(c.Request.Context(), id)
		if err != nil {
			abortWith(c, apperror.Internal("Internal Server Error"))
			return
		}
		if user == nil {
			abortWith(c, apperror.Unauthorized("User no longer exists."))
			return
		}
		if !user.IsActive {
			abortWith(c, apperror.Unauthorized("User account is deactivated."))
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the account loaded by Protect. Only valid on
// protected routes.
func CurrentUser(c *gin.Context) *models.User {
	user, _ := c.MustGet(userContextKey).(*models.User)
	return user
}

func extractToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return auth[7:]
	}
	return ""
}

func abortWith(c *gin.Context, err *apperror.APIError) {
	c.Error(err)
	c.Abort()
}
