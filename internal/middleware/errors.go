package middleware

import (
	"errors"
	"log"
	"net/http"

	"kidoai-service/internal/apperror"
	"kidoai-service/internal/repository"

	"github.com/gin-gonic/gin"
)

// ErrorHandler is the single place responses are shaped for failures.
// Handlers attach errors with c.Error and return; this middleware translates
// them into the uniform {error, message, details?} envelope.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var apiErr *apperror.APIError
		if !errors.As(err, &apiErr) {
			switch {
			case repository.IsDuplicateKey(err):
				apiErr = apperror.Conflict("email already exists")
			default:
				log.Printf("Error: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
				apiErr = apperror.Internal("Internal Server Error")
			}
		}

		body := gin.H{
			"error":   true,
			"message": apiErr.Message,
		}
		if apiErr.Details != nil {
			body["details"] = apiErr.Details
		}
		c.JSON(apiErr.Status, body)
	}
}

// Recovery turns panics into the same envelope instead of gin's default
// plain-text 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("Panic recovered: %v", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   true,
			"message": "Internal Server Error",
		})
	})
}

// NotFoundHandler answers unknown routes with the standard envelope.
func NotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":   true,
		"message": "Route " + c.Request.URL.Path + " not found",
	})
}

// SecurityHeaders sets the response headers the reverse proxy does not.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "0")
		c.Header("Referrer-Policy", "no-referrer")
		c.Next()
	}
}

// maxBodyBytes caps request bodies; every legitimate payload here is tiny.
const maxBodyBytes = 10 << 10

func BodyLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		}
		c.Next()
	}
}
