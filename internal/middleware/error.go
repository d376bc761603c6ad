// File: internal/middleware/error.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
)

// ErrorHandler converts errors attached to the Gin context into the API's
// JSON error shape and gives bare 404/405 responses a body.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			ginErr := c.Errors[0]
			if apiErr, ok := common.IsAPIError(ginErr.Err); ok {
				c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
				return
			}

			logger.Error("Unhandled application error",
				zap.Error(ginErr.Err),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString(RequestIDContextKey)),
			)
			genericError := common.ErrInternalServer.WithDetails("An unexpected error occurred.")
			if gin.Mode() == gin.DebugMode && ginErr.Err != nil {
				genericError.Details = ginErr.Err.Error()
			}
			c.AbortWithStatusJSON(genericError.StatusCode, genericError)
			return
		}

		if len(c.Errors) == 0 && !c.Writer.Written() {
			switch c.Writer.Status() {
			case http.StatusNotFound:
				notFoundErr := common.ErrNotFound.WithDetails("The requested endpoint does not exist.")
				c.AbortWithStatusJSON(notFoundErr.StatusCode, notFoundErr)
			case http.StatusMethodNotAllowed:
				methodErr := common.NewAPIError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The method is not allowed for the requested URL.")
				c.AbortWithStatusJSON(methodErr.StatusCode, methodErr)
			}
		}
	}
}
