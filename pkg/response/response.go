package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pickwatch/pkg/logger"
)

// Success writes a 200 response wrapping data in the standard envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"error": false,
		"data":  data,
	})
}

// Error writes an error envelope and logs the underlying cause.
func Error(c *gin.Context, statusCode int, message string, err error) {
	if err != nil {
		logger.Error("API error",
			zap.String("message", message),
			zap.Int("status_code", statusCode),
			zap.Error(err))
	}
	c.JSON(statusCode, gin.H{
		"error":      true,
		"message":    message,
		"code":       statusCode,
		"request_id": c.GetString("RequestID"),
	})
}

// NotFound writes a 404 envelope.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, nil)
}
