package httpapi

import "github.com/gin-gonic/gin"

// Response is the envelope every JSON endpoint returns.
type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondJSON(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Response{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func respondError(c *gin.Context, code int, message string, data any) {
	c.AbortWithStatusJSON(code, Response{Status: false, Message: message, Data: data})
}
