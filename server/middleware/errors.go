package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "salesrecon/server/errors"
)

// ErrorResponse структура ответа об ошибке
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   any    `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

// RespondError логирует ошибку и отвечает JSON-конвертом с request ID
func RespondError(c *gin.Context, err error) {
	appErr := apperrors.WrapError(err, "request failed")
	if appErr == nil {
		appErr = apperrors.NewInternalError("request failed", nil)
	}
	reqID := GetRequestIDFromGin(c)

	level := slog.LevelWarn
	if appErr.Code >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(c.Request.Context(), level, "HTTP error",
		"error", appErr.Err,
		"user_message", appErr.Message,
		"context", appErr.Context,
		"status_code", appErr.Code,
		"request_id", reqID,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)

	_ = c.Error(appErr)
	c.AbortWithStatusJSON(appErr.Code, ErrorResponse{
		Error:     appErr.Message,
		Details:   appErr.Details,
		Timestamp: time.Now().Format(time.RFC3339),
		RequestID: reqID,
	})
}
