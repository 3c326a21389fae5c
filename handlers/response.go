package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"food-ordering-api/orders"

	"github.com/gin-gonic/gin"
)

// Every response body is an envelope: {"ok": bool, "error": string|null,
// ...payload}.

func succeed(c *gin.Context, payload gin.H) {
	body := gin.H{"ok": true, "error": nil}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": msg})
}

// failErr writes a Service failure with the status of its kind
func failErr(c *gin.Context, err error) {
	var e *orders.Error
	if !errors.As(err, &e) {
		e = orders.ErrInternal
	}
	fail(c, statusOf(e.Kind), e.Message)
}

func statusOf(kind orders.Kind) int {
	switch kind {
	case orders.KindNotFound:
		return http.StatusNotFound
	case orders.KindUnauthorized:
		return http.StatusForbidden
	case orders.KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case orders.KindConflict:
		return http.StatusConflict
	case orders.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Recovery turns a panic in any later handler into an Internal envelope
func Recovery(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Error("handler panicked", "path", c.FullPath(), "panic", recovered)
		failErr(c, orders.ErrInternal)
	})
}
