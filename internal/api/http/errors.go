package http

import (
	"errors"
	"net/http"

	"github.com/GriffinCanCode/leadform/internal/domain/lead"
	"github.com/GriffinCanCode/leadform/internal/domain/store"
	"github.com/GriffinCanCode/leadform/internal/domain/website"
	"github.com/GriffinCanCode/leadform/internal/providers/fetch"
	"github.com/GriffinCanCode/leadform/internal/providers/scraper"
	"github.com/GriffinCanCode/leadform/internal/shared/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps a domain error to an HTTP status
func statusFor(err error) int {
	var (
		fetchErr *fetch.Error
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.Is(err, scraper.ErrResourceExhausted), errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case fetch.IsTimeout(err):
		return http.StatusGatewayTimeout
	case errors.As(err, &fetchErr):
		if fetchErr.Kind == fetch.KindInvalidURL {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	case errors.Is(err, lead.ErrInvalidSecret):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound), errors.Is(err, lead.ErrFormNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, website.ErrInvalidInput),
		errors.Is(err, lead.ErrInvalidInput),
		errors.Is(err, lead.ErrWebsiteInactive),
		errors.Is(err, lead.ErrSecretExpired),
		errors.Is(err, types.ErrInvalidQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...}. Internal errors are logged and
// their detail is withheld from the client.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"error": msg})
}

// badRequest reports a body or query that could not be bound. A body cut
// off by the size cap is reported as 413.
func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	status := http.StatusBadRequest
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
