package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"walkin-queue-backend/internal/model"
	"walkin-queue-backend/internal/mw"
	"walkin-queue-backend/internal/queue"
)

// SalonReader is the part of the catalog the handlers read.
type SalonReader interface {
	Salons(ctx context.Context) ([]model.Salon, error)
	Salon(ctx context.Context, salonID string) (model.Salon, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	engine *queue.Engine
	salons SalonReader
	log    logrus.FieldLogger
}

// NewHandler creates a new API handler.
func NewHandler(engine *queue.Engine, salons SalonReader, log logrus.FieldLogger) *Handler {
	return &Handler{
		engine: engine,
		salons: salons,
		log:    log,
	}
}

// bindJSON decodes the body and answers 400 with per-field violations on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":  "validation failed",
				"fields": validationFields(verrs),
			})
			return false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return false
	}
	return true
}

func validationFields(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

// writeError maps engine errors onto HTTP statuses.
func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *queue.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  verr.Error(),
			"fields": map[string]string{verr.Field: verr.Reason},
		})
	case errors.Is(err, queue.ErrSalonNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, queue.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error(), "outcome": "not_found"})
	case errors.Is(err, queue.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		mw.Logger(c, h.log).WithError(err).Error("request failed")
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
