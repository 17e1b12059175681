package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"walkin-queue-backend/internal/store"
)

// GetSalons handles GET /api/salons.
func (h *Handler) GetSalons(c *gin.Context) {
	salons, err := h.salons.Salons(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, salons)
}

// GetSalon handles GET /api/salons/:salon_id.
func (h *Handler) GetSalon(c *gin.Context) {
	salon, err := h.salons.Salon(c.Request.Context(), c.Param("salon_id"))
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "salon not found"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, salon)
}
