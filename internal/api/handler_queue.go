package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"walkin-queue-backend/internal/queue"
	"walkin-queue-backend/internal/store"
)

type joinRequest struct {
	SalonID  string   `json:"salon_id" binding:"required"`
	Name     string   `json:"name" binding:"required,max=128"`
	Phone    string   `json:"phone" binding:"required,phone10"`
	Services []string `json:"services" binding:"required,min=1"`
}

type joinResponse struct {
	Token                int64     `json:"token"`
	SalonID              string    `json:"salon_id"`
	Services             []string  `json:"services"`
	TotalDurationMinutes int       `json:"total_duration_minutes"`
	OrderIndex           int64     `json:"order_index"`
	Position             int       `json:"position"`
	EstimatedWait        int64     `json:"estimated_wait"`
	JoinedAt             time.Time `json:"joined_at"`
}

type salonRequest struct {
	SalonID string `json:"salon_id" binding:"required"`
}

type tokenRequest struct {
	SalonID string `json:"salon_id" binding:"required"`
	Token   int64  `json:"token" binding:"required,gt=0"`
}

type moveRequest struct {
	tokenRequest
	Direction string `json:"direction" binding:"required,oneof=up down UP DOWN"`
}

type servicesRequest struct {
	tokenRequest
	Services []string `json:"services" binding:"required,min=1"`
}

type resetRequest struct {
	SalonID        string `json:"salon_id" binding:"required"`
	IncludeHistory *bool  `json:"include_history"`
}

type outcomeResponse struct {
	Outcome queue.Outcome `json:"outcome"`
	Token   int64         `json:"token,omitempty"`
}

type statusResponse struct {
	queue.Snapshot
	SalonName string `json:"salon_name"`
}

// Join handles POST /api/queue/join.
func (h *Handler) Join(c *gin.Context) {
	var req joinRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.engine.Join(c.Request.Context(), queue.JoinRequest{
		SalonID:  req.SalonID,
		Name:     req.Name,
		Phone:    req.Phone,
		Services: req.Services,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, joinResponse{
		Token:                entry.Token,
		SalonID:              entry.SalonID,
		Services:             entry.Services,
		TotalDurationMinutes: entry.TotalDurationMinutes,
		OrderIndex:           entry.OrderIndex,
		Position:             entry.Position,
		EstimatedWait:        entry.EstimatedWait,
		JoinedAt:             entry.JoinedAt,
	})
}

// Status handles GET /api/queue/status?salon_id=.
func (h *Handler) Status(c *gin.Context) {
	salonID := c.Query("salon_id")
	if salonID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "salon_id is required"})
		return
	}

	salon, err := h.salons.Salon(c.Request.Context(), salonID)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "salon not found"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	snap, err := h.engine.Status(c.Request.Context(), salonID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusResponse{Snapshot: snap, SalonName: salon.Name})
}

// History handles GET /api/queue/history?salon_id=&limit=.
func (h *Handler) History(c *gin.Context) {
	salonID := c.Query("salon_id")
	if salonID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "salon_id is required"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	rows, err := h.engine.History(c.Request.Context(), salonID, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"salon_id": salonID, "history": rows})
}

// Next handles POST /api/queue/next.
func (h *Handler) Next(c *gin.Context) {
	var req salonRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.engine.AdvanceToNext(c.Request.Context(), req.SalonID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Move handles POST /api/queue/move.
func (h *Handler) Move(c *gin.Context) {
	var req moveRequest
	if !bindJSON(c, &req) {
		return
	}
	dir, err := queue.ParseDirection(req.Direction)
	if err != nil {
		h.writeError(c, err)
		return
	}

	outcome, err := h.engine.Move(c.Request.Context(), req.SalonID, req.Token, dir)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcomeResponse{Outcome: outcome, Token: req.Token})
}

// ServeNow handles POST /api/queue/serve-now.
func (h *Handler) ServeNow(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}

	outcome, err := h.engine.ServeNow(c.Request.Context(), req.SalonID, req.Token)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcomeResponse{Outcome: outcome, Token: req.Token})
}

// EditServices handles POST /api/queue/edit (replace) and POST /api/queue/add-service (union).
func (h *Handler) EditServices(mode queue.EditMode) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req servicesRequest
		if !bindJSON(c, &req) {
			return
		}

		res, err := h.engine.EditServices(c.Request.Context(), req.SalonID, req.Token, req.Services, mode)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// Cancel handles POST /api/queue/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}
	h.cancel(c, req.SalonID, req.Token)
}

// Delete handles DELETE /api/queue/:salon_id/:token.
func (h *Handler) Delete(c *gin.Context) {
	token, err := strconv.ParseInt(c.Param("token"), 10, 64)
	if err != nil || token <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
		return
	}
	h.cancel(c, c.Param("salon_id"), token)
}

func (h *Handler) cancel(c *gin.Context, salonID string, token int64) {
	outcome, err := h.engine.Cancel(c.Request.Context(), salonID, token)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcomeResponse{Outcome: outcome, Token: token})
}

// Reset handles POST /api/queue/reset. History is cleared unless include_history is false.
func (h *Handler) Reset(c *gin.Context) {
	var req resetRequest
	if !bindJSON(c, &req) {
		return
	}
	includeHistory := req.IncludeHistory == nil || *req.IncludeHistory

	removed, err := h.engine.Reset(c.Request.Context(), req.SalonID, includeHistory)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"outcome":         queue.OutcomeReset,
		"removed":         removed,
		"include_history": includeHistory,
	})
}
