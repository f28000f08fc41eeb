package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"waitlist-backend/internal/engine"
	"waitlist-backend/internal/model"
)

type enqueueRequest struct {
	CustomerName string `json:"customer_name" binding:"required"`
	Contact      string `json:"contact"`
	PartySize    int    `json:"party_size" binding:"required"`
	Priority     string `json:"priority"`
	CreatedBy    string `json:"created_by"`
}

// PostQueue handles POST /api/queue.
func (h *Handler) PostQueue(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.engine.Enqueue(c.Request.Context(), engine.EnqueueParams{
		CustomerName: req.CustomerName,
		Contact:      req.Contact,
		PartySize:    req.PartySize,
		Priority:     req.Priority,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// GetQueue handles GET /api/queue. The optional status query holds a
// comma-separated status list; the default view is the live queue.
func (h *Handler) GetQueue(c *gin.Context) {
	statuses := []string{model.EntryStatusWaiting, model.EntryStatusCalled, model.EntryStatusSeated}
	if raw := c.Query("status"); raw != "" {
		statuses = strings.Split(raw, ",")
	}

	entries, err := h.store.ListEntriesByStatus(c.Request.Context(), statuses...)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetQueueEntry handles GET /api/queue/{entry_id}.
func (h *Handler) GetQueueEntry(c *gin.Context) {
	entryID, ok := idParam(c, "entry_id")
	if !ok {
		return
	}

	entry, err := h.store.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// PostSeat handles POST /api/queue/{entry_id}/seat.
func (h *Handler) PostSeat(c *gin.Context) {
	entryID, ok := idParam(c, "entry_id")
	if !ok {
		return
	}

	entry, err := h.engine.Seat(c.Request.Context(), entryID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// PostFinish handles POST /api/queue/{entry_id}/finish.
func (h *Handler) PostFinish(c *gin.Context) {
	entryID, ok := idParam(c, "entry_id")
	if !ok {
		return
	}

	entry, err := h.engine.Finish(c.Request.Context(), entryID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// PostCancel handles POST /api/queue/{entry_id}/cancel.
func (h *Handler) PostCancel(c *gin.Context) {
	entryID, ok := idParam(c, "entry_id")
	if !ok {
		return
	}

	entry, err := h.engine.Cancel(c.Request.Context(), entryID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
