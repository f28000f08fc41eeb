package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"waitlist-backend/internal/model"
)

// tableResponse is the table board row: the table plus its current occupant,
// if any.
type tableResponse struct {
	model.Table
	CurrentEntry *model.QueueEntry `json:"current_entry,omitempty"`
}

// GetTables handles GET /api/tables.
func (h *Handler) GetTables(c *gin.Context) {
	ctx := c.Request.Context()

	tables, err := h.store.ListTables(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}

	response := make([]tableResponse, 0, len(tables))
	for _, table := range tables {
		row := tableResponse{Table: table}
		if table.CurrentQueueID != nil {
			entry, err := h.store.GetEntry(ctx, *table.CurrentQueueID)
			if err == nil {
				row.CurrentEntry = entry
			}
		}
		response = append(response, row)
	}
	c.JSON(http.StatusOK, response)
}

// PostCallNext handles POST /api/tables/{table_id}/call. A 204 response means
// no waiting party fits the table.
func (h *Handler) PostCallNext(c *gin.Context) {
	tableID, ok := idParam(c, "table_id")
	if !ok {
		return
	}

	entry, err := h.engine.CallNext(c.Request.Context(), tableID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if entry == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, entry)
}
