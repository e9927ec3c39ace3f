package handlers

import (
	"net/http"

	"booking-miniapp/apiclient"
	"booking-miniapp/schedule"
	"booking-miniapp/utils"

	"github.com/gin-gonic/gin"
)

type RecordsHandler struct {
	*Gateway
}

// ListRecords returns the owner's appointments, newest page first as the
// booking API orders them.
func (h *RecordsHandler) ListRecords(c *gin.Context) {
	var q struct {
		Status   string `form:"status" binding:"omitempty,oneof=pending confirmed completed cancelled"`
		DateFrom string `form:"date_from"`
		DateTo   string `form:"date_to"`
		Limit    int    `form:"limit" binding:"omitempty,gte=1,lte=200"`
		Offset   int    `form:"offset" binding:"omitempty,gte=0"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	for _, d := range []string{q.DateFrom, q.DateTo} {
		if d == "" {
			continue
		}
		if _, err := schedule.ParseDate(d); err != nil {
			h.respondError(c, err)
			return
		}
	}

	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	page, err := ws.Client.ListAppointments(c.Request.Context(), apiclient.AppointmentFilter{
		Status:   q.Status,
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
