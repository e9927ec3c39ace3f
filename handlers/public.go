package handlers

import (
	"net/http"
	"strconv"

	"booking-miniapp/booking"
	"booking-miniapp/utils"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves the client-facing booking page; no session needed.
type PublicHandler struct {
	*Gateway
}

func (h *PublicHandler) GetPage(c *gin.Context) {
	page, err := h.BookingFlow().Page(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *PublicHandler) GetSlots(c *gin.Context) {
	serviceID, err := strconv.ParseInt(c.Query("service_id"), 10, 64)
	if err != nil || serviceID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "service_id is required"})
		return
	}
	slots, err := h.BookingFlow().Slots(c.Request.Context(), c.Param("slug"), serviceID, c.Query("date"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":         slots.Date,
		"service":      slots.Service,
		"message":      slots.Message,
		"day_off":      slots.DayOff,
		"no_slots_fit": slots.NoSlotsFit(),
		"slots":        slotsView(slots.Slots),
	})
}

func (h *PublicHandler) Book(c *gin.Context) {
	var sub booking.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	conf, err := h.BookingFlow().Submit(c.Request.Context(), c.Param("slug"), sub)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conf)
}
