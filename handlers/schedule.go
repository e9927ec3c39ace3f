package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"booking-miniapp/editor"
	"booking-miniapp/schedule"
	"booking-miniapp/utils"

	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	*Gateway
}

// loadedEditor returns the session's editor, loading the schedule on first use.
func (h *ScheduleHandler) loadedEditor(c *gin.Context) (*editor.Workspace, bool) {
	ws, ok := h.workspace(c)
	if !ok {
		return nil, false
	}
	if !ws.Editor.Loaded() {
		if err := ws.Editor.Load(c.Request.Context()); err != nil {
			h.respondError(c, err)
			return nil, false
		}
	}
	return ws, true
}

// GetSchedule returns the weekly template, overrides and current selection.
// ?reload=true refetches from the booking API.
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	if !ws.Editor.Loaded() || c.Query("reload") == "true" {
		if err := ws.Editor.Load(c.Request.Context()); err != nil {
			h.respondError(c, err)
			return
		}
	}
	store := ws.Editor.Store()
	c.JSON(http.StatusOK, gin.H{
		"template":  templateView(store.Template()),
		"overrides": overridesView(store.Overrides()),
		"selection": ws.Editor.Selection(),
	})
}

// GetDay resolves one date: override if present, otherwise the weekday template.
func (h *ScheduleHandler) GetDay(c *gin.Context) {
	ws, ok := h.loadedEditor(c)
	if !ok {
		return
	}
	date := c.Param("date")
	cfg, err := ws.Editor.Store().Resolve(date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	_, overridden := ws.Editor.Store().Override(date)
	c.JSON(http.StatusOK, gin.H{"date": date, "is_override": overridden, "config": dayView(cfg)})
}

// GetMonth renders the calendar grid. Defaults to the current month.
func (h *ScheduleHandler) GetMonth(c *gin.Context) {
	ws, ok := h.loadedEditor(c)
	if !ok {
		return
	}
	now := time.Now().In(h.location())
	year, month := now.Year(), int(now.Month())
	var err error
	if v := c.Query("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
			return
		}
	}
	if v := c.Query("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month"})
			return
		}
	}

	view, err := ws.Editor.MonthView(year, time.Month(month))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, monthView(view))
}

// ToggleDate flips one date in the multi-select.
func (h *ScheduleHandler) ToggleDate(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req struct {
		Date string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	selected, err := ws.Editor.Toggle(req.Date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": req.Date, "selected": selected, "selection": ws.Editor.Selection()})
}

func (h *ScheduleHandler) ClearSelection(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	ws.Editor.ClearSelection()
	c.JSON(http.StatusOK, gin.H{"selection": []string{}})
}

// SaveDates applies one patch to many dates in a single upstream call.
// Without "dates" in the body the current selection is used.
func (h *ScheduleHandler) SaveDates(c *gin.Context) {
	ws, ok := h.loadedEditor(c)
	if !ok {
		return
	}
	var req struct {
		Dates []string `json:"dates"`
		patchJSON
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		h.respondError(c, err)
		return
	}
	if patch.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to change"})
		return
	}

	var saved []schedule.DateOverride
	if len(req.Dates) > 0 {
		saved, err = ws.Editor.SaveDatesFor(c.Request.Context(), req.Dates, patch)
	} else {
		saved, err = ws.Editor.SaveDates(c.Request.Context(), patch)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   fmt.Sprintf("Saved %d dates", len(saved)),
		"saved":     overridesView(saved),
		"selection": ws.Editor.Selection(),
	})
}

// SaveWeekday patches one template day (0=Monday) and saves the whole template.
func (h *ScheduleHandler) SaveWeekday(c *gin.Context) {
	ws, ok := h.loadedEditor(c)
	if !ok {
		return
	}
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid day of week"})
		return
	}
	var req patchJSON
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		h.respondError(c, err)
		return
	}
	days, err := ws.Editor.SaveWeekday(c.Request.Context(), day, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": templateView(days)})
}

// SaveTemplate replaces all seven template days.
func (h *ScheduleHandler) SaveTemplate(c *gin.Context) {
	ws, ok := h.loadedEditor(c)
	if !ok {
		return
	}
	var req struct {
		Days []templateDayJSON `json:"days" binding:"required,len=7"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var days [schedule.DaysInWeek]schedule.DayTemplate
	seen := make(map[int]bool, schedule.DaysInWeek)
	for _, d := range req.Days {
		if d.DayOfWeek < 0 || d.DayOfWeek >= schedule.DaysInWeek || seen[d.DayOfWeek] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must list each day_of_week 0..6 once"})
			return
		}
		seen[d.DayOfWeek] = true
		cfg, err := parseDay(d.dayJSON)
		if err != nil {
			h.respondError(c, err)
			return
		}
		days[d.DayOfWeek] = schedule.DayTemplate{DayOfWeek: d.DayOfWeek, DayConfig: cfg}
	}

	saved, err := ws.Editor.SaveTemplate(c.Request.Context(), days)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": templateView(saved)})
}

// Availability generates the owner's slot view for a date and service duration.
func (h *ScheduleHandler) Availability(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	date := c.Query("date")
	if _, err := schedule.ParseDate(date); err != nil {
		h.respondError(c, err)
		return
	}
	duration, err := strconv.Atoi(c.DefaultQuery("duration", "60"))
	if err != nil || duration <= 0 || duration > 1440 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration must be between 1 and 1440 minutes"})
		return
	}

	wire, err := ws.Client.Availability(c.Request.Context(), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	av, err := schedule.AvailabilityFromWire(wire, h.location())
	if err != nil {
		h.respondError(c, err)
		return
	}
	res := schedule.GenerateSlots(av.Config, duration, av.Booked, av.Date, h.location())
	c.JSON(http.StatusOK, gin.H{
		"date":         date,
		"day_off":      res.DayOff,
		"no_slots_fit": res.NoSlotsFit(),
		"message":      av.Message,
		"slots":        slotsView(res.Slots),
	})
}
