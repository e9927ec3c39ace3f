package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"booking-miniapp/apiclient"
	"booking-miniapp/utils"

	"github.com/gin-gonic/gin"
)

type ServiceHandler struct {
	*Gateway
}

type createServiceRequest struct {
	Name            *string  `json:"name" binding:"required,min=1,max=255"`
	Description     *string  `json:"description" binding:"omitempty,max=2000"`
	Price           *float64 `json:"price" binding:"required,gt=0"`
	DurationMinutes *int     `json:"duration_minutes" binding:"required,gte=1,lte=1440"`
	Color           *string  `json:"color" binding:"omitempty,len=7,hexcolor"`
	IsActive        *bool    `json:"is_active"`
}

type updateServiceRequest struct {
	Name            *string  `json:"name" binding:"omitempty,min=1,max=255"`
	Description     *string  `json:"description" binding:"omitempty,max=2000"`
	Price           *float64 `json:"price" binding:"omitempty,gt=0"`
	DurationMinutes *int     `json:"duration_minutes" binding:"omitempty,gte=1,lte=1440"`
	Color           *string  `json:"color" binding:"omitempty,len=7,hexcolor"`
	IsActive        *bool    `json:"is_active"`
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func serviceID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid service ID"})
		return 0, false
	}
	return id, true
}

func (h *ServiceHandler) ListServices(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	services, err := ws.Client.ListServices(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services, "total": len(services)})
}

func (h *ServiceHandler) GetService(c *gin.Context) {
	id, ok := serviceID(c)
	if !ok {
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	svc, err := ws.Client.GetService(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (h *ServiceHandler) CreateService(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req createServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	name := trimmed(req.Name)
	if *name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	svc, err := ws.Client.CreateService(c.Request.Context(), apiclient.ServiceInput{
		Name:            name,
		Description:     trimmed(req.Description),
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		Color:           req.Color,
		IsActive:        &active,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

func (h *ServiceHandler) UpdateService(c *gin.Context) {
	id, ok := serviceID(c)
	if !ok {
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req updateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	name := trimmed(req.Name)
	if name != nil && *name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name must not be blank"})
		return
	}

	svc, err := ws.Client.UpdateService(c.Request.Context(), id, apiclient.ServiceInput{
		Name:            name,
		Description:     trimmed(req.Description),
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		Color:           req.Color,
		IsActive:        req.IsActive,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (h *ServiceHandler) DeleteService(c *gin.Context) {
	id, ok := serviceID(c)
	if !ok {
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	if err := ws.Client.DeleteService(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Service deleted"})
}
