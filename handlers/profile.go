package handlers

import (
	"net/http"
	"strings"

	"booking-miniapp/apiclient"
	"booking-miniapp/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	*Gateway
}

func profileView(p apiclient.Profile) gin.H {
	out := gin.H{
		"profile":  p,
		"initials": initials(p.FirstName, p.LastName),
	}
	if p.Phone != "" {
		out["phone_display"] = utils.FormatPhone(p.Phone)
	}
	return out
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	p, err := ws.Client.GetProfile(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profileView(p))
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	var req struct {
		Phone        *string `json:"phone"`
		BusinessName *string `json:"business_name" binding:"omitempty,max=255"`
		Address      *string `json:"address" binding:"omitempty,max=500"`
		Timezone     *string `json:"timezone" binding:"omitempty,max=64"`
		Currency     *string `json:"currency" binding:"omitempty,len=3"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	upd := apiclient.ProfileUpdate{
		BusinessName: trimmed(req.BusinessName),
		Address:      trimmed(req.Address),
		Timezone:     trimmed(req.Timezone),
		Currency:     req.Currency,
	}
	if req.Phone != nil && strings.TrimSpace(*req.Phone) != "" {
		phone, err := utils.NormalizePhone(*req.Phone)
		if err != nil {
			h.respondError(c, err)
			return
		}
		upd.Phone = &phone
	}
	if upd.Currency != nil {
		cur := strings.ToUpper(*upd.Currency)
		upd.Currency = &cur
	}

	p, err := ws.Client.UpdateProfile(c.Request.Context(), upd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profileView(p))
}

func (h *ProfileHandler) GenerateBookingLink(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	link, err := ws.Client.GenerateBookingLink(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *ProfileHandler) DeleteBookingLink(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	if err := ws.Client.DeleteBookingLink(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking link deleted"})
}

func telegramID(c *gin.Context) int64 {
	v, _ := c.Get("telegram_id")
	id, _ := v.(int64)
	return id
}

// UploadAvatar stores the "avatar" form file and points the profile at it.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}
	if err := utils.ValidateFileUpload(fh); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	file, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}
	defer file.Close()

	url, err := h.Storage.UploadAvatar(c.Request.Context(), file, telegramID(c), fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		h.logger().Error("avatar upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload avatar"})
		return
	}
	h.setAvatar(c, ws.Client, url)
}

// ImportTelegramAvatar copies the Telegram profile photo seen at login.
func (h *ProfileHandler) ImportTelegramAvatar(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	sess, err := h.Sessions.Get(ws.SessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if sess.PhotoURL == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Telegram profile has no photo"})
		return
	}
	url, err := h.Storage.ImportAvatar(c.Request.Context(), sess.PhotoURL, sess.TelegramID)
	if err != nil {
		h.logger().Warn("avatar import failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to import Telegram photo"})
		return
	}
	h.setAvatar(c, ws.Client, url)
}

// setAvatar saves url on the profile and removes the previous stored avatar.
func (h *ProfileHandler) setAvatar(c *gin.Context, client *apiclient.Client, url string) {
	ctx := c.Request.Context()
	previous := ""
	if p, err := client.GetProfile(ctx); err == nil {
		previous = p.AvatarURL
	}

	p, err := client.UpdateProfile(ctx, apiclient.ProfileUpdate{AvatarURL: &url})
	if err != nil {
		if path, perr := utils.ExtractObjectPath(url); perr == nil {
			if derr := h.Storage.DeleteFile(ctx, path); derr != nil {
				h.logger().Warn("new avatar not rolled back", zap.String("path", path), zap.Error(derr))
			}
		}
		h.respondError(c, err)
		return
	}

	if previous != "" && previous != url {
		if path, err := utils.ExtractObjectPath(previous); err == nil {
			if err := h.Storage.DeleteFile(ctx, path); err != nil {
				h.logger().Warn("old avatar not deleted", zap.String("path", path), zap.Error(err))
			}
		}
	}
	c.JSON(http.StatusOK, profileView(p))
}
