package handlers

import (
	"net/http"
	"strings"
	"time"

	"booking-miniapp/apiclient"
	"booking-miniapp/editor"
	"booking-miniapp/models"
	"booking-miniapp/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultSessionTTL = 7 * 24 * time.Hour

type AuthHandler struct {
	*Gateway
}

func (h *AuthHandler) sessionTTL() time.Duration {
	if h.SessionTTL <= 0 {
		return defaultSessionTTL
	}
	return h.SessionTTL
}

// Login exchanges Telegram initData for a gateway session token. initData
// is read from the X-Init-Data header or the JSON body.
func (h *AuthHandler) Login(c *gin.Context) {
	raw := c.GetHeader("X-Init-Data")
	if raw == "" {
		var req struct {
			InitData string `json:"init_data" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
			return
		}
		raw = req.InitData
	}
	raw = strings.TrimSpace(raw)

	data, err := h.InitData.Validate(raw)
	if err != nil {
		h.logger().Info("rejected init data", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	client := apiclient.New(h.APIBaseURL, h.clientOptions(apiclient.WithUserAgent(c.Request.UserAgent()))...)
	user, err := apiclient.NewAuthenticator(client, data.Raw).Init(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	tokens := client.Tokens()

	access, err := h.Sealer.Seal(tokens.Access)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}
	refresh, err := h.Sealer.Seal(tokens.Refresh)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	sess := models.Session{
		TelegramID:    data.User.ID,
		Username:      data.User.Username,
		FirstName:     data.User.FirstName,
		LastName:      data.User.LastName,
		PhotoURL:      data.User.PhotoURL,
		AccessSealed:  access,
		RefreshSealed: refresh,
		UserAgent:     c.Request.UserAgent(),
		ExpiresAt:     time.Now().Add(h.sessionTTL()),
	}
	if err := h.Sessions.Create(&sess); err != nil {
		h.logger().Error("creating session failed", zap.Int64("telegram_id", data.User.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	token, err := utils.GenerateToken(sess.ID, sess.TelegramID, h.sessionTTL())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	if _, err := h.Registry.GetOrCreate(sess.ID, func(uuid.UUID) (*editor.Workspace, error) {
		return h.newWorkspace(&sess, tokens), nil
	}); err != nil {
		h.logger().Warn("preparing workspace failed", zap.Error(err))
	}

	h.logger().Info("session created",
		zap.String("session_id", sess.ID.String()),
		zap.Int64("telegram_id", sess.TelegramID),
	)
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": sess.ExpiresAt,
		"user":       user,
		"initials":   initials(user.FirstName, user.LastName),
	})
}

// Status reports whether the upstream still accepts the session's tokens.
func (h *AuthHandler) Status(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	st, err := ws.Client.Status(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"is_authenticated": st.IsAuthenticated,
		"user":             st.User,
		"token_source":     st.TokenSource,
		"session_id":       ws.SessionID,
	})
}

// Logout revokes the session and logs out upstream. Upstream failures are logged only.
func (h *AuthHandler) Logout(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if ws, err := h.Registry.GetOrCreate(id, h.restore); err == nil {
		if err := ws.Client.Logout(c.Request.Context()); err != nil {
			h.logger().Warn("upstream logout failed", zap.String("session_id", id.String()), zap.Error(err))
		}
	}
	h.Registry.Remove(id)

	if err := h.Sessions.Revoke(id); err != nil {
		h.logger().Info("revoke skipped", zap.String("session_id", id.String()), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func initials(first, last string) string {
	var b strings.Builder
	for _, part := range []string{first, last} {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r := []rune(part)[0]
		b.WriteString(strings.ToUpper(string(r)))
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}
