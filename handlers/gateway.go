package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"booking-miniapp/apiclient"
	"booking-miniapp/booking"
	"booking-miniapp/database"
	"booking-miniapp/editor"
	"booking-miniapp/firebase"
	"booking-miniapp/models"
	"booking-miniapp/schedule"
	"booking-miniapp/telegram"
	"booking-miniapp/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errSessionGone = errors.New("session expired or revoked")

// Gateway carries what every handler needs: the session store, the
// in-memory workspaces and the upstream settings.
type Gateway struct {
	Sessions   *database.SessionRepository
	Registry   *editor.Registry
	Sealer     *utils.TokenSealer
	InitData   *telegram.Validator
	Guard      editor.SaveGuard
	Storage    firebase.StorageClient
	Logger     *zap.Logger
	APIBaseURL string
	HTTPClient *http.Client
	Location   *time.Location
	SessionTTL time.Duration

	LoginAttempts int
	LoginBackoff  time.Duration

	publicOnce sync.Once
	public     *apiclient.Client
}

func (g *Gateway) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

func (g *Gateway) location() *time.Location {
	if g.Location == nil {
		return time.UTC
	}
	return g.Location
}

func (g *Gateway) clientOptions(extra ...apiclient.Option) []apiclient.Option {
	opts := []apiclient.Option{
		apiclient.WithLogger(g.logger()),
		apiclient.WithLoginRetry(g.LoginAttempts, g.LoginBackoff),
	}
	if g.HTTPClient != nil {
		opts = append(opts, apiclient.WithHTTPClient(g.HTTPClient))
	}
	return append(opts, extra...)
}

// PublicClient returns the shared client for public endpoints.
func (g *Gateway) PublicClient() *apiclient.Client {
	g.publicOnce.Do(func() {
		g.public = apiclient.New(g.APIBaseURL, g.clientOptions()...)
	})
	return g.public
}

// BookingFlow builds the public booking flow on the shared client.
func (g *Gateway) BookingFlow() *booking.Flow {
	return booking.New(g.PublicClient(),
		booking.WithLocation(g.location()),
		booking.WithLogger(g.logger()),
	)
}

// persistTokens returns a listener that stores rotated upstream tokens sealed.
func (g *Gateway) persistTokens(sessionID uuid.UUID) apiclient.TokenListener {
	return func(t apiclient.Tokens) {
		access, err := g.Sealer.Seal(t.Access)
		if err != nil {
			g.logger().Error("sealing access token failed", zap.String("session_id", sessionID.String()), zap.Error(err))
			return
		}
		refresh, err := g.Sealer.Seal(t.Refresh)
		if err != nil {
			g.logger().Error("sealing refresh token failed", zap.String("session_id", sessionID.String()), zap.Error(err))
			return
		}
		if err := g.Sessions.UpdateTokens(sessionID, access, refresh); err != nil {
			g.logger().Warn("storing rotated tokens failed", zap.String("session_id", sessionID.String()), zap.Error(err))
		}
	}
}

// newWorkspace builds the upstream client and schedule editor for a session.
func (g *Gateway) newWorkspace(sess *models.Session, tokens apiclient.Tokens) *editor.Workspace {
	client := apiclient.New(g.APIBaseURL, g.clientOptions(
		apiclient.WithTokens(tokens),
		apiclient.WithUserAgent(sess.UserAgent),
		apiclient.WithTokenListener(g.persistTokens(sess.ID)),
	)...)

	opts := []editor.Option{
		editor.WithLogger(g.logger().With(zap.String("session_id", sess.ID.String()))),
		editor.WithKey(strconv.FormatInt(sess.TelegramID, 10)),
	}
	if g.Guard != nil {
		opts = append(opts, editor.WithGuard(g.Guard))
	}
	return &editor.Workspace{
		SessionID: sess.ID,
		Client:    client,
		Editor:    editor.New(client, opts...),
	}
}

func (g *Gateway) restore(sessionID uuid.UUID) (*editor.Workspace, error) {
	sess, err := g.Sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Active(time.Now()) {
		return nil, errSessionGone
	}
	access, err := g.Sealer.Open(sess.AccessSealed)
	if err != nil {
		return nil, fmt.Errorf("open access token: %w", err)
	}
	refresh, err := g.Sealer.Open(sess.RefreshSealed)
	if err != nil {
		return nil, fmt.Errorf("open refresh token: %w", err)
	}
	return g.newWorkspace(sess, apiclient.Tokens{Access: access, Refresh: refresh}), nil
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get("session_id")
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// workspace resolves the caller's workspace or writes an error response.
func (g *Gateway) workspace(c *gin.Context) (*editor.Workspace, bool) {
	id, ok := sessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	ws, err := g.Registry.GetOrCreate(id, g.restore)
	if err != nil {
		if errors.Is(err, database.ErrSessionNotFound) || errors.Is(err, errSessionGone) || errors.Is(err, utils.ErrSealedCorrupt) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired, please sign in again"})
			return nil, false
		}
		g.logger().Error("restoring session failed", zap.String("session_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore session"})
		return nil, false
	}
	return ws, true
}

// respondError maps domain and upstream errors to HTTP responses.
func (g *Gateway) respondError(c *gin.Context, err error) {
	var (
		verr   *schedule.ValidationError
		ferr   *schedule.FormatError
		nerr   *apiclient.NetworkError
		fields validator.ValidationErrors
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid schedule", "problems": verr.Problems})
	case errors.As(err, &ferr):
		c.JSON(http.StatusBadRequest, gin.H{"error": ferr.Error()})
	case errors.As(err, &fields):
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(fields)})
	case errors.Is(err, editor.ErrSaveInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "A save is already in progress"})
	case errors.Is(err, editor.ErrNotLoaded):
		c.JSON(http.StatusConflict, gin.H{"error": "Schedule is not loaded yet"})
	case errors.Is(err, editor.ErrEmptySelection):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Select at least one date"})
	case errors.Is(err, schedule.ErrInvalidDay):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrInvalidSlug), errors.Is(err, booking.ErrServiceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrPastDate), errors.Is(err, utils.ErrInvalidPhone):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrSlotUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apiclient.ErrNoCredentials), errors.Is(err, apiclient.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired, please sign in again"})
	case errors.Is(err, apiclient.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.As(err, &nerr):
		if nerr.StatusCode >= 400 && nerr.StatusCode < 500 && nerr.Detail != "" {
			c.JSON(nerr.StatusCode, gin.H{"error": nerr.Detail})
			return
		}
		g.logger().Warn("upstream call failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Booking service is unavailable", "retryable": nerr.Retryable()})
	default:
		g.logger().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
