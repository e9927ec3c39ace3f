package database

import (
	"errors"
	"fmt"
	"os"
	"time"

	"booking-miniapp/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("session not found")

func Connect() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=booking_miniapp port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	// gen_random_uuid() comes from pgcrypto on older PostgreSQL versions.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	return db.AutoMigrate(&models.Session{})
}

// SessionRepository persists gateway sessions.
type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(s *models.Session) error {
	if s.LastSeenAt.IsZero() {
		s.LastSeenAt = time.Now()
	}
	return r.DB.Create(s).Error
}

// Get returns the session regardless of its revoked or expired state.
func (r *SessionRepository) Get(id uuid.UUID) (*models.Session, error) {
	var s models.Session
	if err := r.DB.First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// UpdateTokens stores rotated upstream tokens.
func (r *SessionRepository) UpdateTokens(id uuid.UUID, accessSealed, refreshSealed string) error {
	res := r.DB.Model(&models.Session{}).Where("id = ?", id).Updates(map[string]interface{}{
		"access_sealed":  accessSealed,
		"refresh_sealed": refreshSealed,
		"last_seen_at":   time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) Touch(id uuid.UUID) error {
	return r.DB.Model(&models.Session{}).Where("id = ?", id).Update("last_seen_at", time.Now()).Error
}

func (r *SessionRepository) Revoke(id uuid.UUID) error {
	now := time.Now()
	res := r.DB.Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// PurgeExpired deletes sessions that expired or were revoked before cutoff.
func (r *SessionRepository) PurgeExpired(cutoff time.Time) (int64, error) {
	res := r.DB.Where("expires_at < ? OR revoked_at < ?", cutoff, cutoff).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}
