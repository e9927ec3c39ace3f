// Package telegram validates the initData string a Telegram Mini-App
// receives at launch.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmpty        = errors.New("init data is empty")
	ErrMissingField = errors.New("init data is missing a required field")
	ErrBadSignature = errors.New("init data signature mismatch")
	ErrExpired      = errors.New("init data is too old")
)

// User is the Telegram account embedded in initData.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
	IsPremium    bool   `json:"is_premium,omitempty"`
}

// InitData is a parsed initData string. Raw is kept so it can be forwarded
// unchanged to the booking API.
type InitData struct {
	Raw      string
	User     User
	AuthDate time.Time
	QueryID  string
	Hash     string
	values   url.Values
}

// Parse decodes initData without checking the signature. user, auth_date
// and hash are required.
func Parse(raw string) (InitData, error) {
	if strings.TrimSpace(raw) == "" {
		return InitData{}, ErrEmpty
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return InitData{}, fmt.Errorf("parse init data: %w", err)
	}
	for _, key := range []string{"user", "auth_date", "hash"} {
		if values.Get(key) == "" {
			return InitData{}, fmt.Errorf("%w: %s", ErrMissingField, key)
		}
	}

	var user User
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil {
		return InitData{}, fmt.Errorf("parse init data user: %w", err)
	}
	if user.ID == 0 {
		return InitData{}, fmt.Errorf("%w: user.id", ErrMissingField)
	}
	ts, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return InitData{}, fmt.Errorf("parse init data auth_date: %w", err)
	}

	return InitData{
		Raw:      raw,
		User:     user,
		AuthDate: time.Unix(ts, 0).UTC(),
		QueryID:  values.Get("query_id"),
		Hash:     values.Get("hash"),
		values:   values,
	}, nil
}

// DataCheckString is every field except hash, sorted by key, as key=value
// lines joined with "\n".
func (d InitData) DataCheckString() string {
	keys := make([]string, 0, len(d.values))
	for k := range d.values {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+d.values.Get(k))
	}
	return strings.Join(lines, "\n")
}

// Sign computes the hex hash Telegram would attach for botToken.
func Sign(dataCheckString, botToken string) string {
	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(dataCheckString))
	return hex.EncodeToString(mac.Sum(nil))
}

// Validator checks initData signatures and age.
type Validator struct {
	botToken string
	maxAge   time.Duration
	now      func() time.Time
}

// NewValidator returns a validator. An empty bot token disables signature
// checks (the booking API verifies again); maxAge <= 0 disables the age check.
func NewValidator(botToken string, maxAge time.Duration) *Validator {
	return &Validator{botToken: botToken, maxAge: maxAge, now: time.Now}
}

func (v *Validator) Validate(raw string) (InitData, error) {
	d, err := Parse(raw)
	if err != nil {
		return InitData{}, err
	}
	if v.botToken != "" {
		want := Sign(d.DataCheckString(), v.botToken)
		if !hmac.Equal([]byte(want), []byte(strings.ToLower(d.Hash))) {
			return InitData{}, ErrBadSignature
		}
	}
	if v.maxAge > 0 && v.now().Sub(d.AuthDate) > v.maxAge {
		return InitData{}, ErrExpired
	}
	return d, nil
}
