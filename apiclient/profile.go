package apiclient

import (
	"context"
	"net/http"
)

type Profile struct {
	TelegramID   int64  `json:"telegram_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	Phone        string `json:"phone"`
	BusinessName string `json:"business_name"`
	Address      string `json:"address"`
	Timezone     string `json:"timezone,omitempty"`
	Currency     string `json:"currency,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	BookingSlug  string `json:"booking_slug,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// ProfileUpdate is a partial update; nil fields are not sent.
type ProfileUpdate struct {
	Phone        *string `json:"phone,omitempty"`
	BusinessName *string `json:"business_name,omitempty"`
	Address      *string `json:"address,omitempty"`
	Timezone     *string `json:"timezone,omitempty"`
	Currency     *string `json:"currency,omitempty"`
	AvatarURL    *string `json:"avatar_url,omitempty"`
}

type BookingLink struct {
	Message     string   `json:"message"`
	BookingSlug string   `json:"booking_slug"`
	BookingURL  string   `json:"booking_url"`
	Profile     *Profile `json:"profile,omitempty"`
}

func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	var p Profile
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/profiles/", authed: true}, &p)
	return p, err
}

func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) (Profile, error) {
	var p Profile
	err := c.do(ctx, request{method: http.MethodPut, path: "/api/profiles/", body: upd, authed: true}, &p)
	return p, err
}

func (c *Client) GenerateBookingLink(ctx context.Context) (BookingLink, error) {
	var l BookingLink
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/profiles/generate-booking-link", authed: true}, &l)
	return l, err
}

func (c *Client) DeleteBookingLink(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/profiles/booking-link", authed: true}, nil)
}
