package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"booking-miniapp/schedule"
)

// PublicProfile is what a client sees on a business's booking page.
type PublicProfile struct {
	BusinessName string `json:"business_name"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	AvatarURL    string `json:"avatar_url"`
	BookingSlug  string `json:"booking_slug"`
}

// BookingRequest is the body of POST /api/booking/{slug}/book.
type BookingRequest struct {
	ServiceID       int64  `json:"service_id"`
	ClientFirstName string `json:"client_first_name"`
	ClientLastName  string `json:"client_last_name,omitempty"`
	ClientPhone     string `json:"client_phone"`
	ClientEmail     string `json:"client_email,omitempty"`
	AppointmentDate string `json:"appointment_date"`
	ClientNotes     string `json:"client_notes,omitempty"`
}

type BookingConfirmation struct {
	Message     string      `json:"message"`
	Appointment Appointment `json:"appointment"`
}

func publicPath(slug, suffix string) string {
	return "/api/booking/" + url.PathEscape(slug) + suffix
}

// The public endpoints need no credentials.

func (c *Client) PublicProfile(ctx context.Context, slug string) (PublicProfile, error) {
	var p PublicProfile
	err := c.do(ctx, request{method: http.MethodGet, path: publicPath(slug, "/profile")}, &p)
	return p, err
}

func (c *Client) PublicServices(ctx context.Context, slug string) ([]Service, error) {
	var out serviceList
	err := c.do(ctx, request{method: http.MethodGet, path: publicPath(slug, "/services")}, &out)
	if out.Services == nil {
		out.Services = []Service{}
	}
	return out.Services, err
}

func (c *Client) PublicAvailability(ctx context.Context, slug, date string) (schedule.WireAvailability, error) {
	var out schedule.WireAvailability
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   publicPath(slug, "/availability"),
		query:  url.Values{"date": {date}},
	}, &out)
	if out.Date == "" {
		out.Date = date
	}
	return out, err
}

func (c *Client) Book(ctx context.Context, slug string, req BookingRequest) (BookingConfirmation, error) {
	var out BookingConfirmation
	err := c.do(ctx, request{method: http.MethodPost, path: publicPath(slug, "/book"), body: req}, &out)
	return out, err
}
