package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

type Appointment struct {
	ID              int64   `json:"id"`
	ServiceID       int64   `json:"service_id,omitempty"`
	ServiceName     string  `json:"service_name,omitempty"`
	ClientID        int64   `json:"client_id,omitempty"`
	ClientName      string  `json:"client_name,omitempty"`
	ClientPhone     string  `json:"client_phone,omitempty"`
	AppointmentDate string  `json:"appointment_date"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	Status          string  `json:"status"`
	Notes           string  `json:"notes,omitempty"`
	ClientNotes     string  `json:"client_notes,omitempty"`
}

// AppointmentFilter narrows the records list. Zero values are not sent,
// except Limit which defaults to 50.
type AppointmentFilter struct {
	Status   string
	DateFrom string
	DateTo   string
	Limit    int
	Offset   int
}

const DefaultAppointmentLimit = 50

type AppointmentPage struct {
	Appointments []Appointment `json:"appointments"`
	Total        int           `json:"total"`
	Limit        int           `json:"limit"`
	Offset       int           `json:"offset"`
}

func (f AppointmentFilter) values() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.DateFrom != "" {
		q.Set("date_from", f.DateFrom)
	}
	if f.DateTo != "" {
		q.Set("date_to", f.DateTo)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultAppointmentLimit
	}
	q.Set("limit", strconv.Itoa(limit))
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}

func (c *Client) ListAppointments(ctx context.Context, f AppointmentFilter) (AppointmentPage, error) {
	var page AppointmentPage
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/appointments/", query: f.values(), authed: true}, &page)
	if page.Appointments == nil {
		page.Appointments = []Appointment{}
	}
	return page, err
}
