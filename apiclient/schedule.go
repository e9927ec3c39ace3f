package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"booking-miniapp/schedule"
)

type templateBody struct {
	WorkingHours []schedule.WireDay `json:"working_hours"`
	Message      string             `json:"message,omitempty"`
}

type daysBody struct {
	WorkingDays []schedule.WireDate `json:"working_days"`
	Message     string              `json:"message,omitempty"`
}

// GetSchedule loads the weekly template and the date overrides.
func (c *Client) GetSchedule(ctx context.Context) (schedule.WireSchedule, error) {
	var out schedule.WireSchedule
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/schedule", authed: true}, &out)
	return out, err
}

// PutTemplate replaces all seven template entries and returns the echo.
func (c *Client) PutTemplate(ctx context.Context, days []schedule.WireDay) ([]schedule.WireDay, error) {
	var out templateBody
	err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/api/schedule",
		body:   templateBody{WorkingHours: days},
		authed: true,
	}, &out)
	return out.WorkingHours, err
}

// PutDays upserts overrides for the given dates in one call.
func (c *Client) PutDays(ctx context.Context, days []schedule.WireDate) ([]schedule.WireDate, error) {
	var out daysBody
	err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/api/schedule/days",
		body:   daysBody{WorkingDays: days},
		authed: true,
	}, &out)
	return out.WorkingDays, err
}

// Availability fetches the owner's availability for one date.
func (c *Client) Availability(ctx context.Context, date string) (schedule.WireAvailability, error) {
	var out schedule.WireAvailability
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/schedule/availability",
		query:  url.Values{"date": {date}},
		authed: true,
	}, &out)
	if out.Date == "" {
		out.Date = date
	}
	return out, err
}
