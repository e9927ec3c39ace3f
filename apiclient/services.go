package apiclient

import (
	"context"
	"net/http"
	"strconv"
)

type Service struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
	Color           string  `json:"color"`
	IsActive        bool    `json:"is_active"`
}

// ServiceInput is used for both create and update; on update nil fields are left unchanged.
type ServiceInput struct {
	Name            *string  `json:"name,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
	Color           *string  `json:"color,omitempty"`
	IsActive        *bool    `json:"is_active,omitempty"`
}

type serviceList struct {
	Services []Service `json:"services"`
	Total    int       `json:"total"`
}

func servicePath(id int64) string {
	return "/api/services/" + strconv.FormatInt(id, 10)
}

func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	var out serviceList
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/services/", authed: true}, &out)
	if out.Services == nil {
		out.Services = []Service{}
	}
	return out.Services, err
}

func (c *Client) GetService(ctx context.Context, id int64) (Service, error) {
	var s Service
	err := c.do(ctx, request{method: http.MethodGet, path: servicePath(id), authed: true}, &s)
	return s, err
}

func (c *Client) CreateService(ctx context.Context, in ServiceInput) (Service, error) {
	var s Service
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/services/", body: in, authed: true}, &s)
	return s, err
}

func (c *Client) UpdateService(ctx context.Context, id int64, in ServiceInput) (Service, error) {
	var s Service
	err := c.do(ctx, request{method: http.MethodPut, path: servicePath(id), body: in, authed: true}, &s)
	return s, err
}

func (c *Client) DeleteService(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: servicePath(id), authed: true}, nil)
}
