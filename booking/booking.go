// Package booking is the client-facing side: a business's public page,
// its services, bookable slots for a date and the booking submission.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"booking-miniapp/apiclient"
	"booking-miniapp/schedule"
	"booking-miniapp/utils"
)

var (
	ErrInvalidSlug     = errors.New("invalid booking link")
	ErrPastDate        = errors.New("date is in the past")
	ErrServiceNotFound = errors.New("service not found")
	ErrSlotUnavailable = errors.New("selected time is not available")
)

// API is the public part of the booking REST API.
type API interface {
	PublicProfile(ctx context.Context, slug string) (apiclient.PublicProfile, error)
	PublicServices(ctx context.Context, slug string) ([]apiclient.Service, error)
	PublicAvailability(ctx context.Context, slug, date string) (schedule.WireAvailability, error)
	Book(ctx context.Context, slug string, req apiclient.BookingRequest) (apiclient.BookingConfirmation, error)
}

type Option func(*Flow)

// WithLocation sets the business's time zone, used for "today" and for
// booked timestamps that carry no offset.
func WithLocation(loc *time.Location) Option {
	return func(f *Flow) {
		if loc != nil {
			f.loc = loc
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Flow) { f.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

type Flow struct {
	api      API
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
	validate *validator.Validate
}

func New(api API, opts ...Option) *Flow {
	f := &Flow{
		api:      api,
		loc:      time.UTC,
		logger:   zap.NewNop(),
		now:      time.Now,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ValidateSlug rejects empty slugs and the path segments a mis-routed page
// would produce.
func ValidateSlug(slug string) error {
	slug = strings.TrimSpace(slug)
	if slug == "" || slug == "booking" || slug == "index.html" || strings.Contains(slug, "/") {
		return ErrInvalidSlug
	}
	return nil
}

type Page struct {
	Profile  apiclient.PublicProfile `json:"profile"`
	Services []apiclient.Service     `json:"services"`
}

// Page loads the business profile and its active services.
func (f *Flow) Page(ctx context.Context, slug string) (Page, error) {
	if err := ValidateSlug(slug); err != nil {
		return Page{}, err
	}
	profile, err := f.api.PublicProfile(ctx, slug)
	if err != nil {
		return Page{}, err
	}
	services, err := f.activeServices(ctx, slug)
	if err != nil {
		return Page{}, err
	}
	return Page{Profile: profile, Services: services}, nil
}

func (f *Flow) activeServices(ctx context.Context, slug string) ([]apiclient.Service, error) {
	all, err := f.api.PublicServices(ctx, slug)
	if err != nil {
		return nil, err
	}
	active := make([]apiclient.Service, 0, len(all))
	for _, s := range all {
		if s.IsActive {
			active = append(active, s)
		}
	}
	return active, nil
}

// Slots is the slot picker for one service on one date.
type Slots struct {
	Date    string
	Service apiclient.Service
	Message string
	schedule.SlotResult
}

// Slots generates the slot list for a service on a date.
func (f *Flow) Slots(ctx context.Context, slug string, serviceID int64, date string) (Slots, error) {
	if err := ValidateSlug(slug); err != nil {
		return Slots{}, err
	}
	if err := f.checkDate(date); err != nil {
		return Slots{}, err
	}
	services, err := f.activeServices(ctx, slug)
	if err != nil {
		return Slots{}, err
	}
	svc, ok := findService(services, serviceID)
	if !ok {
		return Slots{}, ErrServiceNotFound
	}

	wire, err := f.api.PublicAvailability(ctx, slug, date)
	if err != nil {
		return Slots{}, err
	}
	av, err := schedule.AvailabilityFromWire(wire, f.loc)
	if err != nil {
		return Slots{}, fmt.Errorf("decode availability: %w", err)
	}
	res := schedule.GenerateSlots(av.Config, svc.DurationMinutes, av.Booked, av.Date, f.loc)
	return Slots{Date: date, Service: svc, Message: av.Message, SlotResult: res}, nil
}

// Submission is the client's booking form.
type Submission struct {
	ServiceID int64  `json:"service_id" validate:"required,gt=0"`
	Date      string `json:"date" validate:"required"`
	Time      string `json:"time" validate:"required"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Phone     string `json:"phone" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Notes     string `json:"notes" validate:"max=1000"`
}

// Submit books the chosen slot. The time must be one of the generated,
// non-booked slots for that date; the slot list is recomputed from fresh
// availability rather than trusted from the client.
func (f *Flow) Submit(ctx context.Context, slug string, sub Submission) (apiclient.BookingConfirmation, error) {
	sub.FirstName = strings.TrimSpace(sub.FirstName)
	sub.LastName = strings.TrimSpace(sub.LastName)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Notes = strings.TrimSpace(sub.Notes)
	if err := f.validate.Struct(sub); err != nil {
		return apiclient.BookingConfirmation{}, err
	}
	phone, err := utils.NormalizePhone(sub.Phone)
	if err != nil {
		return apiclient.BookingConfirmation{}, err
	}
	start, err := schedule.ParseTime(sub.Time)
	if err != nil {
		return apiclient.BookingConfirmation{}, err
	}

	slots, err := f.Slots(ctx, slug, sub.ServiceID, sub.Date)
	if err != nil {
		return apiclient.BookingConfirmation{}, err
	}
	if !offered(slots.Slots, start) {
		return apiclient.BookingConfirmation{}, ErrSlotUnavailable
	}

	req := apiclient.BookingRequest{
		ServiceID:       sub.ServiceID,
		ClientFirstName: sub.FirstName,
		ClientLastName:  sub.LastName,
		ClientPhone:     phone,
		ClientEmail:     sub.Email,
		AppointmentDate: sub.Date + "T" + schedule.FormatTime(start) + ":00",
		ClientNotes:     sub.Notes,
	}
	conf, err := f.api.Book(ctx, slug, req)
	if err != nil {
		f.logger.Warn("booking failed", zap.String("slug", slug), zap.String("at", req.AppointmentDate), zap.Error(err))
		return apiclient.BookingConfirmation{}, err
	}
	f.logger.Info("booking created",
		zap.String("slug", slug),
		zap.Int64("appointment_id", conf.Appointment.ID),
		zap.String("at", req.AppointmentDate),
	)
	return conf, nil
}

// checkDate rejects malformed dates and dates before today in the business's zone.
func (f *Flow) checkDate(date string) error {
	d, err := schedule.ParseDate(date)
	if err != nil {
		return err
	}
	today := schedule.FormatDate(f.now().In(f.loc))
	if schedule.FormatDate(d) < today {
		return ErrPastDate
	}
	return nil
}

func findService(services []apiclient.Service, id int64) (apiclient.Service, bool) {
	for _, s := range services {
		if s.ID == id {
			return s, true
		}
	}
	return apiclient.Service{}, false
}

func offered(slots []schedule.Slot, t schedule.Minutes) bool {
	for _, s := range slots {
		if s.Time == t && !s.Booked {
			return true
		}
	}
	return false
}
