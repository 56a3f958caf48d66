package site

import (
	"fmt"
	"strings"
	"time"
)

type Appointments struct {
	FirstHour int                  `yaml:"firstHour" json:"firstHour"`
	LastHour  int                  `yaml:"lastHour" json:"lastHour"`
	DaysAhead int                  `yaml:"daysAhead" json:"daysAhead"`
	Services  []AppointmentService `yaml:"services" json:"services"`
}

type AppointmentService struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Price    string `yaml:"price" json:"price"`
	Duration string `yaml:"duration" json:"duration"`
}

// Day is a bookable date.
type Day struct {
	Value string `json:"value"` // YYYY-MM-DD
	Label string `json:"label"` // e.g. "Mon, Jan 6, 2025"
}

// AvailableDates returns the weekdays among the DaysAhead calendar days after
// today (today itself is never offered).
func (c *Content) AvailableDates(today time.Time) []Day {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	var days []Day
	for i := 1; i <= c.Appointments.DaysAhead; i++ {
		d := start.AddDate(0, 0, i)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, Day{
			Value: d.Format(time.DateOnly),
			Label: d.Format("Mon, Jan 2, 2006"),
		})
	}
	return days
}

// TimeSlots returns the hourly slots from FirstHour to LastHour inclusive,
// formatted HH:00.
func (c *Content) TimeSlots() []string {
	var slots []string
	for h := c.Appointments.FirstHour; h <= c.Appointments.LastHour; h++ {
		slots = append(slots, fmt.Sprintf("%02d:00", h))
	}
	return slots
}

// AppointmentService returns the bookable service with the given id.
func (c *Content) AppointmentService(id string) (AppointmentService, bool) {
	for _, s := range c.Appointments.Services {
		if s.ID == id {
			return s, true
		}
	}
	return AppointmentService{}, false
}

// AppointmentRequest is a submitted booking form.
type AppointmentRequest struct {
	Service   string `json:"service"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
}

// Booking is a confirmed (simulated) appointment.
type Booking struct {
	Request   AppointmentRequest `json:"request"`
	Service   AppointmentService `json:"service"`
	DateLabel string             `json:"dateLabel"`
}

// BookAppointment validates a booking against today's availability and returns
// the confirmation. Every field except message is required; the date must be
// one of AvailableDates(today) and the time one of TimeSlots.
func (c *Content) BookAppointment(r AppointmentRequest, today time.Time) (Booking, error) {
	fe := FieldErrors{}

	svc, ok := c.AppointmentService(strings.TrimSpace(r.Service))
	if !ok {
		fe["service"] = "Choose a service"
	}

	var dateLabel string
	for _, d := range c.AvailableDates(today) {
		if d.Value == strings.TrimSpace(r.Date) {
			dateLabel = d.Label
			break
		}
	}
	if dateLabel == "" {
		fe["date"] = "Choose an available weekday within the next 30 days"
	}
	if !oneOf(strings.TrimSpace(r.Time), c.TimeSlots()) {
		fe["time"] = "Choose an available time"
	}

	fe.required("firstName", r.FirstName, "First name is required")
	fe.required("lastName", r.LastName, "Last name is required")
	fe.email("email", r.Email)
	fe.required("phone", r.Phone, "Phone number is required")
	fe.phone("phone", r.Phone)

	if err := fe.orNil(); err != nil {
		return Booking{}, err
	}
	return Booking{Request: r, Service: svc, DateLabel: dateLabel}, nil
}
