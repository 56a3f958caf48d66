package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/taxpro/internal/logging"
	"github.com/JonMunkholm/taxpro/internal/site"
	"github.com/JonMunkholm/taxpro/internal/web/templates"
)

// maxFormSize bounds url-encoded form bodies.
const maxFormSize = 64 << 10

// parseForm reads a url-encoded body of bounded size.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", site.ErrInvalidForm, err)
	}
	return nil
}

// formErrors extracts per-field errors, or nil when err is something else.
func formErrors(err error) site.FieldErrors {
	var fe site.FieldErrors
	if errors.As(err, &fe) {
		return fe
	}
	return nil
}

const contactThanks = "Thank you for your message! We'll get back to you within 24 hours."

func (s *Server) contactPage(w http.ResponseWriter, r *http.Request, status int, p templates.Page) {
	p.Title = "Contact"
	p.Nav = "contact"
	p.Data = s.content.Contact
	if p.Form == nil {
		p.Form = site.ContactRequest{}
	}
	s.page(w, r, status, "contact", p)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	s.contactPage(w, r, http.StatusOK, templates.Page{})
}

// handleContactSubmit validates the contact form and simulates sending it.
func (s *Server) handleContactSubmit(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	req := site.ContactRequest{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Phone:   r.PostFormValue("phone"),
		Service: r.PostFormValue("service"),
		Message: r.PostFormValue("message"),
	}.Normalize()

	if err := s.content.ValidateContact(req); err != nil {
		fe := formErrors(err)
		if fe == nil || isHTMX(r) || wantsJSON(r) {
			s.respondError(w, r, err, statusFor(err))
			return
		}
		s.contactPage(w, r, http.StatusUnprocessableEntity, templates.Page{Errors: fe, Form: req})
		return
	}

	if err := simulate(r.Context(), s.cfg.Simulation.ContactDelay); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	logging.FromContext(r.Context()).Info("contact request received",
		"service", req.Service,
		"has_phone", req.Phone != "",
	)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "sent", "message": contactThanks})
		return
	}
	s.contactPage(w, r, http.StatusOK, templates.Page{Notice: contactThanks})
}

type appointmentView struct {
	Services []site.AppointmentService
	Dates    []site.Day
	Times    []string
	Booking  *site.Booking
}

func (s *Server) appointmentPage(w http.ResponseWriter, r *http.Request, status int, p templates.Page, booking *site.Booking) {
	p.Title = "Book an Appointment"
	p.Nav = "appointment"
	p.Data = appointmentView{
		Services: s.content.Appointments.Services,
		Dates:    s.content.AvailableDates(s.sched.Now()),
		Times:    s.content.TimeSlots(),
		Booking:  booking,
	}
	if p.Form == nil {
		p.Form = site.AppointmentRequest{}
	}
	s.page(w, r, status, "appointment", p)
}

func (s *Server) handleAppointment(w http.ResponseWriter, r *http.Request) {
	s.appointmentPage(w, r, http.StatusOK, templates.Page{}, nil)
}

// handleAppointmentSubmit validates a booking against today's availability
// and simulates the request.
func (s *Server) handleAppointmentSubmit(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	req := site.AppointmentRequest{
		Service:   r.PostFormValue("service"),
		Date:      r.PostFormValue("date"),
		Time:      r.PostFormValue("time"),
		FirstName: r.PostFormValue("firstName"),
		LastName:  r.PostFormValue("lastName"),
		Email:     r.PostFormValue("email"),
		Phone:     r.PostFormValue("phone"),
		Message:   r.PostFormValue("message"),
	}

	booking, err := s.content.BookAppointment(req, s.sched.Now())
	if err != nil {
		fe := formErrors(err)
		if fe == nil || isHTMX(r) || wantsJSON(r) {
			s.respondError(w, r, err, statusFor(err))
			return
		}
		s.appointmentPage(w, r, http.StatusUnprocessableEntity, templates.Page{Errors: fe, Form: req}, nil)
		return
	}

	if err := simulate(r.Context(), s.cfg.Simulation.AppointmentDelay); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	logging.FromContext(r.Context()).Info("appointment requested",
		"service", booking.Service.ID,
		"date", req.Date,
		"time", req.Time,
	)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, booking)
		return
	}
	s.appointmentPage(w, r, http.StatusOK, templates.Page{}, &booking)
}
