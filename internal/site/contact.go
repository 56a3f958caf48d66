package site

import "strings"

// ContactRequest is a submitted contact form.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Message string `json:"message"`
}

// Normalize trims surrounding whitespace from every field.
func (r ContactRequest) Normalize() ContactRequest {
	return ContactRequest{
		Name:    strings.TrimSpace(r.Name),
		Email:   strings.TrimSpace(r.Email),
		Phone:   strings.TrimSpace(r.Phone),
		Service: strings.TrimSpace(r.Service),
		Message: strings.TrimSpace(r.Message),
	}
}

// ValidateContact checks a contact form. Name, email, service and message are
// required; phone is optional but must look like a phone number when given.
func (c *Content) ValidateContact(r ContactRequest) error {
	fe := FieldErrors{}
	fe.required("name", r.Name, "Full name is required")
	fe.email("email", r.Email)
	fe.phone("phone", r.Phone)
	fe.required("message", r.Message, "Tell us how we can help")

	switch {
	case strings.TrimSpace(r.Service) == "":
		fe["service"] = "Choose the service you are interested in"
	case !oneOf(strings.TrimSpace(r.Service), c.Contact.ServiceOptions):
		fe["service"] = "Choose a service from the list"
	}
	return fe.orNil()
}
