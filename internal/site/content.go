// Package site holds the website's hardcoded content as fixture data.
//
// Content is parsed once from an embedded YAML document and handed to the web
// server at construction. Nothing in this package is mutable after Load.
package site

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultContent []byte

// Content is every piece of static data the site renders.
type Content struct {
	Business           Business        `yaml:"business" json:"business"`
	Highlights         []Feature       `yaml:"highlights" json:"highlights"`
	Stats              []Stat          `yaml:"stats" json:"stats"`
	Team               []TeamMember    `yaml:"team" json:"team"`
	Values             []Feature       `yaml:"values" json:"values"`
	Services           []Service       `yaml:"services" json:"services"`
	AdditionalServices []Feature       `yaml:"additionalServices" json:"additionalServices"`
	Process            []Feature       `yaml:"process" json:"process"`
	PaymentMethods     []PaymentMethod `yaml:"paymentMethods" json:"paymentMethods"`
	PricingNotes       PricingNotes    `yaml:"pricingNotes" json:"pricingNotes"`
	Blog               Blog            `yaml:"blog" json:"blog"`
	FAQs               []FAQGroup      `yaml:"faqs" json:"faqs"`
	Resources          []ResourceGroup `yaml:"resources" json:"resources"`
	TaxUpdates         []TaxUpdate     `yaml:"taxUpdates" json:"taxUpdates"`
	Contact            ContactInfo     `yaml:"contact" json:"contact"`
	Appointments       Appointments    `yaml:"appointments" json:"appointments"`
	Portal             PortalData      `yaml:"portal" json:"portal"`
}

type Business struct {
	Name    string        `yaml:"name" json:"name"`
	Tagline string        `yaml:"tagline" json:"tagline"`
	Phone   string        `yaml:"phone" json:"phone"`
	Email   string        `yaml:"email" json:"email"`
	Hours   []OfficeHours `yaml:"hours" json:"hours"`
}

type OfficeHours struct {
	Days  string `yaml:"days" json:"days"`
	Hours string `yaml:"hours" json:"hours"`
}

// Feature is a titled blurb (highlights, values, process steps).
type Feature struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

type Stat struct {
	Number string `yaml:"number" json:"number"`
	Label  string `yaml:"label" json:"label"`
}

type TeamMember struct {
	Name        string   `yaml:"name" json:"name"`
	Role        string   `yaml:"role" json:"role"`
	Experience  string   `yaml:"experience" json:"experience"`
	Specialties []string `yaml:"specialties" json:"specialties"`
}

// Service is one priced offering.
type Service struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Price       string   `yaml:"price" json:"price"`
	Category    string   `yaml:"category" json:"category"`
	Popular     bool     `yaml:"popular" json:"popular"`
	Features    []string `yaml:"features" json:"features"`
}

type PaymentMethod struct {
	Method      string `yaml:"method" json:"method"`
	Description string `yaml:"description" json:"description"`
}

type PricingNotes struct {
	PaymentDue  string `yaml:"paymentDue" json:"paymentDue"`
	ContactInfo string `yaml:"contactInfo" json:"contactInfo"`
	Email       string `yaml:"email" json:"email"`
	Phone       string `yaml:"phone" json:"phone"`
}

type FAQGroup struct {
	Category  string `yaml:"category" json:"category"`
	Questions []FAQ  `yaml:"questions" json:"questions"`
}

type FAQ struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

type ResourceGroup struct {
	Title string         `yaml:"title" json:"title"`
	Items []ResourceLink `yaml:"items" json:"items"`
}

type ResourceLink struct {
	Name     string `yaml:"name" json:"name"`
	Link     string `yaml:"link" json:"link"`
	External bool   `yaml:"external" json:"external"`
}

type TaxUpdate struct {
	Date        string `yaml:"date" json:"date"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Type        string `yaml:"type" json:"type"`
	Priority    string `yaml:"priority" json:"priority"`
}

type ContactInfo struct {
	Methods        []ContactMethod `yaml:"methods" json:"methods"`
	ServiceOptions []string        `yaml:"serviceOptions" json:"serviceOptions"`
}

type ContactMethod struct {
	Title       string `yaml:"title" json:"title"`
	Detail      string `yaml:"detail" json:"detail"`
	Description string `yaml:"description" json:"description"`
	Action      string `yaml:"action" json:"action"`
}

// Load parses the embedded content.
func Load() (*Content, error) {
	return Parse(defaultContent)
}

// Parse decodes and checks a content document.
func Parse(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse site content: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid site content: %w", err)
	}
	return &c, nil
}

func (c *Content) validate() error {
	seen := make(map[int]bool, len(c.Blog.Articles))
	for _, a := range c.Blog.Articles {
		if seen[a.ID] {
			return fmt.Errorf("duplicate blog article id %d", a.ID)
		}
		seen[a.ID] = true
		if _, err := a.Published(); err != nil {
			return fmt.Errorf("blog article %d: %w", a.ID, err)
		}
	}

	services := make(map[string]bool, len(c.Appointments.Services))
	for _, s := range c.Appointments.Services {
		if services[s.ID] {
			return fmt.Errorf("duplicate appointment service %q", s.ID)
		}
		services[s.ID] = true
	}

	a := c.Appointments
	if a.FirstHour < 0 || a.LastHour > 23 || a.FirstHour > a.LastHour {
		return fmt.Errorf("appointment hours %d-%d out of range", a.FirstHour, a.LastHour)
	}
	if a.DaysAhead <= 0 {
		return fmt.Errorf("appointment daysAhead must be positive, got %d", a.DaysAhead)
	}
	return nil
}

// Service returns the priced service with the given id.
func (c *Content) Service(id string) (Service, bool) {
	for _, s := range c.Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}
