package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/taxpro/internal/core"
	"github.com/JonMunkholm/taxpro/internal/site"
	"github.com/JonMunkholm/taxpro/internal/web/templates"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.page(w, r, http.StatusOK, "home", templates.Page{Nav: "home", Data: s.content})
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	s.page(w, r, http.StatusOK, "services", templates.Page{Title: "Services", Nav: "services", Data: s.content})
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	s.page(w, r, http.StatusOK, "pricing", templates.Page{Title: "Pricing", Nav: "pricing", Data: s.content})
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.page(w, r, http.StatusOK, "about", templates.Page{Title: "About Us", Nav: "about", Data: s.content})
}

type resourcesView struct {
	Query      string
	FAQs       []site.FAQGroup
	Resources  []site.ResourceGroup
	TaxUpdates []site.TaxUpdate
}

// handleResources renders the FAQ and resource links, filtered by ?q=.
func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	s.page(w, r, http.StatusOK, "resources", templates.Page{
		Title: "Resources",
		Nav:   "resources",
		Data: resourcesView{
			Query:      q,
			FAQs:       s.content.SearchFAQs(q),
			Resources:  s.content.Resources,
			TaxUpdates: s.content.TaxUpdates,
		},
	})
}

type blogView struct {
	Listing    site.BlogListing
	Categories []string
	Current    string
}

// blogQuery reads ?category= and ?q= from the request.
func blogQuery(r *http.Request) site.BlogQuery {
	q := r.URL.Query()
	return site.BlogQuery{Category: q.Get("category"), Search: q.Get("q")}
}

func (s *Server) handleBlog(w http.ResponseWriter, r *http.Request) {
	query := blogQuery(r)
	current := query.Category
	if current == "" {
		current = site.AllCategories
	}
	s.page(w, r, http.StatusOK, "blog", templates.Page{
		Title: "Blog",
		Nav:   "blog",
		Data: blogView{
			Listing:    s.content.SearchBlog(query),
			Categories: s.content.BlogCategories(),
			Current:    current,
		},
	})
}

// article resolves {articleID}; unknown or malformed ids are not found.
func (s *Server) article(r *http.Request) (site.Article, error) {
	raw := chi.URLParam(r, "articleID")
	id, err := strconv.Atoi(raw)
	if err == nil {
		if a, ok := s.content.Article(id); ok {
			return a, nil
		}
	}
	return site.Article{}, fmt.Errorf("article %q: %w", raw, core.ErrPageNotFound)
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	a, err := s.article(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	s.page(w, r, http.StatusOK, "article", templates.Page{Title: a.Title, Nav: "blog", Data: a})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
		"uploads":  s.uploads.inFlight(),
	})
}

// Content API

type pricingResponse struct {
	Services       []site.Service       `json:"services"`
	PaymentMethods []site.PaymentMethod `json:"paymentMethods"`
	Notes          site.PricingNotes    `json:"notes"`
}

func (s *Server) handleAPIPricing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, pricingResponse{
		Services:       s.content.Services,
		PaymentMethods: s.content.PaymentMethods,
		Notes:          s.content.PricingNotes,
	})
}

type blogResponse struct {
	Category   string         `json:"category"`
	Search     string         `json:"search"`
	Categories []string       `json:"categories"`
	Featured   []site.Article `json:"featured"`
	Articles   []site.Article `json:"articles"`
}

func (s *Server) handleAPIBlog(w http.ResponseWriter, r *http.Request) {
	listing := s.content.SearchBlog(blogQuery(r))
	resp := blogResponse{
		Category:   listing.Query.Category,
		Search:     listing.Query.Search,
		Categories: s.content.BlogCategories(),
		Featured:   listing.Featured,
		Articles:   listing.Articles,
	}
	if resp.Featured == nil {
		resp.Featured = []site.Article{}
	}
	if resp.Articles == nil {
		resp.Articles = []site.Article{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPIArticle(w http.ResponseWriter, r *http.Request) {
	a, err := s.article(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleAPIFAQs(w http.ResponseWriter, r *http.Request) {
	groups := s.content.SearchFAQs(r.URL.Query().Get("q"))
	if groups == nil {
		groups = []site.FAQGroup{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"faqs": groups})
}

type slotsResponse struct {
	Services []site.AppointmentService `json:"services"`
	Dates    []site.Day                `json:"dates"`
	Times    []string                  `json:"times"`
}

func (s *Server) handleAPISlots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, slotsResponse{
		Services: s.content.Appointments.Services,
		Dates:    s.content.AvailableDates(s.sched.Now()),
		Times:    s.content.TimeSlots(),
	})
}
