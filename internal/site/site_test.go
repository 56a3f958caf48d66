package site_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/taxpro/internal/core"
	"github.com/JonMunkholm/taxpro/internal/site"
)

func load(t *testing.T) *site.Content {
	t.Helper()
	c, err := site.Load()
	require.NoError(t, err)
	return c
}

func titles(articles []site.Article) []int {
	ids := make([]int, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestLoad_EmbeddedContent(t *testing.T) {
	c := load(t)

	assert.Len(t, c.Services, 9)
	assert.Len(t, c.Blog.Articles, 8)
	assert.Len(t, c.FAQs, 4)
	assert.Len(t, c.Appointments.Services, 4)
	assert.Len(t, c.Contact.ServiceOptions, 9)
	assert.Equal(t, "John Smith", c.Portal.User.Name)
	assert.Equal(t, "TX-2025-001", c.Portal.User.ClientID)

	svc, ok := c.Service("individual-1040")
	require.True(t, ok)
	assert.True(t, svc.Popular)
	assert.Equal(t, "$150", svc.Price)
}

func TestParse_RejectsBadContent(t *testing.T) {
	_, err := site.Parse([]byte("blog: ["))
	assert.Error(t, err)

	_, err = site.Parse([]byte(`
appointments: {firstHour: 9, lastHour: 17, daysAhead: 30}
blog:
  articles:
    - {id: 1, publishDate: "2025-01-01"}
    - {id: 1, publishDate: "2025-01-02"}
`))
	assert.ErrorContains(t, err, "duplicate blog article id 1")

	_, err = site.Parse([]byte(`appointments: {firstHour: 18, lastHour: 9, daysAhead: 30}`))
	assert.ErrorContains(t, err, "appointment hours")
}

func TestSearchBlog_Unfiltered(t *testing.T) {
	c := load(t)

	listing := c.SearchBlog(site.BlogQuery{})
	assert.True(t, listing.Query.Unfiltered())
	assert.Equal(t, []int{1, 2}, titles(listing.Featured))
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8}, titles(listing.Articles))

	listing = c.SearchBlog(site.BlogQuery{Category: site.AllCategories, Search: "   "})
	assert.Len(t, listing.Featured, 2)
}

func TestSearchBlog_Filters(t *testing.T) {
	c := load(t)

	tests := []struct {
		name  string
		query site.BlogQuery
		want  []int
	}{
		{"category", site.BlogQuery{Category: "International Tax"}, []int{3, 5}},
		{"category includes featured", site.BlogQuery{Category: "Tax Deadlines"}, []int{1}},
		{"search title case-insensitive", site.BlogQuery{Search: "fbar"}, []int{3}},
		{"search excerpt", site.BlogQuery{Search: "overlooked"}, []int{6}},
		{"search tag", site.BlogQuery{Search: "self-employed"}, []int{8}},
		{"search and category", site.BlogQuery{Category: "Tax Preparation", Search: "itin"}, []int{4}},
		{"search ignores content body", site.BlogQuery{Search: "substantial presence"}, []int{}},
		{"unknown category", site.BlogQuery{Category: "Crypto"}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing := c.SearchBlog(tt.query)
			assert.Empty(t, listing.Featured)
			assert.Equal(t, tt.want, titles(listing.Articles))
		})
	}
}

func TestArticle(t *testing.T) {
	c := load(t)

	a, ok := c.Article(3)
	require.True(t, ok)
	assert.Equal(t, "Michael Chen, CPA", a.Author)
	assert.Equal(t, "Jan 5, 2025", a.PublishedLabel())

	_, ok = c.Article(99)
	assert.False(t, ok)

	assert.Equal(t, "All", c.BlogCategories()[0])
	assert.Len(t, c.BlogCategories(), 7)
}

func TestSearchFAQs(t *testing.T) {
	c := load(t)

	assert.Len(t, c.SearchFAQs(""), 4)

	groups := c.SearchFAQs("ITIN")
	require.Len(t, groups, 1)
	assert.Equal(t, "Nonresident Tax Issues", groups[0].Category)
	assert.Len(t, groups[0].Questions, 1)

	groups = c.SearchFAQs("fatca")
	require.Len(t, groups, 1)
	assert.Equal(t, "FBAR & International Reporting", groups[0].Category)

	assert.Empty(t, c.SearchFAQs("cryptocurrency"))
}

func TestAvailableDates(t *testing.T) {
	c := load(t)
	friday := time.Date(2025, time.January, 3, 15, 0, 0, 0, time.UTC)

	days := c.AvailableDates(friday)

	require.NotEmpty(t, days)
	assert.Equal(t, "2025-01-06", days[0].Value, "weekend after Friday is skipped")
	assert.Equal(t, "Mon, Jan 6, 2025", days[0].Label)
	assert.Equal(t, "2025-01-31", days[len(days)-1].Value)
	assert.Len(t, days, 20)
	for _, d := range days {
		parsed, err := time.Parse(time.DateOnly, d.Value)
		require.NoError(t, err)
		assert.NotEqual(t, time.Saturday, parsed.Weekday())
		assert.NotEqual(t, time.Sunday, parsed.Weekday())
		assert.NotEqual(t, "2025-01-03", d.Value, "today is never offered")
	}
}

func TestTimeSlots(t *testing.T) {
	c := load(t)

	slots := c.TimeSlots()
	assert.Len(t, slots, 9)
	assert.Equal(t, "09:00", slots[0])
	assert.Equal(t, "17:00", slots[8])
}

func TestBookAppointment(t *testing.T) {
	c := load(t)
	today := time.Date(2025, time.January, 3, 9, 0, 0, 0, time.UTC)

	req := site.AppointmentRequest{
		Service:   "tax-review",
		Date:      "2025-01-07",
		Time:      "10:00",
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Phone:     "(555) 987-6543",
	}

	booking, err := c.BookAppointment(req, today)
	require.NoError(t, err)
	assert.Equal(t, "60-min Tax Review", booking.Service.Name)
	assert.Equal(t, "Tue, Jan 7, 2025", booking.DateLabel)

	bad := req
	bad.Service = "massage"
	bad.Date = "2025-01-04" // Saturday
	bad.Time = "18:00"
	bad.Email = "not-an-email"
	bad.Phone = ""
	bad.FirstName = " "

	_, err = c.BookAppointment(bad, today)
	require.Error(t, err)
	assert.ErrorIs(t, err, site.ErrInvalidForm)

	var fe site.FieldErrors
	require.ErrorAs(t, err, &fe)
	for _, field := range []string{"service", "date", "time", "email", "phone", "firstName"} {
		assert.True(t, fe.Has(field), field)
	}
	assert.False(t, fe.Has("lastName"))
	assert.Equal(t, "FORM001", core.MapError(err).Code)
}

func TestValidateContact(t *testing.T) {
	c := load(t)

	ok := site.ContactRequest{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Service: "FBAR & FATCA Filing",
		Message: "I have accounts abroad.",
	}
	assert.NoError(t, c.ValidateContact(ok))

	withPhone := ok
	withPhone.Phone = "+1 555 123 4567"
	assert.NoError(t, c.ValidateContact(withPhone))

	tests := []struct {
		name   string
		mutate func(*site.ContactRequest)
		field  string
	}{
		{"missing name", func(r *site.ContactRequest) { r.Name = "" }, "name"},
		{"bad email", func(r *site.ContactRequest) { r.Email = "jane@" }, "email"},
		{"display-name email", func(r *site.ContactRequest) { r.Email = "Jane <jane@example.com>" }, "email"},
		{"short phone", func(r *site.ContactRequest) { r.Phone = "555-1234" }, "phone"},
		{"letters in phone", func(r *site.ContactRequest) { r.Phone = "call me maybe" }, "phone"},
		{"missing service", func(r *site.ContactRequest) { r.Service = "" }, "service"},
		{"unknown service", func(r *site.ContactRequest) { r.Service = "Audit" }, "service"},
		{"missing message", func(r *site.ContactRequest) { r.Message = "  " }, "message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ok
			tt.mutate(&r)

			err := c.ValidateContact(r)
			var fe site.FieldErrors
			require.ErrorAs(t, err, &fe)
			assert.True(t, fe.Has(tt.field), "want error on %s, got %v", tt.field, fe)
			assert.Len(t, fe, 1)
		})
	}
}

func TestFieldErrors_Error(t *testing.T) {
	fe := site.FieldErrors{"phone": "x", "email": "y"}
	assert.Equal(t, "invalid form input: email, phone", fe.Error())
}

func TestPortalData(t *testing.T) {
	c := load(t)

	assert.Equal(t, 1, c.Portal.UnreadMessages())
	assert.Equal(t, "$0", c.Portal.BalanceDue())

	doc, ok := c.Portal.Document("W2_2024_Form.pdf")
	require.True(t, ok)
	assert.Equal(t, "Processed", doc.Status)

	doc, ok = c.Portal.DocumentByID(3)
	require.True(t, ok)
	assert.Equal(t, "Tax_Return_2024.pdf", doc.Name)

	_, ok = c.Portal.DocumentByID(42)
	assert.False(t, ok)
}
