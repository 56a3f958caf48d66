package site

import "time"

// AllCategories selects every blog category.
const AllCategories = "All"

type Blog struct {
	Categories []string  `yaml:"categories" json:"categories"`
	Articles   []Article `yaml:"articles" json:"articles"`
}

type Article struct {
	ID          int      `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Excerpt     string   `yaml:"excerpt" json:"excerpt"`
	Content     string   `yaml:"content" json:"content"`
	Author      string   `yaml:"author" json:"author"`
	PublishDate string   `yaml:"publishDate" json:"publishDate"`
	ReadTime    string   `yaml:"readTime" json:"readTime"`
	Category    string   `yaml:"category" json:"category"`
	Tags        []string `yaml:"tags" json:"tags"`
	Featured    bool     `yaml:"featured" json:"featured"`
}

// Published parses PublishDate (YYYY-MM-DD).
func (a Article) Published() (time.Time, error) {
	return time.Parse(time.DateOnly, a.PublishDate)
}

// PublishedLabel formats the publish date for display, e.g. "Jan 15, 2025".
func (a Article) PublishedLabel() string {
	t, err := a.Published()
	if err != nil {
		return a.PublishDate
	}
	return t.Format("Jan 2, 2006")
}

func (a Article) matches(term string) bool {
	if contains(a.Title, term) || contains(a.Excerpt, term) {
		return true
	}
	for _, tag := range a.Tags {
		if contains(tag, term) {
			return true
		}
	}
	return false
}

// BlogQuery filters the article list.
type BlogQuery struct {
	Category string // "" or AllCategories for every category
	Search   string // substring of title, excerpt or any tag
}

func (q BlogQuery) allCategories() bool {
	return q.Category == "" || q.Category == AllCategories
}

// Unfiltered reports whether the query selects the plain listing, the only
// view that shows the featured section.
func (q BlogQuery) Unfiltered() bool {
	return q.allCategories() && normalizeTerm(q.Search) == ""
}

// BlogListing is the result of a blog query.
type BlogListing struct {
	Query    BlogQuery
	Featured []Article // only for unfiltered queries
	Articles []Article
}

// BlogCategories returns the filter options, AllCategories first.
func (c *Content) BlogCategories() []string {
	return append([]string{AllCategories}, c.Blog.Categories...)
}

// SearchBlog filters articles by exact category and case-insensitive search
// term, keeping fixture order. The unfiltered listing moves featured
// articles to their own section; any filter lists every match.
func (c *Content) SearchBlog(q BlogQuery) BlogListing {
	term := normalizeTerm(q.Search)
	out := BlogListing{Query: q, Articles: []Article{}}

	for _, a := range c.Blog.Articles {
		if !q.allCategories() && a.Category != q.Category {
			continue
		}
		if !a.matches(term) {
			continue
		}
		if q.Unfiltered() && a.Featured {
			out.Featured = append(out.Featured, a)
			continue
		}
		out.Articles = append(out.Articles, a)
	}
	return out
}

// Article returns the article with the given id.
func (c *Content) Article(id int) (Article, bool) {
	for _, a := range c.Blog.Articles {
		if a.ID == id {
			return a, true
		}
	}
	return Article{}, false
}
