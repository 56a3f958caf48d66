package site

// PortalData is the mock client account shown after sign-in.
type PortalData struct {
	User      PortalUser `yaml:"user" json:"user"`
	Project   Project    `yaml:"project" json:"project"`
	Activity  []Activity `yaml:"activity" json:"activity"`
	Documents []Document `yaml:"documents" json:"documents"`
	Messages  []Message  `yaml:"messages" json:"messages"`
	Invoices  []Invoice  `yaml:"invoices" json:"invoices"`
}

type PortalUser struct {
	Name     string `yaml:"name" json:"name"`
	Email    string `yaml:"email" json:"email"`
	ClientID string `yaml:"clientId" json:"clientId"`
	JoinDate string `yaml:"joinDate" json:"joinDate"`
}

type Project struct {
	Name    string        `yaml:"name" json:"name"`
	Percent int           `yaml:"percent" json:"percent"`
	Steps   []ProjectStep `yaml:"steps" json:"steps"`
}

type ProjectStep struct {
	Name string `yaml:"name" json:"name"`
	Done bool   `yaml:"done" json:"done"`
}

type Activity struct {
	Title string `yaml:"title" json:"title"`
	Date  string `yaml:"date" json:"date"`
	Kind  string `yaml:"kind" json:"kind"`
}

type Document struct {
	ID         int    `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	Type       string `yaml:"type" json:"type"`
	UploadDate string `yaml:"uploadDate" json:"uploadDate"`
	Status     string `yaml:"status" json:"status"`
}

type Message struct {
	ID      int    `yaml:"id" json:"id"`
	From    string `yaml:"from" json:"from"`
	Message string `yaml:"message" json:"message"`
	Date    string `yaml:"date" json:"date"`
	Read    bool   `yaml:"read" json:"read"`
}

type Invoice struct {
	ID      int    `yaml:"id" json:"id"`
	Service string `yaml:"service" json:"service"`
	Amount  string `yaml:"amount" json:"amount"`
	Date    string `yaml:"date" json:"date"`
	Status  string `yaml:"status" json:"status"`
}

// UnreadMessages counts messages not yet read.
func (p PortalData) UnreadMessages() int {
	n := 0
	for _, m := range p.Messages {
		if !m.Read {
			n++
		}
	}
	return n
}

// BalanceDue returns the amount of the first unpaid invoice, or "$0".
func (p PortalData) BalanceDue() string {
	for _, inv := range p.Invoices {
		if inv.Status != "Paid" {
			return inv.Amount
		}
	}
	return "$0"
}

// Document returns the seed document with the given name.
func (p PortalData) Document(name string) (Document, bool) {
	for _, d := range p.Documents {
		if d.Name == name {
			return d, true
		}
	}
	return Document{}, false
}

// DocumentByID returns the seed document with the given id.
func (p PortalData) DocumentByID(id int) (Document, bool) {
	for _, d := range p.Documents {
		if d.ID == id {
			return d, true
		}
	}
	return Document{}, false
}
