// Package scraping defines core types shared across subsystems.
package scraping

import "time"

// Role identifies the privilege level of a user.
type Role string

// Roles recognized by the service.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the directory record the pipeline reads for authorization
// checks and mutates (allow-list only) on request approval.
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Role            Role      `json:"role"`
	Interests       []string  `json:"interests"`
	AllowedWebsites []string  `json:"allowed_websites"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}

// AllowsWebsite reports whether url is on the user's allow-list.
func (u User) AllowsWebsite(url string) bool {
	for _, w := range u.AllowedWebsites {
		if w == url {
			return true
		}
	}
	return false
}

// RequestStatus is the lifecycle state of an access request.
type RequestStatus string

// Access request states. Approved and rejected are terminal; the record
// is deleted once decided.
const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// AccessRequest is a user's petition to scrape a website, held pending
// until an admin decides it.
type AccessRequest struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	WebsiteURL  string        `json:"website_url"`
	Status      RequestStatus `json:"status"`
	RequestedAt time.Time     `json:"requested_at"`
	DecidedBy   string        `json:"decided_by,omitempty"`
	DecidedAt   *time.Time    `json:"decided_at,omitempty"`
}

// JobDescriptor is the job handed to the external scraping agent. It
// lives only inside the exchange queue and is consumed on retrieval.
type JobDescriptor struct {
	RequestID   string    `json:"request_id"`
	UserID      string    `json:"user_id"`
	WebsiteURLs []string  `json:"website_urls"`
	Keywords    []string  `json:"keywords"`
	Payload     []byte    `json:"payload"`
	CreatedAt   time.Time `json:"created_at"`
}

// RawScrapeRecord is the untyped-by-origin output of the scraping agent,
// bound to explicit optional fields at the protocol boundary. URL,
// Keyword and Content are required; everything else is best effort.
type RawScrapeRecord struct {
	URL            string `json:"url"`
	Keyword        string `json:"keyword"`
	Title          string `json:"title"`
	Authors        string `json:"authors"`
	Date           string `json:"date"`
	Content        string `json:"content"`
	CharacterCount int    `json:"character_count"`
	RequestID      string `json:"request_id"`
	UserID         string `json:"user_id"`
}

// ResultFields is the normalized field block of a result.
type ResultFields struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	Date           string `json:"date"`
	Authors        string `json:"authors"`
	CharacterCount int    `json:"character_count"`
	DateValid      bool   `json:"date_valid"`
}

// Result is a stored scrape result. The authoritative store holds the
// raw-shaped record as submitted; the mirror holds the canonical form
// produced by the ETL transformer, where WebsiteURLs carries bare
// domains rather than full URLs.
type Result struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	RequestID   string       `json:"request_id,omitempty"`
	WebsiteURLs []string     `json:"website_urls"`
	Keywords    []string     `json:"keywords"`
	Fields      ResultFields `json:"results"`
	ScrapedAt   time.Time    `json:"scraped_at"`
}

// ResultCreate is the flattened public write shape accepted from the
// agent-facing API. The persistence coordinator adapts it to a
// RawScrapeRecord before running the transformer.
type ResultCreate struct {
	WebsiteURLs []string     `json:"website_urls"`
	Keywords    []string     `json:"keywords"`
	Fields      ResultFields `json:"results"`
	RequestID   string       `json:"request_id,omitempty"`
}

// UserCreate carries the fields needed to register a user. Credential
// material is handled by the external identity collaborator, not here.
type UserCreate struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}
