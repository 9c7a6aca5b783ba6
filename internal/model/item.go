package model

import "time"

// Item is a gear listing.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url"`
	Status      string    `json:"status"`
	OwnerID     string    `json:"owner_id"`
	Views       int       `json:"views"`
	CreatedAt   time.Time `json:"created_at,omitzero"`

	// Joined from profiles (feed only).
	Lender *Lender `json:"profiles,omitempty"`
}

// Lender is the subset of the owner's profile shown on feed cards.
type Lender struct {
	FullName   string `json:"full_name"`
	Department string `json:"department"`
}

// LenderName returns the owner's display name, or "" when not joined.
func (i Item) LenderName() string {
	if i.Lender == nil {
		return ""
	}
	return i.Lender.FullName
}

// NewItem is the row written when publishing a listing.
type NewItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
	OwnerID     string `json:"owner_id"`
	Status      string `json:"status"`
	Views       int    `json:"views"`
}

// Item statuses. Borrowed is set outside this application.
const (
	ItemStatusAvailable = "available"
	ItemStatusBorrowed  = "borrowed"
	ItemStatusDelisted  = "delisted"
)

// CategoryAll is the feed filter wildcard.
const CategoryAll = "All"

// DefaultCategory is preselected on the listing form.
const DefaultCategory = "Lab Equipment"

// Categories is the fixed set of listing categories, in display order.
var Categories = []string{
	"Lab Equipment",
	"Textbooks",
	"Electronics",
	"Sports Gear",
	"Art Supplies",
}

// IsCategory reports whether c is one of Categories.
func IsCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
