package domain

import "time"

// Book categories offered by the store.
const (
	CategoryBusiness    = "business"
	CategoryDevelopment = "development"
	CategoryFinance     = "finance"
	CategoryMarketing   = "marketing"
	CategoryMotivation  = "motivation"
	CategoryOther       = "other"
)

// ValidCategories returns all valid book categories.
func ValidCategories() []string {
	return []string{
		CategoryBusiness,
		CategoryDevelopment,
		CategoryFinance,
		CategoryMarketing,
		CategoryMotivation,
		CategoryOther,
	}
}

// IsValidCategory checks whether the given category is valid.
func IsValidCategory(category string) bool {
	for _, c := range ValidCategories() {
		if c == category {
			return true
		}
	}
	return false
}

// FileRef points at a stored blob (cover image or PDF).
type FileRef struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	OriginalName string `json:"original_name,omitempty"`
	Size         int64  `json:"size,omitempty"`
}

// Book is a digital book offered for sale.
type Book struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"short_description,omitempty"`
	Author           string    `json:"author"`
	Category         string    `json:"category"`
	Price            float64   `json:"price"`
	CoverImage       FileRef   `json:"cover_image"`
	PDFFile          FileRef   `json:"pdf_file"`
	IsActive         bool      `json:"is_active"`
	PurchaseCount    int       `json:"purchase_count"`
	ViewCount        int       `json:"view_count"`
	Tags             []string  `json:"tags,omitempty"`
	AddedBy          string    `json:"added_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// BookFilter narrows catalog listings.
type BookFilter struct {
	Category   string
	Search     string
	SortBy     string
	SortOrder  string
	ActiveOnly bool
	IsActive   *bool
}
