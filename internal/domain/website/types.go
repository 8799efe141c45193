package website

import (
	"errors"

	"github.com/GriffinCanCode/leadform/internal/domain/store"
	"github.com/GriffinCanCode/leadform/internal/shared/types"
)

// ErrInvalidInput marks a request the caller must fix
var ErrInvalidInput = errors.New("invalid input")

// Sort keys accepted by List. The first is the default.
var sortKeys = []string{"createdAt", "updatedAt", "name", "url", "lastScannedAt"}

// CreateInput registers a website
type CreateInput struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// UpdateInput changes a website. Nil fields are left alone.
type UpdateInput struct {
	Name     *string `json:"name"`
	URL      *string `json:"url"`
	IsActive *bool   `json:"isActive"`
}

// DetectInput is either raw HTML or a URL to fetch. HTML wins when both
// are present.
type DetectInput struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

// Query filters a website listing
type Query struct {
	types.ListQuery
	WebsiteID string `form:"websiteId"`
	IsActive  *bool  `form:"isActive"`
}

// Summary is a website with its form and lead counts
type Summary struct {
	store.Website
	FormsDetected int `json:"formsDetected"`
	TotalLeads    int `json:"totalLeads"`
}

// FormSummary is a stored form with its lead count
type FormSummary struct {
	store.WebsiteForm
	LeadCount int `json:"leadCount"`
}
