package lead

import (
	"errors"

	"github.com/GriffinCanCode/leadform/internal/shared/types"
)

var (
	// ErrInvalidInput marks a request the caller must fix
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidSecret is returned when a website ID and secret key do not match
	ErrInvalidSecret = errors.New("invalid website or secret key")

	// ErrWebsiteInactive is returned for leads aimed at a disabled website
	ErrWebsiteInactive = errors.New("website is not active")

	// ErrSecretExpired is returned when a website's secret key is past its TTL
	ErrSecretExpired = errors.New("secret key expired")

	// ErrFormNotFound is returned when no stored form of the website has the given name
	ErrFormNotFound = errors.New("form not found for this website")
)

// Sort keys accepted by List. The first is the default.
var sortKeys = []string{"createdAt", "updatedAt"}

// Channel names used in metrics
const (
	ChannelCollect   = "collect"
	ChannelDashboard = "dashboard"
)

// CollectInput is a public submission authenticated by the website secret
type CollectInput struct {
	WebsiteID string         `json:"websiteId"`
	SecretKey string         `json:"secretKey"`
	FormName  string         `json:"formName"`
	Fields    map[string]any `json:"fields"`
	Meta      map[string]any `json:"meta"`
}

// CreateInput is a dashboard submission
type CreateInput struct {
	WebsiteID string         `json:"websiteId"`
	FormName  string         `json:"formName"`
	Fields    map[string]any `json:"fields"`
	Meta      map[string]any `json:"meta"`
}

// UpdateInput changes a lead. Nil fields are left alone.
type UpdateInput struct {
	WebsiteID *string        `json:"websiteId"`
	FormName  *string        `json:"formName"`
	Fields    map[string]any `json:"fields"`
	Meta      map[string]any `json:"meta"`
}

// Query filters a lead listing. Search matches the value of the data key
// named by Field, or any data value when Field is empty.
type Query struct {
	types.ListQuery
	Field     string `form:"field"`
	WebsiteID string `form:"websiteId"`
	FormID    string `form:"formId"`
}
