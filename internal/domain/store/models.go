package store

import (
	"slices"
	"time"

	"github.com/GriffinCanCode/leadform/internal/providers/scraper"
)

// Website is a registered site that can receive leads
type Website struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	URL                string     `json:"url"`
	IsActive           bool       `json:"isActive"`
	SecretKey          string     `json:"secretKey"`
	SecretKeyExpiresAt time.Time  `json:"secretKeyExpiresAt"`
	LastScannedAt      *time.Time `json:"lastScannedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// WebsiteForm is a detected form saved against a website
type WebsiteForm struct {
	ID        string                  `json:"id"`
	WebsiteID string                  `json:"websiteId"`
	Name      string                  `json:"name"`
	Action    string                  `json:"action,omitempty"`
	Method    string                  `json:"method,omitempty"`
	Selector  string                  `json:"selector,omitempty"`
	Fields    []scraper.DetectedField `json:"fields"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

// Lead is one submission of a website form
type Lead struct {
	ID        string         `json:"id"`
	WebsiteID string         `json:"websiteId"`
	FormID    string         `json:"formId"`
	Data      map[string]any `json:"data"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (w Website) clone() Website {
	if w.LastScannedAt != nil {
		t := *w.LastScannedAt
		w.LastScannedAt = &t
	}
	return w
}

func (f WebsiteForm) clone() WebsiteForm {
	f.Fields = slices.Clone(f.Fields)
	if f.Fields == nil {
		f.Fields = []scraper.DetectedField{}
	}
	return f
}

func (l Lead) clone() Lead {
	l.Data = cloneObject(l.Data)
	if l.Data == nil {
		l.Data = map[string]any{}
	}
	l.Meta = cloneObject(l.Meta)
	return l
}

// cloneObject deep-copies decoded JSON so nested objects and arrays are
// never shared between the store and its callers. nil stays nil.
func cloneObject(obj map[string]any) map[string]any {
	if obj == nil {
		return nil
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneObject(val)
	case []any:
		if val == nil {
			return val
		}
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
