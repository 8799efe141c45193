package scraper

import "errors"

var (
	// ErrResourceExhausted marks input rejected for size or depth, as
	// opposed to a network or data problem.
	ErrResourceExhausted = errors.New("resource limits exceeded")

	ErrDocumentTooLarge = errors.New("document too large")
	ErrDocumentTooDeep  = errors.New("document nesting too deep")
)

const (
	// DefaultMaxHTMLSize limits HTML input to 10MB to prevent memory exhaustion
	DefaultMaxHTMLSize = 10 * 1024 * 1024

	// DefaultMaxDepth matches the open-element limit of the HTML parser
	DefaultMaxDepth = 512
)

// DetectedField describes one input, select or textarea inside a form.
// Optional values are empty when absent and omitted from JSON.
type DetectedField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Label       string `json:"label,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Required    bool   `json:"required"`
}

// DetectedForm describes one <form> element and its fields in document order.
type DetectedForm struct {
	Name     string          `json:"name"`
	Action   string          `json:"action,omitempty"`
	Method   string          `json:"method,omitempty"`
	Selector string          `json:"selector"`
	Fields   []DetectedField `json:"fields"`
}

// Limits bounds the work a single extraction may do. Zero disables a limit.
type Limits struct {
	MaxHTMLSize int
	MaxDepth    int
}

// DefaultLimits returns the limits used by the package-level Extract.
func DefaultLimits() Limits {
	return Limits{
		MaxHTMLSize: DefaultMaxHTMLSize,
		MaxDepth:    DefaultMaxDepth,
	}
}

// CountFields returns the total number of fields across forms.
func CountFields(forms []DetectedForm) int {
	n := 0
	for _, f := range forms {
		n += len(f.Fields)
	}
	return n
}
