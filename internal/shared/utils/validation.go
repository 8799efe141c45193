package utils

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/leadform/internal/shared/id"
)

// Payload size limits (in bytes)
const (
	MaxLeadDataSize = 64 * 1024 // submitted form fields
	MaxLeadMetaSize = 16 * 1024 // url, userAgent and friends
	MaxLeadDepth    = 8
)

// String length limits
const (
	MaxIDLength   = 128
	MaxNameLength = 256
	MaxURLLength  = 2048
	MaxBatchIDs   = 1000
	MaxFieldCount = 200
)

// JSONSizeValidator validates JSON size limits
type JSONSizeValidator struct {
	maxSize int
}

// NewJSONSizeValidator creates a new validator with the specified max size
func NewJSONSizeValidator(maxSize int) *JSONSizeValidator {
	return &JSONSizeValidator{maxSize: maxSize}
}

// ValidateValue checks the encoded size of v
func (v *JSONSizeValidator) ValidateValue(value any) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}
	if len(data) > v.maxSize {
		return fmt.Errorf("JSON size %d bytes exceeds maximum %d bytes", len(data), v.maxSize)
	}
	return nil
}

// ValidateJSONDepth checks if JSON nesting depth is within limits
func ValidateJSONDepth(data any, maxDepth int) error {
	return checkDepth(data, 0, maxDepth)
}

func checkDepth(data any, currentDepth int, maxDepth int) error {
	if currentDepth > maxDepth {
		return fmt.Errorf("JSON nesting depth %d exceeds maximum %d", currentDepth, maxDepth)
	}

	switch v := data.(type) {
	case map[string]any:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	case []any:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	}

	return nil
}

// ValidateObject bounds a free-form JSON object by encoded size and depth
func ValidateObject(obj map[string]any, fieldName string, maxSize int) error {
	if err := NewJSONSizeValidator(maxSize).ValidateValue(obj); err != nil {
		return fmt.Errorf("%s: %w", fieldName, err)
	}
	if err := ValidateJSONDepth(obj, MaxLeadDepth); err != nil {
		return fmt.Errorf("%s: %w", fieldName, err)
	}
	return nil
}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	// Null bytes never belong in names or URLs
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateName validates a name field
func ValidateName(name, fieldName string) error {
	return ValidateString(name, fieldName, 1, MaxNameLength, true)
}

// ValidateID validates an entity ID
func ValidateID(id, fieldName string) error {
	return ValidateString(id, fieldName, 1, MaxIDLength, true)
}

// ValidateTypedID validates an entity ID that must carry the given type prefix
func ValidateTypedID(value, fieldName, prefix string) error {
	if err := ValidateID(value, fieldName); err != nil {
		return err
	}
	if !id.HasPrefix(value, prefix) {
		return fmt.Errorf("%s must be a %s_ identifier", fieldName, prefix)
	}
	return nil
}

// ValidateIDs validates a non-empty batch of IDs
func ValidateIDs(ids []string, fieldName string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%s must not be empty", fieldName)
	}
	if len(ids) > MaxBatchIDs {
		return fmt.Errorf("%s must not exceed %d entries", fieldName, MaxBatchIDs)
	}
	for i, id := range ids {
		if err := ValidateID(id, fmt.Sprintf("%s[%d]", fieldName, i)); err != nil {
			return err
		}
	}
	return nil
}

// ValidateURL validates an absolute http(s) URL
func ValidateURL(raw, fieldName string) error {
	if err := ValidateString(raw, fieldName, 1, MaxURLLength, true); err != nil {
		return err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL", fieldName)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", fieldName)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", fieldName)
	}
	return nil
}
