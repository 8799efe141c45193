package utils

import (
	"strings"
	"testing"

	"github.com/GriffinCanCode/leadform/internal/shared/id"
	"github.com/stretchr/testify/assert"
)

func TestValidateString(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		required bool
		wantErr  bool
	}{
		{"ok", "Acme", true, false},
		{"missing required", "", true, true},
		{"missing optional", "", false, false},
		{"too long", strings.Repeat("a", 11), true, true},
		{"null byte", "a\x00b", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateString(tt.value, "name", 1, 10, tt.required)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://acme.example/contact", "url"))
	assert.NoError(t, ValidateURL("http://localhost:8080", "url"))

	for _, raw := range []string{"", "acme.example", "ftp://acme.example", "https://", "::bad"} {
		assert.Error(t, ValidateURL(raw, "url"), raw)
	}
}

func TestValidateIDs(t *testing.T) {
	assert.NoError(t, ValidateIDs([]string{"ws_1", "ws_2"}, "ids"))
	assert.Error(t, ValidateIDs(nil, "ids"))
	assert.ErrorContains(t, ValidateIDs([]string{"ws_1", ""}, "ids"), "ids[1]")
	assert.Error(t, ValidateIDs(make([]string, MaxBatchIDs+1), "ids"))
}

func TestValidateTypedID(t *testing.T) {
	assert.NoError(t, ValidateTypedID(id.NewWebsiteID().String(), "websiteId", id.WebsitePrefix))

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "required"},
		{"wrong prefix", id.NewLeadID().String(), "ws_ identifier"},
		{"not a ulid", "ws_acme", "ws_ identifier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, ValidateTypedID(tt.in, "websiteId", id.WebsitePrefix), tt.want)
		})
	}
}

func TestValidateObject(t *testing.T) {
	assert.NoError(t, ValidateObject(map[string]any{"email": "a@b.c"}, "fields", 1024))

	big := map[string]any{"message": strings.Repeat("x", 2048)}
	assert.ErrorContains(t, ValidateObject(big, "fields", 1024), "exceeds maximum")

	var deep any = "leaf"
	for i := 0; i < MaxLeadDepth+2; i++ {
		deep = map[string]any{"n": deep}
	}
	assert.ErrorContains(t, ValidateObject(deep.(map[string]any), "meta", 1<<20), "nesting depth")
}
