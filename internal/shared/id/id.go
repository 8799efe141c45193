// Package id provides prefixed ULID generation for stored entities.
//
// Every persisted record carries a ULID behind a short type prefix
// (ws_*, wf_*, ld_*). ULIDs sort lexicographically by creation time, so
// listings ordered by ID are also ordered by age, and the prefix makes a
// stray ID in a log line self-describing.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// WebsiteID identifies a registered website
type WebsiteID string

// FormID identifies a saved website form
type FormID string

// LeadID identifies a collected lead
type LeadID string

const (
	WebsitePrefix = "ws"
	FormPrefix    = "wf"
	LeadPrefix    = "ld"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewWebsiteID generates a new website ID
func NewWebsiteID() WebsiteID {
	return WebsiteID(Default().GenerateWithPrefix(WebsitePrefix))
}

// NewFormID generates a new form ID
func NewFormID() FormID {
	return FormID(Default().GenerateWithPrefix(FormPrefix))
}

// NewLeadID generates a new lead ID
func NewLeadID() LeadID {
	return LeadID(Default().GenerateWithPrefix(LeadPrefix))
}

func (id WebsiteID) String() string { return string(id) }
func (id FormID) String() string    { return string(id) }
func (id LeadID) String() string    { return string(id) }

// HasPrefix reports whether s is a well-formed ID of the given type prefix.
func HasPrefix(s, prefix string) bool {
	rest, ok := strings.CutPrefix(s, prefix+"_")
	if !ok {
		return false
	}
	_, err := ulid.Parse(rest)
	return err == nil
}
