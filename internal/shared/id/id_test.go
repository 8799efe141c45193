package id

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	assert.NotEqual(t, id1.String(), id2.String())
	assert.Len(t, id1.String(), 26)
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{WebsitePrefix, FormPrefix, LeadPrefix} {
		t.Run(prefix, func(t *testing.T) {
			got := gen.GenerateWithPrefix(prefix)
			assert.True(t, strings.HasPrefix(got, prefix+"_"))
			assert.True(t, HasPrefix(got, prefix))
		})
	}
}

func TestTypedIDs(t *testing.T) {
	assert.True(t, HasPrefix(NewWebsiteID().String(), WebsitePrefix))
	assert.True(t, HasPrefix(NewFormID().String(), FormPrefix))
	assert.True(t, HasPrefix(NewLeadID().String(), LeadPrefix))
}

func TestHasPrefixRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"wrong prefix", "ld_01ARZ3NDEKTSV4RRFFQ69G5FAV"},
		{"no prefix", "01ARZ3NDEKTSV4RRFFQ69G5FAV"},
		{"bad ulid", "ws_not-a-ulid"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, HasPrefix(tt.in, WebsitePrefix))
		})
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()
	const workers, perWorker = 8, 100

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s := gen.Generate().String()
				mu.Lock()
				seen[s] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}
