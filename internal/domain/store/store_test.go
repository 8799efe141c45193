package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/leadform/internal/providers/scraper"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebsite(id, url string) Website {
	now := time.Now().UTC()
	return Website{
		ID:                 id,
		Name:               "Site " + id,
		URL:                url,
		IsActive:           true,
		SecretKey:          "secret-" + id,
		SecretKeyExpiresAt: now.Add(time.Hour),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func newForm(id, name string) WebsiteForm {
	return WebsiteForm{
		ID:   id,
		Name: name,
		Fields: []scraper.DetectedField{
			{Name: "email", Type: "email", Required: true},
		},
	}
}

func TestCreateWebsiteIdempotentByURL(t *testing.T) {
	s := New()

	first, created, err := s.CreateWebsite(newWebsite("ws_1", "https://acme.example"))
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := s.CreateWebsite(newWebsite("ws_2", "https://acme.example"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, s.WebsiteCount())
}

func TestGetWebsiteReturnsCopy(t *testing.T) {
	s := New()
	scanned := time.Now()
	w := newWebsite("ws_1", "https://acme.example")
	w.LastScannedAt = &scanned
	_, _, err := s.CreateWebsite(w)
	require.NoError(t, err)

	got, err := s.GetWebsite("ws_1")
	require.NoError(t, err)
	got.Name = "mutated"
	*got.LastScannedAt = time.Time{}

	again, err := s.GetWebsite("ws_1")
	require.NoError(t, err)
	assert.Equal(t, "Site ws_1", again.Name)
	assert.False(t, again.LastScannedAt.IsZero())

	_, err = s.GetWebsite("ws_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateWebsite(t *testing.T) {
	s := New()
	_, _, _ = s.CreateWebsite(newWebsite("ws_1", "https://a.example"))
	_, _, _ = s.CreateWebsite(newWebsite("ws_2", "https://b.example"))

	updated, err := s.UpdateWebsite("ws_1", func(w *Website) error {
		w.URL = "https://c.example"
		w.IsActive = false
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "https://c.example", updated.URL)
	assert.False(t, updated.IsActive)

	// old URL is free again
	_, created, err := s.CreateWebsite(newWebsite("ws_3", "https://a.example"))
	require.NoError(t, err)
	assert.True(t, created)

	_, err = s.UpdateWebsite("ws_1", func(w *Website) error {
		w.URL = "https://b.example"
		return nil
	})
	assert.ErrorIs(t, err, ErrConflict)

	rejected := errors.New("rejected")
	_, err = s.UpdateWebsite("ws_1", func(*Website) error { return rejected })
	assert.ErrorIs(t, err, rejected)

	_, err = s.UpdateWebsite("ws_missing", func(*Website) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteWebsitesCascades(t *testing.T) {
	s := New()
	_, _, _ = s.CreateWebsite(newWebsite("ws_1", "https://a.example"))
	_, _, _ = s.CreateWebsite(newWebsite("ws_2", "https://b.example"))
	_, err := s.ReplaceForms("ws_1", []WebsiteForm{newForm("wf_1", "contact")})
	require.NoError(t, err)
	_, err = s.CreateLead(Lead{ID: "ld_1", WebsiteID: "ws_1", FormID: "wf_1"})
	require.NoError(t, err)
	_, err = s.CreateLead(Lead{ID: "ld_2", WebsiteID: "ws_2"})
	require.NoError(t, err)

	n := s.DeleteWebsites([]string{"ws_1", "ws_missing"})
	assert.Equal(t, 1, n)

	_, err = s.Forms("ws_1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetLead("ld_1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetLead("ld_2")
	assert.NoError(t, err)

	_, created, err := s.CreateWebsite(newWebsite("ws_4", "https://a.example"))
	require.NoError(t, err)
	assert.True(t, created, "deleted website releases its URL")
}

func TestReplaceForms(t *testing.T) {
	s := New()
	_, _, _ = s.CreateWebsite(newWebsite("ws_1", "https://a.example"))

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := newForm("wf_1", "contact")
	first.CreatedAt = created
	_, err := s.ReplaceForms("ws_1", []WebsiteForm{first, newForm("wf_2", "newsletter")})
	require.NoError(t, err)

	stored, err := s.ReplaceForms("ws_1", []WebsiteForm{newForm("wf_3", "contact"), newForm("wf_4", "quote")})
	require.NoError(t, err)
	require.Len(t, stored, 2)

	assert.Equal(t, "wf_1", stored[0].ID, "same-named form keeps its ID")
	assert.Equal(t, created, stored[0].CreatedAt)
	assert.Equal(t, "wf_4", stored[1].ID)
	assert.Equal(t, "ws_1", stored[1].WebsiteID)

	listed, err := s.Forms("ws_1")
	require.NoError(t, err)
	assert.Equal(t, stored, listed)

	_, err = s.FindForm("ws_1", "newsletter")
	assert.ErrorIs(t, err, ErrNotFound)

	emptied, err := s.ReplaceForms("ws_1", nil)
	require.NoError(t, err)
	assert.Empty(t, emptied)

	_, err = s.ReplaceForms("ws_missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceFormsIsAtomic(t *testing.T) {
	s := New()
	_, _, _ = s.CreateWebsite(newWebsite("ws_1", "https://a.example"))

	setA := []WebsiteForm{newForm("", "a1"), newForm("", "a2")}
	setB := []WebsiteForm{newForm("", "b1"), newForm("", "b2"), newForm("", "b3")}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			set := setA
			if i%2 == 1 {
				set = setB
			}
			_, _ = s.ReplaceForms("ws_1", set)
		}
		close(stop)
	}()

	for {
		select {
		case <-stop:
			wg.Wait()
			return
		default:
		}
		forms, err := s.Forms("ws_1")
		require.NoError(t, err)
		if len(forms) == 0 {
			continue
		}
		prefix := forms[0].Name[:1]
		for _, f := range forms {
			assert.Equal(t, prefix, f.Name[:1], "observed a mixed form set")
		}
	}
}

func TestLeads(t *testing.T) {
	s := New()
	_, _, _ = s.CreateWebsite(newWebsite("ws_1", "https://a.example"))
	_, _, _ = s.CreateWebsite(newWebsite("ws_2", "https://b.example"))

	_, err := s.CreateLead(Lead{ID: "ld_1", WebsiteID: "ws_missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	lead, err := s.CreateLead(Lead{ID: "ld_1", WebsiteID: "ws_1", FormID: "wf_1", Data: map[string]any{"email": "a@b.c"}})
	require.NoError(t, err)
	lead.Data["email"] = "mutated"

	_, err = s.CreateLead(Lead{ID: "ld_1", WebsiteID: "ws_1"})
	assert.ErrorIs(t, err, ErrConflict)

	got, err := s.GetLead("ld_1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", got.Data["email"])

	updated, err := s.UpdateLead("ld_1", func(l *Lead) error {
		l.WebsiteID = "ws_2"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ws_2", updated.WebsiteID)

	_, err = s.UpdateLead("ld_1", func(l *Lead) error {
		l.WebsiteID = "ws_missing"
		return nil
	})
	assert.ErrorIs(t, err, ErrNotFound)

	byWebsite, byForm := s.LeadCounts()
	assert.Equal(t, 1, byWebsite["ws_2"])
	assert.Equal(t, 1, byForm["wf_1"])

	assert.Equal(t, 1, s.DeleteLeads([]string{"ld_1", "ld_missing"}))
	assert.Empty(t, s.Leads())
}

func TestLeadNestedValuesAreCopied(t *testing.T) {
	s := New()
	_, _, _ = s.CreateWebsite(newWebsite("ws_1", "https://a.example"))

	input := Lead{
		ID:        "ld_1",
		WebsiteID: "ws_1",
		Data: map[string]any{
			"address": map[string]any{"city": "Paris"},
			"tags":    []any{"vip", map[string]any{"source": "ads"}},
		},
		Meta: map[string]any{"utm": map[string]any{"campaign": "spring"}},
	}
	created, err := s.CreateLead(input)
	require.NoError(t, err)

	// none of the copies handed out share nested values with the store
	input.Data["address"].(map[string]any)["city"] = "input"
	created.Data["tags"].([]any)[0] = "created"
	got, err := s.GetLead("ld_1")
	require.NoError(t, err)
	got.Data["tags"].([]any)[1].(map[string]any)["source"] = "got"
	got.Meta["utm"].(map[string]any)["campaign"] = "got"

	again, err := s.GetLead("ld_1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "Paris"}, again.Data["address"])
	assert.Equal(t, []any{"vip", map[string]any{"source": "ads"}}, again.Data["tags"])
	assert.Equal(t, map[string]any{"campaign": "spring"}, again.Meta["utm"])

	leads := s.Leads()
	require.Len(t, leads, 1)
	leads[0].Data["address"].(map[string]any)["city"] = "listed"
	again, err = s.GetLead("ld_1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "Paris"}, again.Data["address"])
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "leadform.json")

	s, err := Open(path, nil)
	require.NoError(t, err)

	scanned := time.Now().UTC().Truncate(time.Second)
	w := newWebsite("ws_1", "https://a.example")
	w.LastScannedAt = &scanned
	_, _, err = s.CreateWebsite(w)
	require.NoError(t, err)
	_, err = s.ReplaceForms("ws_1", []WebsiteForm{newForm("wf_1", "contact"), newForm("wf_2", "quote")})
	require.NoError(t, err)
	_, err = s.CreateLead(Lead{
		ID:        "ld_1",
		WebsiteID: "ws_1",
		FormID:    "wf_1",
		Data:      map[string]any{"email": "a@b.c"},
		Meta:      map[string]any{"url": "https://a.example/contact"},
	})
	require.NoError(t, err)

	reopened, err := Open(path, nil)
	require.NoError(t, err)

	wantSite, err := s.GetWebsite("ws_1")
	require.NoError(t, err)
	gotSite, err := reopened.GetWebsite("ws_1")
	require.NoError(t, err)
	if diff := cmp.Diff(wantSite, gotSite); diff != "" {
		t.Errorf("website mismatch after reload (-want +got):\n%s", diff)
	}
	require.NotNil(t, gotSite.LastScannedAt)
	assert.True(t, scanned.Equal(*gotSite.LastScannedAt))

	wantForms, err := s.Forms("ws_1")
	require.NoError(t, err)
	forms, err := reopened.Forms("ws_1")
	require.NoError(t, err)
	if diff := cmp.Diff(wantForms, forms); diff != "" {
		t.Errorf("forms mismatch after reload (-want +got):\n%s", diff)
	}
	require.Len(t, forms, 2)
	assert.Equal(t, "contact", forms[0].Name)
	assert.Equal(t, "quote", forms[1].Name)
	assert.Equal(t, []scraper.DetectedField{{Name: "email", Type: "email", Required: true}}, forms[0].Fields)

	lead, err := reopened.GetLead("ld_1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", lead.Data["email"])
	assert.Equal(t, "https://a.example/contact", lead.Meta["url"])

	_, created, err := reopened.CreateWebsite(newWebsite("ws_2", "https://a.example"))
	require.NoError(t, err)
	assert.False(t, created, "URL index is rebuilt on load")
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	s, err := Open("", nil)
	require.NoError(t, err)
	assert.Zero(t, s.WebsiteCount())

	s, err = Open(filepath.Join(dir, "absent.json"), nil)
	require.NoError(t, err)
	assert.Zero(t, s.WebsiteCount())

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0o600))
	_, err = Open(corrupt, nil)
	assert.Error(t, err)

	future := filepath.Join(dir, "future.json")
	require.NoError(t, os.WriteFile(future, []byte(`{"version": 99}`), 0o600))
	_, err = Open(future, nil)
	assert.ErrorContains(t, err, "unsupported version")
}
