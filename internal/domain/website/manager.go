package website

import (
	"cmp"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/GriffinCanCode/leadform/internal/domain/store"
	"github.com/GriffinCanCode/leadform/internal/infrastructure/config"
	"github.com/GriffinCanCode/leadform/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/leadform/internal/providers/scraper"
	"github.com/GriffinCanCode/leadform/internal/shared/id"
	"github.com/GriffinCanCode/leadform/internal/shared/types"
	"github.com/GriffinCanCode/leadform/internal/shared/utils"
	"go.uber.org/zap"
)

// secretKeyBytes is the amount of randomness behind a secret key
const secretKeyBytes = 32

// Fetcher downloads a page as UTF-8 HTML
type Fetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// Manager orchestrates the website lifecycle
type Manager struct {
	store     *store.Store
	fetcher   Fetcher
	extractor *scraper.Extractor
	secretTTL time.Duration
	now       func() time.Time
	log       *zap.Logger
	metrics   *monitoring.Metrics
}

// NewManager creates a new website manager
func NewManager(st *store.Store, fetcher Fetcher, extractor *scraper.Extractor, cfg config.WebsiteConfig) *Manager {
	return &Manager{
		store:     st,
		fetcher:   fetcher,
		extractor: extractor,
		secretTTL: cfg.SecretKeyTTL,
		now:       func() time.Time { return time.Now().UTC() },
		log:       zap.NewNop(),
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	if metrics != nil {
		metrics.SetWebsites(m.store.WebsiteCount())
	}
	return m
}

// WithLogger sets the manager logger
func (m *Manager) WithLogger(log *zap.Logger) *Manager {
	m.log = log
	return m
}

// Create registers a website. Registering a URL twice returns the existing
// website and created is false.
func (m *Manager) Create(in CreateInput) (website store.Website, created bool, err error) {
	name := strings.TrimSpace(in.Name)
	url := strings.TrimSpace(in.URL)
	if err := utils.ValidateName(name, "name"); err != nil {
		return store.Website{}, false, invalid(err)
	}
	if err := utils.ValidateURL(url, "url"); err != nil {
		return store.Website{}, false, invalid(err)
	}

	secret, err := newSecretKey()
	if err != nil {
		return store.Website{}, false, err
	}

	now := m.now()
	website, created, err = m.store.CreateWebsite(store.Website{
		ID:                 id.NewWebsiteID().String(),
		Name:               name,
		URL:                url,
		IsActive:           true,
		SecretKey:          secret,
		SecretKeyExpiresAt: now.Add(m.secretTTL),
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		return store.Website{}, false, err
	}

	if created {
		m.log.Info("Website registered", zap.String("id", website.ID), zap.String("url", website.URL))
		m.syncWebsiteGauge()
	}
	return website, created, nil
}

// Get retrieves a website by ID
func (m *Manager) Get(websiteID string) (store.Website, error) {
	return m.store.GetWebsite(websiteID)
}

// List returns one page of websites with their form and lead counts
func (m *Manager) List(q Query) (types.Page[Summary], error) {
	if err := q.Normalize(sortKeys...); err != nil {
		return types.Page[Summary]{}, invalid(err)
	}

	formCounts := m.store.FormCounts()
	leadCounts, _ := m.store.LeadCounts()
	search := strings.ToLower(q.Search)

	rows := []Summary{}
	for _, w := range m.store.Websites() {
		if q.WebsiteID != "" && w.ID != q.WebsiteID {
			continue
		}
		if q.IsActive != nil && w.IsActive != *q.IsActive {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(w.Name), search) &&
			!strings.Contains(strings.ToLower(w.URL), search) {
			continue
		}
		rows = append(rows, Summary{
			Website:       w,
			FormsDetected: formCounts[w.ID],
			TotalLeads:    leadCounts[w.ID],
		})
	}

	slices.SortStableFunc(rows, func(a, b Summary) int {
		c := compareWebsites(a.Website, b.Website, q.Sort)
		if q.Order == types.OrderDesc {
			return -c
		}
		return c
	})
	return types.Paginate(rows, q.ListQuery), nil
}

// Update applies a partial change to a website
func (m *Manager) Update(websiteID string, in UpdateInput) (store.Website, error) {
	var name, url string
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
		if err := utils.ValidateName(name, "name"); err != nil {
			return store.Website{}, invalid(err)
		}
	}
	if in.URL != nil {
		url = strings.TrimSpace(*in.URL)
		if err := utils.ValidateURL(url, "url"); err != nil {
			return store.Website{}, invalid(err)
		}
	}

	updated, err := m.store.UpdateWebsite(websiteID, func(w *store.Website) error {
		if in.Name != nil {
			w.Name = name
		}
		if in.URL != nil {
			w.URL = url
		}
		if in.IsActive != nil {
			w.IsActive = *in.IsActive
		}
		w.UpdatedAt = m.now()
		return nil
	})
	if err != nil {
		return store.Website{}, err
	}

	m.log.Info("Website updated", zap.String("id", websiteID))
	return updated, nil
}

// DeleteMany removes websites with their forms and leads
func (m *Manager) DeleteMany(ids []string) (int, error) {
	if err := utils.ValidateIDs(ids, "ids"); err != nil {
		return 0, invalid(err)
	}

	n := m.store.DeleteWebsites(ids)
	if n > 0 {
		m.log.Info("Websites deleted", zap.Int("count", n))
		m.syncWebsiteGauge()
	}
	return n, nil
}

// RegenerateSecret issues a fresh secret key with a full TTL
func (m *Manager) RegenerateSecret(websiteID string) (store.Website, error) {
	secret, err := newSecretKey()
	if err != nil {
		return store.Website{}, err
	}

	updated, err := m.store.UpdateWebsite(websiteID, func(w *store.Website) error {
		now := m.now()
		w.SecretKey = secret
		w.SecretKeyExpiresAt = now.Add(m.secretTTL)
		w.UpdatedAt = now
		return nil
	})
	if err != nil {
		return store.Website{}, err
	}

	m.log.Info("Website secret regenerated", zap.String("id", websiteID))
	return updated, nil
}

// DetectForms extracts forms from submitted HTML, or from the page at URL
// when no HTML is given. Any non-empty HTML, even blank, wins over URL. With neither it returns no forms. Nothing is stored.
func (m *Manager) DetectForms(ctx context.Context, in DetectInput) ([]scraper.DetectedForm, error) {
	if in.HTML != "" {
		return m.extract("html", in.HTML)
	}

	url := strings.TrimSpace(in.URL)
	if url == "" {
		return []scraper.DetectedForm{}, nil
	}
	if err := utils.ValidateURL(url, "url"); err != nil {
		return nil, invalid(err)
	}

	html, err := m.fetcher.FetchHTML(ctx, url)
	if err != nil {
		return nil, err
	}
	return m.extract("url", html)
}

// Scan fetches the website's page and returns the forms on it without
// storing them. A successful scan records lastScannedAt.
func (m *Manager) Scan(ctx context.Context, websiteID string) ([]scraper.DetectedForm, error) {
	website, err := m.store.GetWebsite(websiteID)
	if err != nil {
		return nil, err
	}

	forms, err := m.scanPage(ctx, website.URL)
	if err != nil {
		m.recordScan("error")
		m.log.Warn("Website scan failed",
			zap.String("id", websiteID),
			zap.String("url", website.URL),
			zap.Error(err))
		return nil, err
	}

	if _, err := m.store.UpdateWebsite(websiteID, func(w *store.Website) error {
		now := m.now()
		w.LastScannedAt = &now
		w.UpdatedAt = now
		return nil
	}); err != nil {
		// deleted while the page was being fetched
		return nil, err
	}

	m.recordScan("success")
	m.log.Info("Website scanned", zap.String("id", websiteID), zap.Int("forms", len(forms)))
	return forms, nil
}

func (m *Manager) scanPage(ctx context.Context, url string) ([]scraper.DetectedForm, error) {
	html, err := m.fetcher.FetchHTML(ctx, url)
	if err != nil {
		return nil, err
	}
	return m.extract("url", html)
}

// SaveForms replaces the website's stored forms with forms
func (m *Manager) SaveForms(websiteID string, forms []scraper.DetectedForm) ([]store.WebsiteForm, error) {
	if err := validateForms(forms); err != nil {
		return nil, invalid(err)
	}

	now := m.now()
	rows := make([]store.WebsiteForm, 0, len(forms))
	for _, f := range forms {
		fields := f.Fields
		if fields == nil {
			fields = []scraper.DetectedField{}
		}
		rows = append(rows, store.WebsiteForm{
			ID:        id.NewFormID().String(),
			WebsiteID: websiteID,
			Name:      f.Name,
			Action:    f.Action,
			Method:    f.Method,
			Selector:  f.Selector,
			Fields:    fields,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	stored, err := m.store.ReplaceForms(websiteID, rows)
	if err != nil {
		return nil, err
	}

	if m.metrics != nil {
		m.metrics.AddFormsSaved(len(stored))
	}
	m.log.Info("Website forms saved", zap.String("id", websiteID), zap.Int("forms", len(stored)))
	return stored, nil
}

// ListForms returns the stored forms, newest first, with lead counts
func (m *Manager) ListForms(websiteID string) ([]FormSummary, error) {
	forms, err := m.store.Forms(websiteID)
	if err != nil {
		return nil, err
	}
	_, leadCounts := m.store.LeadCounts()

	out := make([]FormSummary, 0, len(forms))
	for _, f := range forms {
		out = append(out, FormSummary{WebsiteForm: f, LeadCount: leadCounts[f.ID]})
	}
	slices.SortStableFunc(out, func(a, b FormSummary) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (m *Manager) extract(source, html string) ([]scraper.DetectedForm, error) {
	start := time.Now()
	forms, err := m.extractor.Extract(html)
	if m.metrics != nil {
		m.metrics.RecordExtraction(source, len(forms), scraper.CountFields(forms), time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}
	return forms, nil
}

func (m *Manager) recordScan(status string) {
	if m.metrics != nil {
		m.metrics.RecordScan(status)
	}
}

func (m *Manager) syncWebsiteGauge() {
	if m.metrics != nil {
		m.metrics.SetWebsites(m.store.WebsiteCount())
	}
}

func validateForms(forms []scraper.DetectedForm) error {
	for i, f := range forms {
		if err := utils.ValidateName(f.Name, fmt.Sprintf("forms[%d].name", i)); err != nil {
			return err
		}
		if len(f.Fields) > utils.MaxFieldCount {
			return fmt.Errorf("forms[%d] has more than %d fields", i, utils.MaxFieldCount)
		}
		for j, field := range f.Fields {
			if err := utils.ValidateName(field.Name, fmt.Sprintf("forms[%d].fields[%d].name", i, j)); err != nil {
				return err
			}
		}
	}
	return nil
}

func compareWebsites(a, b store.Website, key string) int {
	switch key {
	case "name":
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "url":
		return cmp.Compare(a.URL, b.URL)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case "lastScannedAt":
		// never-scanned sites sort before scanned ones
		switch {
		case a.LastScannedAt == nil && b.LastScannedAt == nil:
			return 0
		case a.LastScannedAt == nil:
			return -1
		case b.LastScannedAt == nil:
			return 1
		}
		return a.LastScannedAt.Compare(*b.LastScannedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func newSecretKey() (string, error) {
	b := make([]byte, secretKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
