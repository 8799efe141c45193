package lead

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/GriffinCanCode/leadform/internal/domain/store"
	"github.com/GriffinCanCode/leadform/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/leadform/internal/shared/id"
	"github.com/GriffinCanCode/leadform/internal/shared/types"
	"github.com/GriffinCanCode/leadform/internal/shared/utils"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Manager records and queries leads
type Manager struct {
	store     *store.Store
	sanitizer *bluemonday.Policy
	now       func() time.Time
	log       *zap.Logger
	metrics   *monitoring.Metrics
}

// NewManager creates a new lead manager
func NewManager(st *store.Store) *Manager {
	return &Manager{
		store:     st,
		sanitizer: bluemonday.StrictPolicy(),
		now:       func() time.Time { return time.Now().UTC() },
		log:       zap.NewNop(),
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithLogger sets the manager logger
func (m *Manager) WithLogger(log *zap.Logger) *Manager {
	m.log = log
	return m
}

// Collect stores a lead submitted by a website visitor. The website must
// exist, hold the given secret key, be active and have an unexpired key.
func (m *Manager) Collect(in CollectInput) (store.Lead, error) {
	lead, err := m.collect(in)
	m.record(ChannelCollect, err)
	return lead, err
}

func (m *Manager) collect(in CollectInput) (store.Lead, error) {
	websiteID := strings.TrimSpace(in.WebsiteID)
	formName := strings.TrimSpace(in.FormName)
	if err := validateSubmission(websiteID, formName, in.Fields, in.Meta); err != nil {
		return store.Lead{}, err
	}

	website, err := m.store.GetWebsite(websiteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Lead{}, ErrInvalidSecret
		}
		return store.Lead{}, err
	}
	secret := strings.TrimSpace(in.SecretKey)
	if subtle.ConstantTimeCompare([]byte(secret), []byte(website.SecretKey)) != 1 {
		m.log.Warn("Lead rejected: secret mismatch", zap.String("website_id", websiteID))
		return store.Lead{}, ErrInvalidSecret
	}
	if !website.IsActive {
		return store.Lead{}, ErrWebsiteInactive
	}
	if website.SecretKeyExpiresAt.Before(m.now()) {
		return store.Lead{}, ErrSecretExpired
	}

	return m.insert(websiteID, formName, in.Fields, in.Meta)
}

// Create stores a lead entered from the dashboard. The website must exist
// and be active.
func (m *Manager) Create(in CreateInput) (store.Lead, error) {
	lead, err := m.create(in)
	m.record(ChannelDashboard, err)
	return lead, err
}

func (m *Manager) create(in CreateInput) (store.Lead, error) {
	websiteID := strings.TrimSpace(in.WebsiteID)
	formName := strings.TrimSpace(in.FormName)
	if err := validateSubmission(websiteID, formName, in.Fields, in.Meta); err != nil {
		return store.Lead{}, err
	}
	if _, err := m.activeWebsite(websiteID); err != nil {
		return store.Lead{}, err
	}
	return m.insert(websiteID, formName, in.Fields, in.Meta)
}

func (m *Manager) insert(websiteID, formName string, fields, meta map[string]any) (store.Lead, error) {
	form, err := m.resolveForm(websiteID, formName)
	if err != nil {
		return store.Lead{}, err
	}

	now := m.now()
	lead, err := m.store.CreateLead(store.Lead{
		ID:        id.NewLeadID().String(),
		WebsiteID: websiteID,
		FormID:    form.ID,
		Data:      m.sanitizeObject(fields),
		Meta:      m.sanitizeObject(meta),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return store.Lead{}, err
	}

	m.log.Info("Lead stored",
		zap.String("id", lead.ID),
		zap.String("website_id", websiteID),
		zap.String("form_id", form.ID))
	return lead, nil
}

// Get retrieves a lead by ID
func (m *Manager) Get(leadID string) (store.Lead, error) {
	return m.store.GetLead(leadID)
}

// List returns one page of leads
func (m *Manager) List(q Query) (types.Page[store.Lead], error) {
	if err := q.Normalize(sortKeys...); err != nil {
		return types.Page[store.Lead]{}, invalid(err)
	}
	field := strings.TrimSpace(q.Field)
	search := strings.ToLower(q.Search)

	rows := []store.Lead{}
	for _, l := range m.store.Leads() {
		if q.WebsiteID != "" && l.WebsiteID != q.WebsiteID {
			continue
		}
		if q.FormID != "" && l.FormID != q.FormID {
			continue
		}
		if search != "" && !matches(l.Data, field, search) {
			continue
		}
		rows = append(rows, l)
	}

	slices.SortStableFunc(rows, func(a, b store.Lead) int {
		var c int
		if q.Sort == "updatedAt" {
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		} else {
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if q.Order == types.OrderDesc {
			return -c
		}
		return c
	})
	return types.Paginate(rows, q.ListQuery), nil
}

// Update applies a partial change to a lead. Moving a lead to another
// website requires that website to be active; formName is resolved within
// the lead's website after the move.
func (m *Manager) Update(leadID string, in UpdateInput) (store.Lead, error) {
	if in.Fields != nil {
		if len(in.Fields) == 0 {
			return store.Lead{}, invalid(errors.New("fields must not be empty"))
		}
		if err := utils.ValidateObject(in.Fields, "fields", utils.MaxLeadDataSize); err != nil {
			return store.Lead{}, invalid(err)
		}
	}
	if in.Meta != nil {
		if err := utils.ValidateObject(in.Meta, "meta", utils.MaxLeadMetaSize); err != nil {
			return store.Lead{}, invalid(err)
		}
	}

	current, err := m.store.GetLead(leadID)
	if err != nil {
		return store.Lead{}, err
	}

	websiteID := current.WebsiteID
	if in.WebsiteID != nil {
		websiteID = strings.TrimSpace(*in.WebsiteID)
		if err := utils.ValidateTypedID(websiteID, "websiteId", id.WebsitePrefix); err != nil {
			return store.Lead{}, invalid(err)
		}
		if _, err := m.activeWebsite(websiteID); err != nil {
			return store.Lead{}, err
		}
	}

	formID := current.FormID
	if in.FormName != nil {
		form, err := m.resolveForm(websiteID, strings.TrimSpace(*in.FormName))
		if err != nil {
			return store.Lead{}, err
		}
		formID = form.ID
	}

	data := m.sanitizeObject(in.Fields)
	meta := m.sanitizeObject(in.Meta)
	updated, err := m.store.UpdateLead(leadID, func(l *store.Lead) error {
		l.WebsiteID = websiteID
		l.FormID = formID
		if data != nil {
			l.Data = data
		}
		if meta != nil {
			l.Meta = meta
		}
		l.UpdatedAt = m.now()
		return nil
	})
	if err != nil {
		return store.Lead{}, err
	}

	m.log.Info("Lead updated", zap.String("id", leadID))
	return updated, nil
}

// DeleteMany removes leads and returns how many existed
func (m *Manager) DeleteMany(ids []string) (int, error) {
	if err := utils.ValidateIDs(ids, "ids"); err != nil {
		return 0, invalid(err)
	}
	n := m.store.DeleteLeads(ids)
	if n > 0 {
		m.log.Info("Leads deleted", zap.Int("count", n))
	}
	return n, nil
}

func (m *Manager) activeWebsite(websiteID string) (store.Website, error) {
	website, err := m.store.GetWebsite(websiteID)
	if err != nil {
		return store.Website{}, err
	}
	if !website.IsActive {
		return store.Website{}, ErrWebsiteInactive
	}
	return website, nil
}

func (m *Manager) resolveForm(websiteID, formName string) (store.WebsiteForm, error) {
	form, err := m.store.FindForm(websiteID, formName)
	if errors.Is(err, store.ErrNotFound) {
		return store.WebsiteForm{}, ErrFormNotFound
	}
	return form, err
}

// sanitizeObject returns a copy of obj with every string value, at any
// depth, passed through the strict policy. Nil stays nil.
func (m *Manager) sanitizeObject(obj map[string]any) map[string]any {
	if obj == nil {
		return nil
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = m.sanitizeValue(v)
	}
	return out
}

func (m *Manager) sanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(m.sanitizer.Sanitize(val))
	case map[string]any:
		return m.sanitizeObject(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = m.sanitizeValue(item)
		}
		return out
	default:
		return v
	}
}

func (m *Manager) record(channel string, err error) {
	if m.metrics == nil {
		return
	}
	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidSecret), errors.Is(err, ErrSecretExpired):
		status = "unauthorized"
	case errors.Is(err, ErrInvalidInput):
		status = "invalid"
	default:
		status = "rejected"
	}
	m.metrics.RecordLead(channel, status)
}

func validateSubmission(websiteID, formName string, fields, meta map[string]any) error {
	if err := utils.ValidateTypedID(websiteID, "websiteId", id.WebsitePrefix); err != nil {
		return invalid(err)
	}
	if err := utils.ValidateName(formName, "formName"); err != nil {
		return invalid(err)
	}
	if len(fields) == 0 {
		return invalid(errors.New("fields must not be empty"))
	}
	if len(fields) > utils.MaxFieldCount {
		return invalid(fmt.Errorf("fields must not exceed %d entries", utils.MaxFieldCount))
	}
	if err := utils.ValidateObject(fields, "fields", utils.MaxLeadDataSize); err != nil {
		return invalid(err)
	}
	if meta != nil {
		if err := utils.ValidateObject(meta, "meta", utils.MaxLeadMetaSize); err != nil {
			return invalid(err)
		}
	}
	return nil
}

// matches reports whether the data value under field, or any top-level
// value when field is empty, contains search. search is lower case.
func matches(data map[string]any, field, search string) bool {
	if field != "" {
		v, ok := data[field]
		return ok && strings.Contains(strings.ToLower(stringify(v)), search)
	}
	for _, v := range data {
		if strings.Contains(strings.ToLower(stringify(v)), search) {
			return true
		}
	}
	return false
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
