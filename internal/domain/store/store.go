package store

import (
	"cmp"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write would break a uniqueness rule
	ErrConflict = errors.New("already exists")
)

// Store holds all leadform records in memory
type Store struct {
	mu       sync.RWMutex
	websites map[string]Website       // Protected by mu
	urls     map[string]string        // url -> website id, protected by mu
	forms    map[string][]WebsiteForm // website id -> forms in saved order, protected by mu
	leads    map[string]Lead          // Protected by mu

	snapshotPath string
	log          *zap.Logger
}

// New creates an empty, memory-only store
func New() *Store {
	return &Store{
		websites: make(map[string]Website),
		urls:     make(map[string]string),
		forms:    make(map[string][]WebsiteForm),
		leads:    make(map[string]Lead),
		log:      zap.NewNop(),
	}
}

// WithLogger sets the logger used for snapshot failures
func (s *Store) WithLogger(log *zap.Logger) *Store {
	s.log = log
	return s
}

// CreateWebsite stores w unless its URL is already registered, in which
// case the existing website is returned and created is false.
func (s *Store) CreateWebsite(w Website) (stored Website, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.urls[w.URL]; ok {
		return s.websites[existingID].clone(), false, nil
	}
	if _, ok := s.websites[w.ID]; ok {
		return Website{}, false, ErrConflict
	}

	w = w.clone()
	s.websites[w.ID] = w
	s.urls[w.URL] = w.ID
	s.persistLocked()
	return w.clone(), true, nil
}

// GetWebsite returns a website by ID
func (s *Store) GetWebsite(id string) (Website, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.websites[id]
	if !ok {
		return Website{}, ErrNotFound
	}
	return w.clone(), nil
}

// Websites returns every website ordered by ID
func (s *Store) Websites() []Website {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Website, 0, len(s.websites))
	for _, w := range s.websites {
		out = append(out, w.clone())
	}
	slices.SortFunc(out, func(a, b Website) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// WebsiteCount returns the number of registered websites
func (s *Store) WebsiteCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.websites)
}

// UpdateWebsite applies fn to a copy of the website and stores the result.
// fn may reject the change by returning an error. A URL already owned by
// another website yields ErrConflict.
func (s *Store) UpdateWebsite(id string, fn func(*Website) error) (Website, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.websites[id]
	if !ok {
		return Website{}, ErrNotFound
	}

	next := current.clone()
	if err := fn(&next); err != nil {
		return Website{}, err
	}
	next.ID = current.ID

	if next.URL != current.URL {
		if owner, taken := s.urls[next.URL]; taken && owner != id {
			return Website{}, ErrConflict
		}
		delete(s.urls, current.URL)
		s.urls[next.URL] = id
	}

	s.websites[id] = next
	s.persistLocked()
	return next.clone(), nil
}

// DeleteWebsites removes the given websites with their forms and leads and
// returns how many websites existed. Unknown IDs are ignored.
func (s *Store) DeleteWebsites(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]bool, len(ids))
	for _, id := range ids {
		w, ok := s.websites[id]
		if !ok {
			continue
		}
		delete(s.websites, id)
		delete(s.urls, w.URL)
		delete(s.forms, id)
		removed[id] = true
	}
	if len(removed) == 0 {
		return 0
	}

	for leadID, l := range s.leads {
		if removed[l.WebsiteID] {
			delete(s.leads, leadID)
		}
	}
	s.persistLocked()
	return len(removed)
}

// ReplaceForms swaps the whole form set of a website in one step and
// returns the stored forms. A new form whose name matches a previously
// stored one takes over that form's ID and creation time, so leads already
// collected through it stay attached.
func (s *Store) ReplaceForms(websiteID string, forms []WebsiteForm) ([]WebsiteForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.websites[websiteID]; !ok {
		return nil, ErrNotFound
	}

	previous := make(map[string][]WebsiteForm)
	for _, f := range s.forms[websiteID] {
		previous[f.Name] = append(previous[f.Name], f)
	}

	next := make([]WebsiteForm, 0, len(forms))
	for _, f := range forms {
		f = f.clone()
		f.WebsiteID = websiteID
		if prev := previous[f.Name]; len(prev) > 0 {
			f.ID = prev[0].ID
			f.CreatedAt = prev[0].CreatedAt
			previous[f.Name] = prev[1:]
		}
		next = append(next, f)
	}

	s.forms[websiteID] = next
	s.persistLocked()
	return cloneForms(next), nil
}

// Forms returns the stored forms of a website in saved order
func (s *Store) Forms(websiteID string) ([]WebsiteForm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.websites[websiteID]; !ok {
		return nil, ErrNotFound
	}
	return cloneForms(s.forms[websiteID]), nil
}

// FindForm returns the first stored form of a website with the given name
func (s *Store) FindForm(websiteID, name string) (WebsiteForm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.forms[websiteID] {
		if f.Name == name {
			return f.clone(), nil
		}
	}
	return WebsiteForm{}, ErrNotFound
}

// FormCounts returns the number of stored forms per website
func (s *Store) FormCounts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int, len(s.forms))
	for websiteID, forms := range s.forms {
		counts[websiteID] = len(forms)
	}
	return counts
}

// LeadCounts returns the number of leads per website and per form
func (s *Store) LeadCounts() (byWebsite, byForm map[string]int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byWebsite = make(map[string]int)
	byForm = make(map[string]int)
	for _, l := range s.leads {
		byWebsite[l.WebsiteID]++
		byForm[l.FormID]++
	}
	return byWebsite, byForm
}

// CreateLead stores a lead. Its website must exist.
func (s *Store) CreateLead(l Lead) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.websites[l.WebsiteID]; !ok {
		return Lead{}, ErrNotFound
	}
	if _, ok := s.leads[l.ID]; ok {
		return Lead{}, ErrConflict
	}

	l = l.clone()
	s.leads[l.ID] = l
	s.persistLocked()
	return l.clone(), nil
}

// GetLead returns a lead by ID
func (s *Store) GetLead(id string) (Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.leads[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return l.clone(), nil
}

// Leads returns every lead ordered by ID
func (s *Store) Leads() []Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Lead, 0, len(s.leads))
	for _, l := range s.leads {
		out = append(out, l.clone())
	}
	slices.SortFunc(out, func(a, b Lead) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// UpdateLead applies fn to a copy of the lead and stores the result. The
// lead's website must still exist afterwards.
func (s *Store) UpdateLead(id string, fn func(*Lead) error) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.leads[id]
	if !ok {
		return Lead{}, ErrNotFound
	}

	next := current.clone()
	if err := fn(&next); err != nil {
		return Lead{}, err
	}
	next.ID = current.ID
	if _, ok := s.websites[next.WebsiteID]; !ok {
		return Lead{}, ErrNotFound
	}

	s.leads[id] = next
	s.persistLocked()
	return next.clone(), nil
}

// DeleteLeads removes the given leads and returns how many existed
func (s *Store) DeleteLeads(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, id := range ids {
		if _, ok := s.leads[id]; ok {
			delete(s.leads, id)
			n++
		}
	}
	if n > 0 {
		s.persistLocked()
	}
	return n
}

func cloneForms(forms []WebsiteForm) []WebsiteForm {
	out := make([]WebsiteForm, len(forms))
	for i, f := range forms {
		out[i] = f.clone()
	}
	return out
}
