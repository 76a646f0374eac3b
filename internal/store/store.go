// Package store owns the canonical in-memory process collection for a
// session. Every other component reads merged copies and mutates through the
// narrow Update/UpsertCustomization entry points; nothing mutates the array
// directly.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"procdeck/internal/domain"
)

// Lister is the slice of the API client the store needs for its initial seed.
type Lister interface {
	ListProcesses(ctx context.Context, t domain.ProcessType) ([]domain.Process, error)
}

// CountrySaver persists the global country selection across runs.
type CountrySaver interface {
	SelectedCountry() (*domain.Country, error)
	SetSelectedCountry(*domain.Country) error
}

// Store holds the session's process entities keyed by (type, id).
type Store struct {
	mu      sync.Mutex
	client  Lister
	saver   CountrySaver
	byKey   map[domain.Key]int
	entries []domain.Process
	country *domain.Country
	loaded  bool
	loadErr error
}

// New creates an empty store. saver may be nil (no durable country
// selection); otherwise the last-used country is restored immediately.
func New(client Lister, saver CountrySaver) (*Store, error) {
	s := &Store{client: client, saver: saver, byKey: map[domain.Key]int{}}
	if saver != nil {
		c, err := saver.SelectedCountry()
		if err != nil {
			return nil, fmt.Errorf("restore country selection: %w", err)
		}
		s.country = c
	}
	return s, nil
}

// Load seeds the store once from the backend, fetching both process kinds and
// normalizing every ITTO item. A failure leaves the store empty with Err()
// set: the session is considered broken and there is no automatic retry.
func (s *Store) Load(ctx context.Context) error {
	var all []domain.Process
	for _, t := range []domain.ProcessType{domain.TypePMBOK, domain.TypeScrum} {
		ps, err := s.client.ListProcesses(ctx, t)
		if err != nil {
			s.mu.Lock()
			s.loaded = false
			s.loadErr = fmt.Errorf("load %s processes: %w", t, err)
			s.entries = nil
			s.byKey = map[domain.Key]int{}
			s.mu.Unlock()
			return s.loadErr
		}
		all = append(all, ps...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]domain.Process, 0, len(all))
	s.byKey = make(map[domain.Key]int, len(all))
	for _, p := range all {
		domain.NormalizeProcess(&p)
		s.byKey[p.Key()] = len(s.entries)
		s.entries = append(s.entries, p)
	}
	s.loaded = true
	s.loadErr = nil
	return nil
}

// Loaded reports whether the initial seed completed.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Err returns the fatal load error, if any.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Patch is a shallow merge applied by Update; nil fields are left untouched.
type Patch struct {
	KanbanStatus   *domain.KanbanStatus
	Inputs         *[]domain.ITTOItem
	Tools          *[]domain.ITTOItem
	Outputs        *[]domain.ITTOItem
	Customizations *[]domain.Customization
}

// Update shallow-merges patch into the matching entity; no-op when the key is
// unknown. Used for optimistic updates and for reconciliation after every
// mutation.
func (s *Store) Update(t domain.ProcessType, id int, patch Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byKey[domain.Key{Type: t, ID: id}]
	if !ok {
		return
	}
	p := &s.entries[idx]
	if patch.KanbanStatus != nil {
		p.KanbanStatus = *patch.KanbanStatus
	}
	if patch.Inputs != nil {
		p.Inputs = domain.CloneItems(*patch.Inputs)
	}
	if patch.Tools != nil {
		p.Tools = domain.CloneItems(*patch.Tools)
	}
	if patch.Outputs != nil {
		p.Outputs = domain.CloneItems(*patch.Outputs)
	}
	if patch.Customizations != nil {
		cs := make([]domain.Customization, len(*patch.Customizations))
		for i, c := range *patch.Customizations {
			cs[i] = c.Clone()
		}
		p.Customizations = cs
	}
}

// UpsertCustomization replaces the customization matching the record's
// country (case-insensitive) or appends it. This is the single place
// customization arrays are mutated, which keeps the at-most-one-per-country
// invariant centrally enforced.
func (s *Store) UpsertCustomization(t domain.ProcessType, id int, c domain.Customization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byKey[domain.Key{Type: t, ID: id}]
	if !ok {
		return
	}
	p := &s.entries[idx]
	cc := c.Clone()
	for i := range p.Customizations {
		if strings.EqualFold(p.Customizations[i].CountryCode, cc.CountryCode) {
			p.Customizations[i] = cc
			return
		}
	}
	p.Customizations = append(p.Customizations, cc)
}

// Get returns a deep copy of one entity.
func (s *Store) Get(t domain.ProcessType, id int) (domain.Process, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byKey[domain.Key{Type: t, ID: id}]
	if !ok {
		return domain.Process{}, false
	}
	return s.entries[idx].Clone(), true
}

// Snapshot returns deep copies of every entity in load order.
func (s *Store) Snapshot() []domain.Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Process, len(s.entries))
	for i, p := range s.entries {
		out[i] = p.Clone()
	}
	return out
}

// MergedView returns every entity merged with the active country selection,
// the slice every display surface renders from.
func (s *Store) MergedView() []domain.Process {
	s.mu.Lock()
	code := ""
	if s.country != nil {
		code = s.country.Code
	}
	// deep copies: shallow ones would share the customization arrays that
	// UpsertCustomization rewrites in place
	entries := make([]domain.Process, len(s.entries))
	for i, p := range s.entries {
		entries[i] = p.Clone()
	}
	s.mu.Unlock()

	out := make([]domain.Process, len(entries))
	for i, p := range entries {
		out[i] = domain.Merge(p, code)
	}
	return out
}

// MergedProcess returns one entity merged with the active country selection.
func (s *Store) MergedProcess(t domain.ProcessType, id int) (domain.Process, bool) {
	p, ok := s.Get(t, id)
	if !ok {
		return domain.Process{}, false
	}
	code := ""
	if c := s.SelectedCountry(); c != nil {
		code = c.Code
	}
	return domain.Merge(p, code), true
}

// SelectedCountry returns a copy of the active selection, nil for "all".
func (s *Store) SelectedCountry() *domain.Country {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.country == nil {
		return nil
	}
	c := *s.country
	return &c
}

// SetSelectedCountry updates the in-memory selection and the durable state;
// nil clears the selection.
func (s *Store) SetSelectedCountry(c *domain.Country) error {
	if s.saver != nil {
		if err := s.saver.SetSelectedCountry(c); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c == nil {
		s.country = nil
	} else {
		cc := *c
		s.country = &cc
	}
	return nil
}
