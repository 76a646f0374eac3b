package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"procdeck/internal/domain"
	"procdeck/internal/session"
	"procdeck/internal/store"
)

type fakeLister struct {
	pmbok []domain.Process
	scrum []domain.Process
	err   error
}

func (f fakeLister) ListProcesses(_ context.Context, t domain.ProcessType) ([]domain.Process, error) {
	if f.err != nil {
		return nil, f.err
	}
	if t == domain.TypeScrum {
		return f.scrum, nil
	}
	return f.pmbok, nil
}

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	lister := fakeLister{
		pmbok: []domain.Process{{
			ID: 1, Type: domain.TypePMBOK, Number: 1, Name: "Acta de Constitución",
			KanbanStatus: domain.KanbanBacklog,
			Inputs:       []domain.ITTOItem{{Name: "Caso de Negocio"}},
		}},
		scrum: []domain.Process{{
			ID: 1, Type: domain.TypeScrum, Number: 1, Name: "Sprint Planning",
			KanbanStatus: domain.KanbanUnassigned,
		}},
	}
	s, err := store.New(lister, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func TestLoadNormalizesAndKeysByTypeAndID(t *testing.T) {
	s := seededStore(t)
	p, ok := s.Get(domain.TypePMBOK, 1)
	if !ok {
		t.Fatalf("pmbok 1 missing")
	}
	if p.Inputs[0].ID == "" {
		t.Fatalf("expected normalized item id")
	}
	// same numeric id, different type, is a distinct entity
	sp, ok := s.Get(domain.TypeScrum, 1)
	if !ok || sp.Name != "Sprint Planning" {
		t.Fatalf("scrum 1 missing or wrong: %+v", sp)
	}
}

func TestLoadFailureFailsClosed(t *testing.T) {
	boom := errors.New("backend down")
	s, err := store.New(fakeLister{err: boom}, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := s.Load(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	if s.Loaded() {
		t.Fatalf("store must not report loaded")
	}
	if s.Err() == nil {
		t.Fatalf("expected Err() set")
	}
	if len(s.Snapshot()) != 0 {
		t.Fatalf("expected empty store after failed load")
	}
}

func TestUpdateShallowMergesAndIgnoresUnknownKeys(t *testing.T) {
	s := seededStore(t)
	done := domain.KanbanDone
	s.Update(domain.TypePMBOK, 1, store.Patch{KanbanStatus: &done})
	p, _ := s.Get(domain.TypePMBOK, 1)
	if p.KanbanStatus != domain.KanbanDone {
		t.Fatalf("kanban = %s", p.KanbanStatus)
	}
	if p.Name != "Acta de Constitución" {
		t.Fatalf("untouched fields must survive the merge")
	}
	// unknown key is a no-op, not a panic
	s.Update(domain.TypePMBOK, 99, store.Patch{KanbanStatus: &done})
}

func TestUpsertCustomizationKeepsOnePerCountry(t *testing.T) {
	s := seededStore(t)
	s.UpsertCustomization(domain.TypePMBOK, 1, domain.Customization{ID: 1, CountryCode: "co", KanbanStatus: domain.KanbanTodo})
	s.UpsertCustomization(domain.TypePMBOK, 1, domain.Customization{ID: 2, CountryCode: "mx", KanbanStatus: domain.KanbanTodo})
	// repeated upserts for the same country (case differs) replace, not append
	s.UpsertCustomization(domain.TypePMBOK, 1, domain.Customization{ID: 3, CountryCode: "CO", KanbanStatus: domain.KanbanDone})

	p, _ := s.Get(domain.TypePMBOK, 1)
	if len(p.Customizations) != 2 {
		t.Fatalf("expected 2 customizations, got %d", len(p.Customizations))
	}
	var co *domain.Customization
	for i := range p.Customizations {
		if p.Customizations[i].ID == 3 {
			co = &p.Customizations[i]
		}
	}
	if co == nil || co.KanbanStatus != domain.KanbanDone {
		t.Fatalf("expected latest upsert to win for co: %+v", p.Customizations)
	}
}

func TestMergedViewFollowsSelection(t *testing.T) {
	s := seededStore(t)
	s.UpsertCustomization(domain.TypePMBOK, 1, domain.Customization{
		ID: 1, CountryCode: "co", KanbanStatus: domain.KanbanInProgress,
		Inputs: []domain.ITTOItem{{ID: "x", Name: "Entrada CO"}},
	})
	if err := s.SetSelectedCountry(&domain.Country{Code: "co", Name: "Colombia"}); err != nil {
		t.Fatalf("select country: %v", err)
	}
	view := s.MergedView()
	var pm *domain.Process
	for i := range view {
		if view[i].Type == domain.TypePMBOK {
			pm = &view[i]
		}
	}
	if pm.ActiveCustomization == nil || pm.EffectiveKanban() != domain.KanbanInProgress {
		t.Fatalf("expected country view active: %+v", pm)
	}
	if err := s.SetSelectedCountry(nil); err != nil {
		t.Fatalf("clear country: %v", err)
	}
	view = s.MergedView()
	for _, p := range view {
		if p.ActiveCustomization != nil {
			t.Fatalf("expected base view with no country selected")
		}
	}
}

func TestMergedViewIsSafeDuringConcurrentUpserts(t *testing.T) {
	s := seededStore(t)
	if err := s.SetSelectedCountry(&domain.Country{Code: "co", Name: "Colombia"}); err != nil {
		t.Fatalf("select country: %v", err)
	}
	s.UpsertCustomization(domain.TypePMBOK, 1, domain.Customization{
		ID: 1, CountryCode: "co", KanbanStatus: domain.KanbanTodo,
		Inputs: []domain.ITTOItem{{ID: "x", Name: "Entrada CO"}},
	})

	// readers render merged views while writers rewrite the customization
	// record in place; every observed view must be one of the written states
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		statuses := []domain.KanbanStatus{domain.KanbanTodo, domain.KanbanInProgress, domain.KanbanDone}
		for i := 0; i < 500; i++ {
			s.UpsertCustomization(domain.TypePMBOK, 1, domain.Customization{
				ID: 1, CountryCode: "co", KanbanStatus: statuses[i%len(statuses)],
				Inputs: []domain.ITTOItem{{ID: "x", Name: "Entrada CO"}},
			})
		}
		close(done)
	}()
	go func() {
		defer wg.Done()
		for {
			for _, p := range s.MergedView() {
				if p.Type != domain.TypePMBOK {
					continue
				}
				if p.ActiveCustomization == nil {
					t.Errorf("merged view lost the customization")
					return
				}
				if st := p.EffectiveKanban(); !st.Valid() {
					t.Errorf("merged view observed torn status %q", st)
					return
				}
			}
			select {
			case <-done:
				return
			default:
			}
		}
	}()
	wg.Wait()
}

func TestCountrySelectionPersistsAcrossStores(t *testing.T) {
	dir := t.TempDir()
	sess, err := session.Open(dir)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer sess.Close()

	s1, err := store.New(fakeLister{}, sess)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := s1.SetSelectedCountry(&domain.Country{Code: "pe", Name: "Perú"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	s2, err := store.New(fakeLister{}, sess)
	if err != nil {
		t.Fatalf("second store: %v", err)
	}
	c := s2.SelectedCountry()
	if c == nil || c.Code != "pe" {
		t.Fatalf("expected restored selection, got %+v", c)
	}
}
