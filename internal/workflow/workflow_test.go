package workflow_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"procdeck/internal/api"
	"procdeck/internal/domain"
	"procdeck/internal/store"
	"procdeck/internal/workflow"
)

type fakeClient struct {
	mu       sync.Mutex
	failBulk bool
	bulk     map[domain.ProcessType][]int
	bulkTo   domain.KanbanStatus
	upserts  []api.CustomizationUpsert
	nextID   int
}

var errBackend = errors.New("backend rejected the batch")

func (f *fakeClient) BulkUpdateKanbanStatus(_ context.Context, t domain.ProcessType, ids []int, status domain.KanbanStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failBulk {
		return errBackend
	}
	if f.bulk == nil {
		f.bulk = map[domain.ProcessType][]int{}
	}
	f.bulk[t] = append(f.bulk[t], ids...)
	f.bulkTo = status
	return nil
}

func (f *fakeClient) UpsertCustomization(_ context.Context, u api.CustomizationUpsert) (domain.Customization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, u)
	f.nextID++
	return domain.Customization{
		ID:           f.nextID,
		CountryCode:  u.CountryCode,
		KanbanStatus: u.KanbanStatus,
	}, nil
}

type memSprint struct {
	number, stage int
}

func (m *memSprint) Sprint() (int, int, error) { return m.number, m.stage, nil }
func (m *memSprint) SetSprint(n, s int) error  { m.number, m.stage = n, s; return nil }

type fakeLister struct{ ps []domain.Process }

func (f fakeLister) ListProcesses(_ context.Context, t domain.ProcessType) ([]domain.Process, error) {
	var out []domain.Process
	for _, p := range f.ps {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out, nil
}

func proc(t domain.ProcessType, id int, label string, k domain.KanbanStatus) domain.Process {
	return domain.Process{
		ID: id, Type: t, Number: id, Name: label,
		Status:       &domain.StatusRef{Name: label},
		KanbanStatus: k,
	}
}

func seeded(t *testing.T, ps ...domain.Process) *store.Store {
	t.Helper()
	s, err := store.New(fakeLister{ps: ps}, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func TestFirstStageActivatesIntoBacklog(t *testing.T) {
	s := seeded(t,
		proc(domain.TypePMBOK, 1, "Base Estratégica", domain.KanbanUnassigned),
		proc(domain.TypePMBOK, 2, "Base Estratégica", domain.KanbanUnassigned),
		proc(domain.TypePMBOK, 3, "Ritmo Diario", domain.KanbanUnassigned),
	)
	c := &fakeClient{}
	r := workflow.New(nil, c, s, &memSprint{number: 1}, nil)

	stage, n, err := r.Advance(context.Background())
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if stage.Name != "Estrategia (PMBOK)" || n != 2 {
		t.Fatalf("stage=%q n=%d", stage.Name, n)
	}
	sort.Ints(c.bulk[domain.TypePMBOK])
	if len(c.bulk[domain.TypePMBOK]) != 2 || c.bulkTo != domain.KanbanBacklog {
		t.Fatalf("bulk call wrong: %v -> %s", c.bulk, c.bulkTo)
	}
	for _, id := range []int{1, 2} {
		p, _ := s.Get(domain.TypePMBOK, id)
		if p.KanbanStatus != domain.KanbanBacklog {
			t.Fatalf("process %d not moved: %s", id, p.KanbanStatus)
		}
	}
	// the off-stage process stays where it was
	p, _ := s.Get(domain.TypePMBOK, 3)
	if p.KanbanStatus != domain.KanbanUnassigned {
		t.Fatalf("unrelated process moved: %s", p.KanbanStatus)
	}
}

func TestLaterStageActivatesIntoTodo(t *testing.T) {
	s := seeded(t,
		proc(domain.TypeScrum, 1, "Fase 0: Preparación", domain.KanbanUnassigned),
	)
	c := &fakeClient{}
	r := workflow.New(nil, c, s, &memSprint{number: 1, stage: 1}, nil)

	if _, _, err := r.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if c.bulkTo != domain.KanbanTodo {
		t.Fatalf("target = %s, want todo", c.bulkTo)
	}
}

func TestPrerequisiteBlocksWhenPreviousStageUnfinished(t *testing.T) {
	s := seeded(t,
		proc(domain.TypePMBOK, 1, "Base Estratégica", domain.KanbanInProgress),
		proc(domain.TypeScrum, 2, "Fase 0: Preparación", domain.KanbanUnassigned),
	)
	c := &fakeClient{}
	sp := &memSprint{number: 1, stage: 1}
	r := workflow.New(nil, c, s, sp, nil)

	if _, _, err := r.Advance(context.Background()); !errors.Is(err, workflow.ErrPrerequisite) {
		t.Fatalf("expected prerequisite error, got %v", err)
	}
	if sp.stage != 1 {
		t.Fatalf("pointer moved on blocked advance")
	}
	if len(c.bulk) != 0 {
		t.Fatalf("blocked advance must not call the backend")
	}
}

func TestPrerequisiteVacuouslyTrueWithoutMatchingProcesses(t *testing.T) {
	// nothing carries the first stage's label, so stage two may start
	s := seeded(t,
		proc(domain.TypeScrum, 1, "Fase 0: Preparación", domain.KanbanUnassigned),
	)
	r := workflow.New(nil, &fakeClient{}, s, &memSprint{number: 1, stage: 1}, nil)
	if !r.PrerequisiteMet(1) {
		t.Fatalf("expected vacuous prerequisite")
	}
}

func TestAdvanceSkipsAlreadyActiveProcesses(t *testing.T) {
	s := seeded(t,
		proc(domain.TypePMBOK, 1, "Base Estratégica", domain.KanbanDone),
		proc(domain.TypePMBOK, 2, "Base Estratégica", domain.KanbanBacklog),
	)
	c := &fakeClient{}
	r := workflow.New(nil, c, s, &memSprint{number: 1}, nil)

	_, n, err := r.Advance(context.Background())
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if n != 1 || len(c.bulk[domain.TypePMBOK]) != 1 || c.bulk[domain.TypePMBOK][0] != 2 {
		t.Fatalf("expected only the backlog process activated: n=%d bulk=%v", n, c.bulk)
	}
	// done stays done
	p, _ := s.Get(domain.TypePMBOK, 1)
	if p.KanbanStatus != domain.KanbanDone {
		t.Fatalf("done process moved: %s", p.KanbanStatus)
	}
}

func TestAdvanceRollsBackOnBulkFailure(t *testing.T) {
	s := seeded(t,
		proc(domain.TypePMBOK, 1, "Base Estratégica", domain.KanbanUnassigned),
	)
	c := &fakeClient{failBulk: true}
	sp := &memSprint{number: 1}
	var alerts []string
	r := workflow.New(nil, c, s, sp, func(m string) { alerts = append(alerts, m) })

	if _, _, err := r.Advance(context.Background()); !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	p, _ := s.Get(domain.TypePMBOK, 1)
	if p.KanbanStatus != domain.KanbanUnassigned {
		t.Fatalf("expected rollback, got %s", p.KanbanStatus)
	}
	if sp.stage != 0 {
		t.Fatalf("pointer advanced despite failure")
	}
	if len(alerts) != 1 {
		t.Fatalf("expected one notification, got %d", len(alerts))
	}
}

func TestAdvanceWithCountryCreatesCustomizations(t *testing.T) {
	s := seeded(t,
		proc(domain.TypePMBOK, 1, "Base Estratégica", domain.KanbanUnassigned),
	)
	if err := s.SetSelectedCountry(&domain.Country{Code: "co", Name: "Colombia"}); err != nil {
		t.Fatalf("select country: %v", err)
	}
	c := &fakeClient{}
	r := workflow.New(nil, c, s, &memSprint{number: 1}, nil)

	if _, _, err := r.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(c.upserts) != 1 || c.upserts[0].CountryCode != "co" || c.upserts[0].KanbanStatus != domain.KanbanBacklog {
		t.Fatalf("customization upserts wrong: %+v", c.upserts)
	}
	p, _ := s.MergedProcess(domain.TypePMBOK, 1)
	if p.EffectiveKanban() != domain.KanbanBacklog {
		t.Fatalf("merged view not activated: %s", p.EffectiveKanban())
	}
}

func TestCompletingLastStageStartsNextSprint(t *testing.T) {
	s := seeded(t,
		proc(domain.TypeScrum, 1, "Lanzamiento y Cierre", domain.KanbanUnassigned),
	)
	sp := &memSprint{number: 3, stage: 4}
	r := workflow.New(nil, &fakeClient{}, s, sp, nil)

	// stages 1..4 have no unfinished predecessors in this fixture
	if _, _, err := r.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if sp.number != 4 || sp.stage != 0 {
		t.Fatalf("expected sprint 4 stage 0, got sprint %d stage %d", sp.number, sp.stage)
	}
}

func TestResetRewindsStageOnly(t *testing.T) {
	sp := &memSprint{number: 2, stage: 3}
	r := workflow.New(nil, &fakeClient{}, seeded(t), sp, nil)
	if err := r.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if sp.number != 2 || sp.stage != 0 {
		t.Fatalf("reset wrong: sprint %d stage %d", sp.number, sp.stage)
	}
}
