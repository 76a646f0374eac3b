// Package workflow sequences the sprint: an ordered list of stages, each
// activating a subset of processes onto the Kanban board once the previous
// stage's processes are done.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"procdeck/internal/api"
	"procdeck/internal/domain"
	"procdeck/internal/store"
)

// Stage is one step of the sprint sequence. Processes belong to a stage when
// their type is in Types and their workflow status label equals StatusLabel.
type Stage struct {
	Name        string
	StatusLabel string
	Types       []domain.ProcessType
	ActivateTo  domain.KanbanStatus
}

func (s Stage) matchesType(t domain.ProcessType) bool {
	for _, st := range s.Types {
		if st == t {
			return true
		}
	}
	return false
}

// DefaultStages is the built-in five-stage sequence. The first stage seeds the
// board's backlog; every later stage activates straight into todo.
func DefaultStages() []Stage {
	return []Stage{
		{Name: "Estrategia (PMBOK)", StatusLabel: "Base Estratégica", Types: []domain.ProcessType{domain.TypePMBOK}, ActivateTo: domain.KanbanBacklog},
		{Name: "Preparación (Scrum)", StatusLabel: "Fase 0: Preparación", Types: []domain.ProcessType{domain.TypeScrum}, ActivateTo: domain.KanbanTodo},
		{Name: "Planificación del Sprint", StatusLabel: "Ciclo del Sprint", Types: []domain.ProcessType{domain.TypeScrum}, ActivateTo: domain.KanbanTodo},
		{Name: "Ejecución Diaria (Híbrido)", StatusLabel: "Ritmo Diario", Types: []domain.ProcessType{domain.TypePMBOK, domain.TypeScrum}, ActivateTo: domain.KanbanTodo},
		{Name: "Lanzamiento y Cierre", StatusLabel: "Lanzamiento y Cierre", Types: []domain.ProcessType{domain.TypeScrum}, ActivateTo: domain.KanbanTodo},
	}
}

var (
	// ErrPrerequisite means the previous stage still has unfinished processes.
	ErrPrerequisite = errors.New("previous stage is not done")
)

// Client is the slice of the API client stage activation needs.
type Client interface {
	BulkUpdateKanbanStatus(ctx context.Context, t domain.ProcessType, ids []int, status domain.KanbanStatus) error
	UpsertCustomization(ctx context.Context, u api.CustomizationUpsert) (domain.Customization, error)
}

// Stater is the slice of the process store the runner reads and mirrors into.
type Stater interface {
	MergedView() []domain.Process
	Get(t domain.ProcessType, id int) (domain.Process, bool)
	Update(t domain.ProcessType, id int, patch store.Patch)
	UpsertCustomization(t domain.ProcessType, id int, c domain.Customization)
	SelectedCountry() *domain.Country
}

// Sprinter persists the sprint number and stage pointer across runs.
type Sprinter interface {
	Sprint() (number, stage int, err error)
	SetSprint(number, stage int) error
}

// Runner drives the sprint sequence over the store.
type Runner struct {
	stages  []Stage
	client  Client
	store   Stater
	session Sprinter
	notify  func(string)
}

// New creates a runner. stages may be nil for the default sequence; notify may
// be nil.
func New(stages []Stage, client Client, st Stater, session Sprinter, notify func(string)) *Runner {
	if len(stages) == 0 {
		stages = DefaultStages()
	}
	if notify == nil {
		notify = func(string) {}
	}
	return &Runner{stages: stages, client: client, store: st, session: session, notify: notify}
}

// Stages returns the configured sequence.
func (r *Runner) Stages() []Stage {
	out := make([]Stage, len(r.stages))
	copy(out, r.stages)
	return out
}

// Status returns the current sprint number, stage index, and stage.
func (r *Runner) Status() (sprint, stageIdx int, stage Stage, err error) {
	sprint, stageIdx, err = r.session.Sprint()
	if err != nil {
		return 0, 0, Stage{}, err
	}
	if stageIdx < 0 || stageIdx >= len(r.stages) {
		stageIdx = 0
	}
	return sprint, stageIdx, r.stages[stageIdx], nil
}

// PrerequisiteMet reports whether stage stageIdx may be activated: every
// process carrying the previous stage's status label must be done in the
// merged view. Vacuously true for the first stage or when no process carries
// the label.
func (r *Runner) PrerequisiteMet(stageIdx int) bool {
	if stageIdx <= 0 {
		return true
	}
	prev := r.stages[stageIdx-1]
	for _, p := range r.store.MergedView() {
		if p.StatusName() == prev.StatusLabel && p.EffectiveKanban() != domain.KanbanDone {
			return false
		}
	}
	return true
}

// Eligible returns the stage's processes still waiting to be activated:
// matching type and status label, with an effective Kanban status of
// unassigned or backlog.
func (r *Runner) Eligible(stage Stage) []domain.Process {
	var out []domain.Process
	for _, p := range r.store.MergedView() {
		if !stage.matchesType(p.Type) || p.StatusName() != stage.StatusLabel {
			continue
		}
		switch p.EffectiveKanban() {
		case domain.KanbanUnassigned, domain.KanbanBacklog:
			out = append(out, p)
		}
	}
	return out
}

// Advance activates the current stage and moves the pointer forward. The
// activation is one optimistic batch: all eligible processes move to the
// stage's target status locally, the backend calls run concurrently, and any
// failure rolls every process back and leaves the pointer untouched.
// Completing the last stage starts the next sprint at stage zero.
func (r *Runner) Advance(ctx context.Context) (Stage, int, error) {
	sprint, stageIdx, stage, err := r.Status()
	if err != nil {
		return Stage{}, 0, err
	}
	if !r.PrerequisiteMet(stageIdx) {
		return stage, 0, fmt.Errorf("%w: %s", ErrPrerequisite, r.stages[stageIdx-1].Name)
	}

	eligible := r.Eligible(stage)
	if len(eligible) > 0 {
		if err := r.activate(ctx, stage, eligible); err != nil {
			r.notify(fmt.Sprintf("No se pudo activar la etapa %s.", stage.Name))
			return stage, 0, err
		}
	}

	nextSprint, nextStage := sprint, stageIdx+1
	if nextStage >= len(r.stages) {
		nextSprint, nextStage = sprint+1, 0
	}
	if err := r.session.SetSprint(nextSprint, nextStage); err != nil {
		return stage, len(eligible), err
	}
	return stage, len(eligible), nil
}

// Reset rewinds the stage pointer to the start of the sequence without
// touching any process.
func (r *Runner) Reset() error {
	sprint, _, err := r.session.Sprint()
	if err != nil {
		return err
	}
	return r.session.SetSprint(sprint, 0)
}

func (r *Runner) activate(ctx context.Context, stage Stage, eligible []domain.Process) error {
	country := r.store.SelectedCountry()

	type undo struct {
		key     domain.Key
		kanban  domain.KanbanStatus
		customs []domain.Customization
	}
	undos := make([]undo, 0, len(eligible))
	for _, p := range eligible {
		base, ok := r.store.Get(p.Type, p.ID)
		if !ok {
			continue
		}
		undos = append(undos, undo{key: base.Key(), kanban: base.KanbanStatus, customs: base.Customizations})
	}

	// optimistic local move
	target := stage.ActivateTo
	for _, p := range eligible {
		if country == nil {
			r.store.Update(p.Type, p.ID, store.Patch{KanbanStatus: &target})
			continue
		}
		cz := domain.Customization{CountryCode: country.Code, KanbanStatus: target}
		if p.ActiveCustomization != nil {
			cz = p.ActiveCustomization.Clone()
			cz.KanbanStatus = target
		}
		r.store.UpsertCustomization(p.Type, p.ID, cz)
	}

	rollback := func() {
		for _, u := range undos {
			k := u.kanban
			cs := u.customs
			r.store.Update(u.key.Type, u.key.ID, store.Patch{KanbanStatus: &k, Customizations: &cs})
		}
	}

	byType := map[domain.ProcessType][]int{}
	for _, p := range eligible {
		byType[p.Type] = append(byType[p.Type], p.ID)
	}

	g, gctx := errgroup.WithContext(ctx)
	for t, ids := range byType {
		g.Go(func() error {
			return r.client.BulkUpdateKanbanStatus(gctx, t, ids, target)
		})
	}
	if country != nil {
		for _, p := range eligible {
			g.Go(func() error {
				cz := domain.Customization{CountryCode: country.Code, KanbanStatus: target}
				if p.ActiveCustomization != nil {
					cz = p.ActiveCustomization.Clone()
					cz.KanbanStatus = target
				}
				saved, err := r.client.UpsertCustomization(gctx, api.CustomizationUpsert{
					ProcessID:    p.ID,
					ProcessType:  p.Type,
					CountryCode:  cz.CountryCode,
					Inputs:       cz.Inputs,
					Tools:        cz.Tools,
					Outputs:      cz.Outputs,
					KanbanStatus: cz.KanbanStatus,
				})
				if err != nil {
					return err
				}
				if saved.CountryCode == "" {
					saved.CountryCode = cz.CountryCode
				}
				r.store.UpsertCustomization(p.Type, p.ID, saved)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		rollback()
		return err
	}
	return nil
}
