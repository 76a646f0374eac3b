// Package board groups the merged process view into Kanban columns and moves
// cards between them.
package board

import (
	"context"
	"errors"
	"fmt"

	"procdeck/internal/domain"
	"procdeck/internal/optimistic"
	"procdeck/internal/store"
)

// ErrUnknownProcess means the (type, id) pair is not in the store.
var ErrUnknownProcess = errors.New("unknown process")

// Column is one board column with its cards in store order.
type Column struct {
	Status    domain.KanbanStatus
	Processes []domain.Process
}

// Columns groups a merged view into the five fixed board columns. Processes
// with an effective status of unassigned are left off the board; Unassigned
// collects them.
func Columns(view []domain.Process) []Column {
	cols := make([]Column, 0, 5)
	for _, st := range domain.BoardColumns() {
		col := Column{Status: st}
		for _, p := range view {
			if p.EffectiveKanban() == st {
				col.Processes = append(col.Processes, p)
			}
		}
		cols = append(cols, col)
	}
	return cols
}

// Unassigned returns the processes not yet on the board.
func Unassigned(view []domain.Process) []domain.Process {
	var out []domain.Process
	for _, p := range view {
		if p.EffectiveKanban() == domain.KanbanUnassigned {
			out = append(out, p)
		}
	}
	return out
}

// Client is the slice of the API client a move needs.
type Client interface {
	UpdateKanbanStatus(ctx context.Context, t domain.ProcessType, id int, status domain.KanbanStatus) error
	UpdateCustomizationKanban(ctx context.Context, id int, status domain.KanbanStatus) (domain.Customization, error)
}

// Stater is the slice of the process store a move reads and mirrors into.
type Stater interface {
	MergedProcess(t domain.ProcessType, id int) (domain.Process, bool)
	Get(t domain.ProcessType, id int) (domain.Process, bool)
	Update(t domain.ProcessType, id int, patch store.Patch)
	UpsertCustomization(t domain.ProcessType, id int, c domain.Customization)
}

// Board moves cards with optimistic updates.
type Board struct {
	client Client
	store  Stater
	notify func(string)
}

// New creates a board over the store; notify may be nil.
func New(client Client, st Stater, notify func(string)) *Board {
	if notify == nil {
		notify = func(string) {}
	}
	return &Board{client: client, store: st, notify: notify}
}

// Move sets a card's Kanban status. When the active country has a stored
// customization for the process the move targets the customization record,
// otherwise the base process. The store is updated optimistically and rolled
// back on failure with a single notification.
func (b *Board) Move(ctx context.Context, t domain.ProcessType, id int, status domain.KanbanStatus) error {
	merged, ok := b.store.MergedProcess(t, id)
	if !ok {
		return ErrUnknownProcess
	}
	base, _ := b.store.Get(t, id)

	var err error
	if cz := merged.ActiveCustomization; cz != nil && cz.ID != 0 {
		err = b.moveCustomization(ctx, t, id, *cz, base, status)
	} else {
		err = b.moveProcess(ctx, t, id, base, status)
	}
	if err != nil {
		b.notify(fmt.Sprintf("No se pudo mover %s.", merged.Name))
	}
	return err
}

func (b *Board) moveProcess(ctx context.Context, t domain.ProcessType, id int, base domain.Process, status domain.KanbanStatus) error {
	prev := base.KanbanStatus
	return optimistic.Run(ctx,
		func() { b.store.Update(t, id, store.Patch{KanbanStatus: &status}) },
		func() { b.store.Update(t, id, store.Patch{KanbanStatus: &prev}) },
		func(ctx context.Context) error {
			return b.client.UpdateKanbanStatus(ctx, t, id, status)
		},
	)
}

func (b *Board) moveCustomization(ctx context.Context, t domain.ProcessType, id int, cz domain.Customization, base domain.Process, status domain.KanbanStatus) error {
	prev := base.Customizations
	moved := cz.Clone()
	moved.KanbanStatus = status
	return optimistic.Run(ctx,
		func() { b.store.UpsertCustomization(t, id, moved) },
		func() { b.store.Update(t, id, store.Patch{Customizations: &prev}) },
		func(ctx context.Context) error {
			saved, err := b.client.UpdateCustomizationKanban(ctx, cz.ID, status)
			if err != nil {
				return err
			}
			if saved.CountryCode == "" {
				saved.CountryCode = cz.CountryCode
			}
			b.store.UpsertCustomization(t, id, saved)
			return nil
		},
	)
}
