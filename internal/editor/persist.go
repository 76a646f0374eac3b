package editor

import (
	"context"
	"strings"

	"procdeck/internal/api"
	"procdeck/internal/domain"
	"procdeck/internal/optimistic"
	"procdeck/internal/store"
)

// commit runs one structural mutation end to end: apply to the working copy,
// mirror into the process store, persist to the backend, and on failure
// restore both to the pre-mutation snapshot and fire the failure notification
// exactly once.
func (e *Editor) commit(ctx context.Context, apply func(), failMsg string) error {
	snapshot := e.process.Clone()
	err := optimistic.Run(ctx,
		func() {
			apply()
			e.mirrorToStore()
		},
		func() {
			e.process = snapshot.Clone()
			e.restoreStore(snapshot)
		},
		e.persist,
	)
	if err != nil {
		e.notify(failMsg)
	}
	return err
}

// workingCustomization assembles the country customization carrying the
// working copy's three lists, reusing the existing record's identity when one
// is active.
func (e *Editor) workingCustomization() domain.Customization {
	var cz domain.Customization
	if ac := e.process.ActiveCustomization; ac != nil {
		cz = ac.Clone()
	} else {
		cz.CountryCode = e.country.Code
		cz.KanbanStatus = e.process.KanbanStatus
	}
	cz.Inputs = domain.CloneItems(e.process.Inputs)
	cz.Tools = domain.CloneItems(e.process.Tools)
	cz.Outputs = domain.CloneItems(e.process.Outputs)
	return cz
}

// mirrorToStore pushes the optimistic local change into the process store so
// every other surface re-renders from it.
func (e *Editor) mirrorToStore() {
	if e.country == nil {
		list := e.process.List(e.category)
		patch := store.Patch{}
		switch e.category {
		case domain.CategoryInputs:
			patch.Inputs = &list
		case domain.CategoryTools:
			patch.Tools = &list
		case domain.CategoryOutputs:
			patch.Outputs = &list
		}
		e.store.Update(e.process.Type, e.process.ID, patch)
		return
	}
	cz := e.workingCustomization()
	ac := cz.Clone()
	e.process.ActiveCustomization = &ac
	e.upsertLocal(cz)
	e.store.UpsertCustomization(e.process.Type, e.process.ID, cz)
}

// restoreStore rolls the store back to the pre-mutation snapshot.
func (e *Editor) restoreStore(snapshot domain.Process) {
	if e.country == nil {
		list := snapshot.List(e.category)
		patch := store.Patch{}
		switch e.category {
		case domain.CategoryInputs:
			patch.Inputs = &list
		case domain.CategoryTools:
			patch.Tools = &list
		case domain.CategoryOutputs:
			patch.Outputs = &list
		}
		e.store.Update(e.process.Type, e.process.ID, patch)
		return
	}
	cs := snapshot.Customizations
	e.store.Update(e.process.Type, e.process.ID, store.Patch{Customizations: &cs})
}

// persist sends the mutation to the backend: a full replacement of the three
// ITTO arrays on the country's customization (created on first edit), or a
// plain list patch on the base record when no country is selected. On success
// the server's record reconciles the optimistic one (ids for fresh
// customizations).
func (e *Editor) persist(ctx context.Context) error {
	if e.country == nil {
		return e.client.UpdateITTOs(ctx, e.process.Type, e.process.ID, map[domain.Category][]domain.ITTOItem{
			e.category: e.process.List(e.category),
		})
	}
	cz := e.workingCustomization()
	saved, err := e.client.UpsertCustomization(ctx, api.CustomizationUpsert{
		ProcessID:    e.process.ID,
		ProcessType:  e.process.Type,
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
	ac := saved.Clone()
	e.process.ActiveCustomization = &ac
	e.upsertLocal(saved)
	e.store.UpsertCustomization(e.process.Type, e.process.ID, saved)
	return nil
}

// upsertLocal keeps the working copy's customizations array consistent with
// the store's at-most-one-per-country invariant.
func (e *Editor) upsertLocal(cz domain.Customization) {
	for i := range e.process.Customizations {
		if strings.EqualFold(e.process.Customizations[i].CountryCode, cz.CountryCode) {
			e.process.Customizations[i] = cz.Clone()
			return
		}
	}
	e.process.Customizations = append(e.process.Customizations, cz.Clone())
}
