// Package editor implements the stateful list editor for one ITTO category of
// one process. Each of the three lists of a process gets its own independent
// editor. Structural mutations are optimistic: they land on the local working
// copy and the process store first, then persist to the backend, and roll both
// back on failure with a single user-visible notification.
package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"procdeck/internal/api"
	"procdeck/internal/domain"
	"procdeck/internal/store"
)

// State is the editor's interaction state.
type State int

const (
	Viewing State = iota
	EditingExisting
	EditingNew
	ConfirmingDelete
	AddingVersion
)

func (s State) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case EditingExisting:
		return "editing"
	case EditingNew:
		return "editing-new"
	case ConfirmingDelete:
		return "confirming-delete"
	case AddingVersion:
		return "adding-version"
	}
	return "unknown"
}

var (
	// ErrLocked rejects structural edits while the process's effective Kanban
	// status is in_progress: once work has begun for a country, ITTO content
	// is frozen to prevent mid-flight scope drift.
	ErrLocked = errors.New("process is in progress; its document lists are locked")
	// ErrNotFound means the referenced item or version is not in the list.
	ErrNotFound = errors.New("item not found")
	// ErrState rejects a transition that is not legal from the current state.
	ErrState = errors.New("action not available in the current editor state")
)

// Persister is the slice of the API client the editor persists through.
type Persister interface {
	UpdateITTOs(ctx context.Context, t domain.ProcessType, id int, lists map[domain.Category][]domain.ITTOItem) error
	UpsertCustomization(ctx context.Context, u api.CustomizationUpsert) (domain.Customization, error)
}

// Stater is the slice of the process store the editor mirrors into.
type Stater interface {
	Update(t domain.ProcessType, id int, patch store.Patch)
	UpsertCustomization(t domain.ProcessType, id int, c domain.Customization)
}

// Notifier surfaces a user-visible failure alert. Exactly one notification
// fires per failed mutation.
type Notifier func(msg string)

// Editor edits one ITTO list of one process.
type Editor struct {
	process  domain.Process
	category domain.Category
	country  *domain.Country
	client   Persister
	store    Stater
	notify   Notifier

	state    State
	targetID string
	parentID string
}

// New creates an editor over a merged view of a process. country must match
// the merge the view was produced with; nil edits the base record.
func New(view domain.Process, category domain.Category, country *domain.Country, client Persister, st Stater, notify Notifier) *Editor {
	if notify == nil {
		notify = func(string) {}
	}
	return &Editor{
		process:  view.Clone(),
		category: category,
		country:  country,
		client:   client,
		store:    st,
		notify:   notify,
		state:    Viewing,
	}
}

// State returns the current interaction state.
func (e *Editor) State() State { return e.state }

// TargetID returns the item the current state refers to, empty when Viewing.
func (e *Editor) TargetID() string { return e.targetID }

// Process returns a copy of the working view.
func (e *Editor) Process() domain.Process { return e.process.Clone() }

// Items returns a copy of the list being edited.
func (e *Editor) Items() []domain.ITTOItem {
	return domain.CloneItems(e.process.List(e.category))
}

// Locked reports whether structural edits are frozen (effective status
// in_progress). Locked editors still allow viewing.
func (e *Editor) Locked() bool {
	return e.process.EffectiveKanban() == domain.KanbanInProgress
}

func (e *Editor) find(id string) *domain.ITTOItem {
	items := e.process.List(e.category)
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

// findParentOf returns the parent whose versions contain id, nil when id is a
// top-level item or unknown.
func (e *Editor) findParentOf(id string) *domain.ITTOItem {
	items := e.process.List(e.category)
	for i := range items {
		for j := range items[i].Versions {
			if items[i].Versions[j].ID == id {
				return &items[i]
			}
		}
	}
	return nil
}

// StartEdit moves Viewing -> EditingExisting for an item.
func (e *Editor) StartEdit(itemID string) error {
	if e.Locked() {
		return ErrLocked
	}
	if e.state != Viewing {
		return ErrState
	}
	if e.find(itemID) == nil && e.findParentOf(itemID) == nil {
		return ErrNotFound
	}
	e.state = EditingExisting
	e.targetID = itemID
	return nil
}

// StartAdd appends a placeholder item to the list immediately (optimistic,
// local only; nothing is persisted until the first Save) and moves to
// EditingNew. Returns the generated item id.
func (e *Editor) StartAdd() (string, error) {
	if e.Locked() {
		return "", ErrLocked
	}
	if e.state != Viewing {
		return "", ErrState
	}
	item := domain.ITTOItem{ID: uuid.NewString(), Name: "Nuevo Documento"}
	e.process.SetList(e.category, append(e.process.List(e.category), item))
	e.state = EditingNew
	e.targetID = item.ID
	return item.ID, nil
}

// Save persists name/url edits for the item being edited and returns to
// Viewing. For Scrum processes the key-element marker is stripped from the
// editable text and re-appended on save when the item was originally marked,
// whatever the user typed.
func (e *Editor) Save(ctx context.Context, name, url string) error {
	if e.state != EditingExisting && e.state != EditingNew {
		return ErrState
	}
	id := e.targetID
	e.state = Viewing
	e.targetID = ""

	target := e.find(id)
	if target == nil {
		target = e.findParentOf(id)
		if target == nil {
			return ErrNotFound
		}
		for i := range target.Versions {
			if target.Versions[i].ID == id {
				target = &target.Versions[i]
				break
			}
		}
	}
	// the marker is Scrum metadata; PMBOK names keep whatever the user typed
	newName := name
	if e.process.Type == domain.TypeScrum {
		newName = domain.MarkedName(domain.CleanName(name), domain.IsKeyElement(target.Name))
	}

	return e.commit(ctx, func() {
		item := e.lookup(id)
		if item == nil {
			return
		}
		item.Name = newName
		item.URL = url
	}, fmt.Sprintf("No se pudieron guardar los cambios en %s.", e.category.Title()))
}

// Cancel abandons the current edit. Cancelling EditingNew removes the
// just-appended placeholder without any network call; cancelling
// EditingExisting simply discards in-UI edits.
func (e *Editor) Cancel() {
	if e.state == EditingNew {
		items := e.process.List(e.category)
		kept := items[:0]
		for _, it := range items {
			if it.ID != e.targetID {
				kept = append(kept, it)
			}
		}
		e.process.SetList(e.category, kept)
	}
	e.state = Viewing
	e.targetID = ""
	e.parentID = ""
}

// RequestDelete moves Viewing -> ConfirmingDelete. Deletion always requires
// an explicit confirm; documents are not safely disposable.
func (e *Editor) RequestDelete(itemID string) error {
	if e.Locked() {
		return ErrLocked
	}
	if e.state != Viewing {
		return ErrState
	}
	parentID := ""
	if e.find(itemID) == nil {
		parent := e.findParentOf(itemID)
		if parent == nil {
			return ErrNotFound
		}
		parentID = parent.ID
	}
	e.state = ConfirmingDelete
	e.targetID = itemID
	e.parentID = parentID
	return nil
}

// CancelDelete returns to Viewing with the item retained.
func (e *Editor) CancelDelete() {
	if e.state == ConfirmingDelete {
		e.state = Viewing
		e.targetID = ""
		e.parentID = ""
	}
}

// ConfirmDelete performs the pending deletion and persists it.
//
// Deleting a version removes it from the versions list, promoting the
// preceding version when the deleted one was active. Deleting a parent with
// no versions removes it outright. Deleting a parent that has versions
// promotes one (the active one if any, else the last) into the parent slot,
// preserving the parent's id and list position.
func (e *Editor) ConfirmDelete(ctx context.Context) error {
	if e.state != ConfirmingDelete {
		return ErrState
	}
	id, parentID := e.targetID, e.parentID
	e.state = Viewing
	e.targetID = ""
	e.parentID = ""

	return e.commit(ctx, func() {
		if parentID != "" {
			if parent := e.find(parentID); parent != nil {
				parent.DeleteVersion(id)
			}
			return
		}
		item := e.find(id)
		if item == nil {
			return
		}
		if len(item.Versions) > 0 {
			item.CollapseIntoParent()
			return
		}
		items := e.process.List(e.category)
		kept := items[:0]
		for _, it := range items {
			if it.ID != id {
				kept = append(kept, it)
			}
		}
		e.process.SetList(e.category, kept)
	}, fmt.Sprintf("No se pudo eliminar el documento de %s.", e.category.Title()))
}

// StartAddVersion moves Viewing -> AddingVersion under an existing item.
func (e *Editor) StartAddVersion(parentID string) error {
	if e.Locked() {
		return ErrLocked
	}
	if e.state != Viewing {
		return ErrState
	}
	if e.find(parentID) == nil {
		return ErrNotFound
	}
	e.state = AddingVersion
	e.parentID = parentID
	return nil
}

// CancelAddVersion returns to Viewing without creating anything.
func (e *Editor) CancelAddVersion() {
	if e.state == AddingVersion {
		e.state = Viewing
		e.parentID = ""
	}
}

// ConfirmAddVersion creates the version, marks it active with all siblings
// deactivated, persists, and returns to Viewing.
func (e *Editor) ConfirmAddVersion(ctx context.Context, name, url string) error {
	if e.state != AddingVersion {
		return ErrState
	}
	parentID := e.parentID
	e.state = Viewing
	e.parentID = ""

	return e.commit(ctx, func() {
		if parent := e.find(parentID); parent != nil {
			parent.AddVersion(domain.ITTOItem{ID: uuid.NewString(), Name: name, URL: url})
		}
	}, fmt.Sprintf("No se pudo crear la versión en %s.", e.category.Title()))
}

// SelectVersion switches the active display value of an item slot. Passing
// the parent's own id as versionID deactivates every version so the parent is
// shown again. Disabled while locked, like every other mutation.
func (e *Editor) SelectVersion(ctx context.Context, parentID, versionID string) error {
	if e.Locked() {
		return ErrLocked
	}
	if e.state != Viewing {
		return ErrState
	}
	if e.find(parentID) == nil {
		return ErrNotFound
	}
	return e.commit(ctx, func() {
		if parent := e.find(parentID); parent != nil {
			parent.SetActiveVersion(versionID)
		}
	}, fmt.Sprintf("No se pudo cambiar la versión activa en %s.", e.category.Title()))
}

// lookup finds an item or a nested version by id.
func (e *Editor) lookup(id string) *domain.ITTOItem {
	if it := e.find(id); it != nil {
		return it
	}
	if parent := e.findParentOf(id); parent != nil {
		for i := range parent.Versions {
			if parent.Versions[i].ID == id {
				return &parent.Versions[i]
			}
		}
	}
	return nil
}
