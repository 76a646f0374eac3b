package domain

// ProcessType discriminates the two process frameworks. Both share the same
// numeric id space, so (Type, ID) is the unique key.
type ProcessType string

const (
	TypePMBOK ProcessType = "pmbok"
	TypeScrum ProcessType = "scrum"
)

func (t ProcessType) Valid() bool {
	return t == TypePMBOK || t == TypeScrum
}

// KanbanStatus tracks a process's position in the delivery workflow.
type KanbanStatus string

const (
	KanbanUnassigned KanbanStatus = "unassigned"
	KanbanBacklog    KanbanStatus = "backlog"
	KanbanTodo       KanbanStatus = "todo"
	KanbanInProgress KanbanStatus = "in_progress"
	KanbanInReview   KanbanStatus = "in_review"
	KanbanDone       KanbanStatus = "done"
)

// BoardColumns is the fixed column order of the Kanban board. Statuses outside
// this set (unassigned) are excluded from the board.
func BoardColumns() []KanbanStatus {
	return []KanbanStatus{KanbanBacklog, KanbanTodo, KanbanInProgress, KanbanInReview, KanbanDone}
}

func (s KanbanStatus) Valid() bool {
	switch s {
	case KanbanUnassigned, KanbanBacklog, KanbanTodo, KanbanInProgress, KanbanInReview, KanbanDone:
		return true
	}
	return false
}

func (s KanbanStatus) OnBoard() bool {
	return s.Valid() && s != KanbanUnassigned
}

// Label returns the display label used by the dashboard.
func (s KanbanStatus) Label() string {
	switch s {
	case KanbanUnassigned:
		return "No Asignado"
	case KanbanBacklog:
		return "Pendiente"
	case KanbanTodo:
		return "Por Hacer"
	case KanbanInProgress:
		return "En Progreso"
	case KanbanInReview:
		return "En Revisión"
	case KanbanDone:
		return "Hecho"
	}
	return string(s)
}

// StatusRef is the workflow status a process belongs to ("Base Estratégica",
// "Ritmo Diario", ...). Colors are presentation hints carried by the backend.
type StatusRef struct {
	Name      string `json:"name"`
	BgColor   string `json:"tailwind_bg_color,omitempty"`
	TextColor string `json:"tailwind_text_color,omitempty"`
}

// GroupRef is the framework grouping: a PMBOK stage or a Scrum phase.
type GroupRef struct {
	Name      string `json:"name"`
	BgColor   string `json:"tailwind_bg_color,omitempty"`
	TextColor string `json:"tailwind_text_color,omitempty"`
}

// ITTOItem is one document in an Inputs / Tools & Techniques / Outputs list.
// Versions are alternate documents for the same slot, at most one level deep;
// at most one version is active, otherwise the parent is the display value.
type ITTOItem struct {
	ID       string     `json:"id,omitempty"`
	Name     string     `json:"name"`
	URL      string     `json:"url,omitempty"`
	Versions []ITTOItem `json:"versions,omitempty"`
	IsActive bool       `json:"isActive"`
}

// Customization is a country-specific override of a process's ITTO content and
// workflow status. A process holds at most one per country code.
type Customization struct {
	ID           int          `json:"id"`
	CountryCode  string       `json:"country_code"`
	Inputs       []ITTOItem   `json:"inputs"`
	Tools        []ITTOItem   `json:"tools_and_techniques"`
	Outputs      []ITTOItem   `json:"outputs"`
	KanbanStatus KanbanStatus `json:"kanban_status"`
	Department   string       `json:"department,omitempty"`
}

// Process is the base entity served by the backend. Type is not part of the
// wire payload; the client stamps it from the endpoint it fetched from.
// ActiveCustomization is a view-model marker set by Merge, never serialized.
type Process struct {
	ID             int             `json:"id"`
	Type           ProcessType     `json:"type,omitempty"`
	Number         int             `json:"process_number"`
	Name           string          `json:"name"`
	Status         *StatusRef      `json:"status"`
	Stage          *GroupRef       `json:"stage,omitempty"`
	Phase          *GroupRef       `json:"phase,omitempty"`
	KanbanStatus   KanbanStatus    `json:"kanban_status"`
	Inputs         []ITTOItem      `json:"inputs"`
	Tools          []ITTOItem      `json:"tools_and_techniques"`
	Outputs        []ITTOItem      `json:"outputs"`
	Customizations []Customization `json:"customizations,omitempty"`

	ActiveCustomization *Customization `json:"-"`
}

// Key identifies a process across both frameworks.
type Key struct {
	Type ProcessType
	ID   int
}

func (p Process) Key() Key {
	return Key{Type: p.Type, ID: p.ID}
}

// Group returns the stage (PMBOK) or phase (Scrum) reference.
func (p Process) Group() *GroupRef {
	if p.Type == TypeScrum {
		return p.Phase
	}
	return p.Stage
}

// StatusName returns the workflow status label, empty when unset.
func (p Process) StatusName() string {
	if p.Status == nil {
		return ""
	}
	return p.Status.Name
}

// EffectiveKanban is the country-scoped Kanban status: the active
// customization's when Merge matched one, the base status otherwise.
func (p Process) EffectiveKanban() KanbanStatus {
	if p.ActiveCustomization != nil {
		return p.ActiveCustomization.KanbanStatus
	}
	return p.KanbanStatus
}

// Category names one of the three ITTO lists.
type Category string

const (
	CategoryInputs  Category = "inputs"
	CategoryTools   Category = "tools_and_techniques"
	CategoryOutputs Category = "outputs"
)

func Categories() []Category {
	return []Category{CategoryInputs, CategoryTools, CategoryOutputs}
}

func (c Category) Valid() bool {
	return c == CategoryInputs || c == CategoryTools || c == CategoryOutputs
}

// Title returns the dashboard section heading for the category.
func (c Category) Title() string {
	switch c {
	case CategoryInputs:
		return "Entradas"
	case CategoryTools:
		return "Herramientas y Técnicas"
	case CategoryOutputs:
		return "Salidas"
	}
	return string(c)
}

// List returns the process list for the category.
func (p *Process) List(c Category) []ITTOItem {
	switch c {
	case CategoryInputs:
		return p.Inputs
	case CategoryTools:
		return p.Tools
	case CategoryOutputs:
		return p.Outputs
	}
	return nil
}

// SetList replaces the process list for the category.
func (p *Process) SetList(c Category, items []ITTOItem) {
	switch c {
	case CategoryInputs:
		p.Inputs = items
	case CategoryTools:
		p.Tools = items
	case CategoryOutputs:
		p.Outputs = items
	}
}

// List returns the customization list for the category.
func (cz *Customization) List(c Category) []ITTOItem {
	switch c {
	case CategoryInputs:
		return cz.Inputs
	case CategoryTools:
		return cz.Tools
	case CategoryOutputs:
		return cz.Outputs
	}
	return nil
}

// SetList replaces the customization list for the category.
func (cz *Customization) SetList(c Category, items []ITTOItem) {
	switch c {
	case CategoryInputs:
		cz.Inputs = items
	case CategoryTools:
		cz.Tools = items
	case CategoryOutputs:
		cz.Outputs = items
	}
}

// Country is static reference data for the country selector.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
