// Package tui is the interactive dashboard: a Kanban board over the merged
// process view, a process detail screen, and the ITTO list editor.
//
// It follows The Elm Architecture via bubbletea: the Model holds all state,
// Update reacts to messages, View renders a string.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"procdeck/internal/api"
	"procdeck/internal/board"
	"procdeck/internal/domain"
	"procdeck/internal/editor"
	"procdeck/internal/store"
	"procdeck/internal/workflow"
)

// viewState is the screen being shown.
type viewState int

const (
	stateBoard viewState = iota
	stateDetail
	stateEditForm
	stateVersionForm
	stateConfirmDelete
)

type loadedMsg struct{ err error }

type mutatedMsg struct {
	err  error
	info string
}

// Model is the application model; it holds all TUI state.
type Model struct {
	store     *store.Store
	boards    *board.Board
	runner    *workflow.Runner
	client    *api.Client
	countries []domain.Country

	state     viewState
	loading   bool
	statusMsg string
	width     int
	height    int

	// board cursor
	focusCol int
	focusRow int

	// detail screen
	sel      domain.Key
	category domain.Category
	itemIdx  int

	// editor form
	ed        *editor.Editor
	nameInput textinput.Model
	urlInput  textinput.Model
	urlFocus  bool
}

// New assembles the dashboard over an already-open store.
func New(st *store.Store, client *api.Client, runner *workflow.Runner, countries []domain.Country) *Model {
	m := &Model{
		store:     st,
		client:    client,
		runner:    runner,
		countries: countries,
		category:  domain.CategoryInputs,
		statusMsg: "Cargando procesos...",
		loading:   true,
	}
	m.boards = board.New(client, st, m.notify)
	m.nameInput = textinput.New()
	m.nameInput.Placeholder = "Nombre del documento"
	m.nameInput.CharLimit = 120
	m.urlInput = textinput.New()
	m.urlInput.Placeholder = "https://..."
	m.urlInput.CharLimit = 300
	return m
}

func (m *Model) notify(msg string) { m.statusMsg = msg }

// Init triggers the initial load.
func (m *Model) Init() tea.Cmd {
	return m.loadCmd()
}

func (m *Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.store.Load(context.Background())}
	}
}

// Update reacts to one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("No se pudieron cargar los procesos: %v", msg.err)
		} else {
			m.statusMsg = m.countryLine()
		}
		return m, nil

	case mutatedMsg:
		// failure messages already arrived through notify
		if msg.err == nil {
			if msg.info != "" {
				m.statusMsg = msg.info
			} else {
				m.statusMsg = m.countryLine()
			}
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.state {
		case stateBoard:
			return m.updateBoard(msg)
		case stateDetail:
			return m.updateDetail(msg)
		case stateEditForm, stateVersionForm:
			return m.updateForm(msg)
		case stateConfirmDelete:
			return m.updateConfirm(msg)
		}
	}
	return m, nil
}

func (m *Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols := board.Columns(m.store.MergedView())
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		m.loading = true
		m.statusMsg = "Recargando..."
		return m, m.loadCmd()
	case "left", "h":
		if m.focusCol > 0 {
			m.focusCol--
		}
		m.clampCursor()
	case "right", "l":
		if m.focusCol < len(cols)-1 {
			m.focusCol++
		}
		m.clampCursor()
	case "up", "k":
		if m.focusRow > 0 {
			m.focusRow--
		}
	case "down", "j":
		if m.focusRow < len(cols[m.focusCol].Processes)-1 {
			m.focusRow++
		}
	case "[", "]":
		p, ok := m.selectedCard(cols)
		if !ok {
			return m, nil
		}
		targets := domain.BoardColumns()
		idx := m.focusCol
		if msg.String() == "[" {
			idx--
		} else {
			idx++
		}
		if idx < 0 || idx >= len(targets) {
			return m, nil
		}
		return m, m.moveCmd(p.Type, p.ID, targets[idx])
	case "c":
		return m, m.cycleCountryCmd()
	case "s":
		return m, m.advanceCmd()
	case "enter":
		p, ok := m.selectedCard(cols)
		if !ok {
			return m, nil
		}
		m.sel = p.Key()
		m.category = domain.CategoryInputs
		m.itemIdx = 0
		m.state = stateDetail
	}
	return m, nil
}

func (m *Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p, ok := m.store.MergedProcess(m.sel.Type, m.sel.ID)
	if !ok {
		m.state = stateBoard
		return m, nil
	}
	items := p.List(m.category)
	switch msg.String() {
	case "esc", "q":
		m.state = stateBoard
		m.statusMsg = m.countryLine()
	case "tab":
		cats := domain.Categories()
		for i, c := range cats {
			if c == m.category {
				m.category = cats[(i+1)%len(cats)]
				break
			}
		}
		m.itemIdx = 0
	case "up", "k":
		if m.itemIdx > 0 {
			m.itemIdx--
		}
	case "down", "j":
		if m.itemIdx < len(items)-1 {
			m.itemIdx++
		}
	case "e":
		if m.itemIdx >= len(items) {
			return m, nil
		}
		it := items[m.itemIdx]
		ed := m.newEditor(p)
		if err := ed.StartEdit(it.ID); err != nil {
			m.statusMsg = err.Error()
			return m, nil
		}
		m.openForm(ed, stateEditForm, cleanedName(p, it), it.DisplayURL())
	case "a":
		ed := m.newEditor(p)
		if _, err := ed.StartAdd(); err != nil {
			m.statusMsg = err.Error()
			return m, nil
		}
		m.openForm(ed, stateEditForm, "", "")
	case "n":
		if m.itemIdx >= len(items) {
			return m, nil
		}
		ed := m.newEditor(p)
		if err := ed.StartAddVersion(items[m.itemIdx].ID); err != nil {
			m.statusMsg = err.Error()
			return m, nil
		}
		m.openForm(ed, stateVersionForm, "", "")
	case "d":
		if m.itemIdx >= len(items) {
			return m, nil
		}
		ed := m.newEditor(p)
		if err := ed.RequestDelete(items[m.itemIdx].ID); err != nil {
			m.statusMsg = err.Error()
			return m, nil
		}
		m.ed = ed
		m.state = stateConfirmDelete
	case "v":
		if m.itemIdx >= len(items) {
			return m, nil
		}
		it := items[m.itemIdx]
		if len(it.Versions) == 0 {
			return m, nil
		}
		ed := m.newEditor(p)
		next := nextVersionID(it)
		return m, func() tea.Msg {
			return mutatedMsg{err: ed.SelectVersion(context.Background(), it.ID, next)}
		}
	}
	return m, nil
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.state == stateVersionForm {
			m.ed.CancelAddVersion()
		} else {
			m.ed.Cancel()
		}
		m.closeForm()
		return m, nil
	case "tab", "shift+tab":
		m.urlFocus = !m.urlFocus
		if m.urlFocus {
			m.nameInput.Blur()
			m.urlInput.Focus()
		} else {
			m.urlInput.Blur()
			m.nameInput.Focus()
		}
		return m, nil
	case "enter":
		ed := m.ed
		isVersion := m.state == stateVersionForm
		name, url := m.nameInput.Value(), m.urlInput.Value()
		m.closeForm()
		return m, func() tea.Msg {
			if isVersion {
				return mutatedMsg{err: ed.ConfirmAddVersion(context.Background(), name, url)}
			}
			return mutatedMsg{err: ed.Save(context.Background(), name, url)}
		}
	}
	var cmd tea.Cmd
	if m.urlFocus {
		m.urlInput, cmd = m.urlInput.Update(msg)
	} else {
		m.nameInput, cmd = m.nameInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "s":
		ed := m.ed
		m.ed = nil
		m.state = stateDetail
		return m, func() tea.Msg {
			return mutatedMsg{err: ed.ConfirmDelete(context.Background())}
		}
	case "n", "esc":
		m.ed.CancelDelete()
		m.ed = nil
		m.state = stateDetail
	}
	return m, nil
}

func (m *Model) newEditor(p domain.Process) *editor.Editor {
	return editor.New(p, m.category, m.store.SelectedCountry(), m.client, m.store, m.notify)
}

func (m *Model) openForm(ed *editor.Editor, st viewState, name, url string) {
	m.ed = ed
	m.state = st
	m.urlFocus = false
	m.nameInput.SetValue(name)
	m.urlInput.SetValue(url)
	m.urlInput.Blur()
	m.nameInput.Focus()
}

func (m *Model) closeForm() {
	m.ed = nil
	m.state = stateDetail
	m.nameInput.Blur()
	m.urlInput.Blur()
}

func (m *Model) moveCmd(t domain.ProcessType, id int, status domain.KanbanStatus) tea.Cmd {
	return func() tea.Msg {
		return mutatedMsg{err: m.boards.Move(context.Background(), t, id, status)}
	}
}

func (m *Model) advanceCmd() tea.Cmd {
	return func() tea.Msg {
		stage, n, err := m.runner.Advance(context.Background())
		if err != nil {
			return mutatedMsg{err: err}
		}
		return mutatedMsg{info: fmt.Sprintf("Etapa %s activada (%d procesos).", stage.Name, n)}
	}
}

// cycleCountryCmd rotates the global selection through none and every country.
func (m *Model) cycleCountryCmd() tea.Cmd {
	return func() tea.Msg {
		cur := m.store.SelectedCountry()
		var next *domain.Country
		if cur == nil {
			if len(m.countries) > 0 {
				next = &m.countries[0]
			}
		} else {
			for i := range m.countries {
				if m.countries[i].Code == cur.Code && i+1 < len(m.countries) {
					next = &m.countries[i+1]
					break
				}
			}
		}
		if err := m.store.SetSelectedCountry(next); err != nil {
			return mutatedMsg{err: err}
		}
		return mutatedMsg{}
	}
}

func (m *Model) selectedCard(cols []board.Column) (domain.Process, bool) {
	if m.focusCol >= len(cols) {
		return domain.Process{}, false
	}
	ps := cols[m.focusCol].Processes
	if m.focusRow >= len(ps) {
		return domain.Process{}, false
	}
	return ps[m.focusRow], true
}

func (m *Model) clampCursor() {
	cols := board.Columns(m.store.MergedView())
	if m.focusCol >= len(cols) {
		m.focusCol = 0
	}
	if n := len(cols[m.focusCol].Processes); m.focusRow >= n {
		m.focusRow = max(0, n-1)
	}
}

func (m *Model) countryLine() string {
	if c := m.store.SelectedCountry(); c != nil {
		return fmt.Sprintf("País: %s (%s)", c.Name, c.Code)
	}
	return "País: todos"
}

// cleanedName is the editable text for an item: the active version's name with
// the Scrum key-element marker stripped.
func cleanedName(p domain.Process, it domain.ITTOItem) string {
	name := it.DisplayName()
	if p.Type == domain.TypeScrum {
		return domain.CleanName(name)
	}
	return name
}

// nextVersionID cycles parent -> v1 -> v2 -> ... -> parent.
func nextVersionID(it domain.ITTOItem) string {
	active := it.ActiveVersion()
	if active == nil {
		return it.Versions[0].ID
	}
	for i := range it.Versions {
		if it.Versions[i].ID == active.ID {
			if i+1 < len(it.Versions) {
				return it.Versions[i+1].ID
			}
			return it.ID
		}
	}
	return it.ID
}
