package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"procdeck/internal/api"
	"procdeck/internal/domain"
	"procdeck/internal/store"
	"procdeck/internal/workflow"
)

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

type memSprint struct{ number, stage int }

func (m *memSprint) Sprint() (int, int, error) { return m.number, m.stage, nil }
func (m *memSprint) SetSprint(n, s int) error  { m.number, m.stage = n, s; return nil }

func testModel(t *testing.T) (*Model, *store.Store) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	t.Cleanup(srv.Close)

	lister := fakeLister{ps: []domain.Process{
		{ID: 1, Type: domain.TypePMBOK, Number: 1, Name: "Acta de Constitución",
			Status: &domain.StatusRef{Name: "Base Estratégica"}, KanbanStatus: domain.KanbanBacklog,
			Inputs: []domain.ITTOItem{{ID: "a", Name: "Caso de Negocio"}}},
		{ID: 2, Type: domain.TypeScrum, Number: 2, Name: "Sprint Planning",
			Status: &domain.StatusRef{Name: "Ciclo del Sprint"}, KanbanStatus: domain.KanbanTodo},
	}}
	st, err := store.New(lister, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	client := api.New(srv.URL)
	runner := workflow.New(nil, client, st, &memSprint{number: 1}, nil)
	m := New(st, client, runner, domain.Countries())
	m.loading = false
	return m, st
}

func key(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{}
}

func TestBoardNavigationAndDetail(t *testing.T) {
	m, _ := testModel(t)

	view := m.View()
	if !strings.Contains(view, "Pendiente") || !strings.Contains(view, "Acta de Constitución") {
		t.Fatalf("board view missing content:\n%s", view)
	}

	// first column holds the backlog card; enter opens its detail
	mm, _ := m.Update(key("enter"))
	m = mm.(*Model)
	if m.state != stateDetail || m.sel != (domain.Key{Type: domain.TypePMBOK, ID: 1}) {
		t.Fatalf("detail not opened: state=%d sel=%+v", m.state, m.sel)
	}
	view = m.View()
	if !strings.Contains(view, "Caso de Negocio") {
		t.Fatalf("detail view missing items:\n%s", view)
	}

	// tab cycles to Herramientas y Técnicas
	mm, _ = m.Update(key("tab"))
	m = mm.(*Model)
	if m.category != domain.CategoryTools {
		t.Fatalf("category = %s", m.category)
	}

	mm, _ = m.Update(key("esc"))
	m = mm.(*Model)
	if m.state != stateBoard {
		t.Fatalf("esc should return to the board")
	}
}

func TestEditFormRoundTrip(t *testing.T) {
	m, st := testModel(t)

	mm, _ := m.Update(key("enter"))
	m = mm.(*Model)
	mm, _ = m.Update(key("e"))
	m = mm.(*Model)
	if m.state != stateEditForm || m.ed == nil {
		t.Fatalf("edit form not opened")
	}
	if m.nameInput.Value() != "Caso de Negocio" {
		t.Fatalf("form not prefilled: %q", m.nameInput.Value())
	}

	// saving goes through the editor command
	mm, cmd := m.Update(key("enter"))
	m = mm.(*Model)
	if m.state != stateDetail || cmd == nil {
		t.Fatalf("enter should close the form and dispatch the save")
	}
	if msg := cmd(); msg == nil {
		t.Fatalf("save command returned nothing")
	}
	p, _ := st.Get(domain.TypePMBOK, 1)
	if p.Inputs[0].Name != "Caso de Negocio" {
		t.Fatalf("unexpected store content: %+v", p.Inputs)
	}
}

func TestVersionCycling(t *testing.T) {
	it := domain.ITTOItem{ID: "p", Name: "Doc", Versions: []domain.ITTOItem{
		{ID: "v1", Name: "Doc v2"},
		{ID: "v2", Name: "Doc v3"},
	}}
	if got := nextVersionID(it); got != "v1" {
		t.Fatalf("from parent: %s", got)
	}
	it.SetActiveVersion("v1")
	if got := nextVersionID(it); got != "v2" {
		t.Fatalf("from v1: %s", got)
	}
	it.SetActiveVersion("v2")
	if got := nextVersionID(it); got != "p" {
		t.Fatalf("from last version: %s", got)
	}
}
