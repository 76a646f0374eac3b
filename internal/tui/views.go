package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"procdeck/internal/board"
	"procdeck/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF")).
			MarginBottom(1)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	focusedColumnStyle = columnStyle.
				BorderForeground(lipgloss.Color("#5B8DEF"))

	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	selectedCardStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color("#3B4B6B"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)

	lockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5C07B"))
)

// columnColor is the accent per Kanban status.
func columnColor(s domain.KanbanStatus) lipgloss.Color {
	switch s {
	case domain.KanbanBacklog:
		return lipgloss.Color("#9CA3AF")
	case domain.KanbanTodo:
		return lipgloss.Color("#60A5FA")
	case domain.KanbanInProgress:
		return lipgloss.Color("#FBBF24")
	case domain.KanbanInReview:
		return lipgloss.Color("#C084FC")
	case domain.KanbanDone:
		return lipgloss.Color("#34D399")
	}
	return lipgloss.Color("#888888")
}

// View renders the current screen.
func (m *Model) View() string {
	if m.loading {
		return titleStyle.Render("⬡ PROCDECK") + "\n" + m.statusMsg
	}
	var content string
	switch m.state {
	case stateBoard:
		content = m.renderBoard()
	case stateDetail:
		content = m.renderDetail()
	case stateEditForm, stateVersionForm:
		content = m.renderForm()
	case stateConfirmDelete:
		content = m.renderConfirm()
	}
	return strings.Join([]string{
		titleStyle.Render("⬡ PROCDECK"),
		content,
		footerStyle.Render(m.statusMsg),
	}, "\n")
}

func (m *Model) renderBoard() string {
	cols := board.Columns(m.store.MergedView())
	width := m.width
	if width <= 0 {
		width = 120
	}
	colWidth := max(18, width/len(cols)-2)

	rendered := make([]string, 0, len(cols))
	for ci, col := range cols {
		head := lipgloss.NewStyle().
			Bold(true).
			Foreground(columnColor(col.Status)).
			Render(fmt.Sprintf("%s (%d)", col.Status.Label(), len(col.Processes)))
		lines := []string{head}
		for ri, p := range col.Processes {
			label := fmt.Sprintf("%d · %s", p.Number, p.Name)
			if p.EffectiveKanban() == domain.KanbanInProgress {
				label = "● " + label
			}
			style := cardStyle
			if ci == m.focusCol && ri == m.focusRow {
				style = selectedCardStyle
			}
			lines = append(lines, style.MaxWidth(colWidth).Render(label))
		}
		if len(col.Processes) == 0 {
			lines = append(lines, cardStyle.Render("—"))
		}
		box := columnStyle
		if ci == m.focusCol {
			box = focusedColumnStyle
		}
		rendered = append(rendered, box.Width(colWidth).Render(strings.Join(lines, "\n")))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	help := footerStyle.Render("←→ columna · ↑↓ tarjeta · [ ] mover · enter detalle · c país · s avanzar etapa · r recargar · q salir")
	un := board.Unassigned(m.store.MergedView())
	if len(un) > 0 {
		help = footerStyle.Render(fmt.Sprintf("%d procesos sin asignar", len(un))) + "\n" + help
	}
	return body + "\n" + help
}

func (m *Model) renderDetail() string {
	p, ok := m.store.MergedProcess(m.sel.Type, m.sel.ID)
	if !ok {
		return "Proceso no encontrado."
	}
	head := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d · %s  [%s]", p.Number, p.Name, p.EffectiveKanban().Label()))
	if g := p.Group(); g != nil {
		head += "  " + cardStyle.Render(g.Name)
	}
	if p.EffectiveKanban() == domain.KanbanInProgress {
		head += "\n" + lockStyle.Render("En progreso: las listas están bloqueadas.")
	}

	tabs := make([]string, 0, 3)
	for _, c := range domain.Categories() {
		label := c.Title()
		if c == m.category {
			label = lipgloss.NewStyle().Bold(true).Underline(true).Render(label)
		} else {
			label = cardStyle.Render(label)
		}
		tabs = append(tabs, label)
	}

	items := p.List(m.category)
	lines := make([]string, 0, len(items)+1)
	for i := range items {
		it := items[i]
		label := it.DisplayName()
		if url := it.DisplayURL(); url != "" {
			label += cardStyle.Render("  " + url)
		}
		if n := len(it.Versions); n > 0 {
			v := "principal"
			if active := it.ActiveVersion(); active != nil {
				v = active.Name
			}
			label += cardStyle.Render(fmt.Sprintf("  (%d versiones, activa: %s)", n, v))
		}
		if m.sel.Type == domain.TypeScrum && domain.IsKeyElement(it.Name) {
			label = lockStyle.Render("★ ") + label
		}
		if i == m.itemIdx {
			label = selectedCardStyle.Render(label)
		}
		lines = append(lines, label)
	}
	if len(items) == 0 {
		lines = append(lines, cardStyle.Render("(sin documentos)"))
	}

	help := footerStyle.Render("tab sección · e editar · a añadir · n nueva versión · v cambiar versión · d eliminar · esc volver")
	return strings.Join([]string{head, strings.Join(tabs, "  "), strings.Join(lines, "\n"), help}, "\n\n")
}

func (m *Model) renderForm() string {
	title := "Editar documento"
	if m.state == stateVersionForm {
		title = "Nueva versión"
	}
	box := columnStyle.Render(strings.Join([]string{
		lipgloss.NewStyle().Bold(true).Render(title),
		"Nombre: " + m.nameInput.View(),
		"URL:    " + m.urlInput.View(),
	}, "\n"))
	return box + "\n" + footerStyle.Render("tab campo · enter guardar · esc cancelar")
}

func (m *Model) renderConfirm() string {
	return columnStyle.Render("¿Eliminar el documento seleccionado?") +
		"\n" + footerStyle.Render("y/s confirmar · n/esc cancelar")
}
