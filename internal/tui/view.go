package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/adonovan/spaghetti/pkg/client"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorRed   = lipgloss.Color("167")
	colorBlue  = lipgloss.Color("75")
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleHeading  = lipgloss.NewStyle().Bold(true).Foreground(colorGray)
	styleActive   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleCursor   = lipgloss.NewStyle().Reverse(true)
	styleSelected = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	styleMatch    = lipgloss.NewStyle().Foreground(colorGreen)
	styleDir      = lipgloss.NewStyle().Foreground(colorBlue)
	styleDim      = lipgloss.NewStyle().Foreground(colorDim)
	styleError    = lipgloss.NewStyle().Foreground(colorRed)
	styleDom      = lipgloss.NewStyle().Bold(true)

	stylePane = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
	styleFocused = stylePane.BorderForeground(colorCyan)
)

const help = "↑/↓ move  enter open/follow  / search  tab pane  b break  B break all  u unbreak  r reload  q quit"

// View renders the tree beside the detail panes.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("spaghetti"))
	if m.page != nil {
		b.WriteString(styleDim.Render(fmt.Sprintf("  %d packages · %s",
			m.page.Model.Len(), strings.Join(m.page.InitialPaths(), ", "))))
	}
	b.WriteString("\n")

	switch {
	case m.page == nil && m.err != nil:
		b.WriteString(styleError.Render("cannot load graph: " + m.err.Error()))
		b.WriteString("\n" + styleDim.Render("r reload  q quit"))
		return b.String()
	case m.page == nil:
		b.WriteString(styleDim.Render("loading…"))
		return b.String()
	}

	bodyHeight := m.height - 5
	if bodyHeight < 6 {
		bodyHeight = 6
	}
	treeWidth := m.width*2/5 - 4
	if treeWidth < 20 {
		treeWidth = 20
	}
	detailWidth := m.width - treeWidth - 8
	if detailWidth < 30 {
		detailWidth = 30
	}

	tree := m.frame(paneTree, treeWidth, bodyHeight).Render(m.viewTree(bodyHeight - 1))
	detail := lipgloss.JoinVertical(lipgloss.Left,
		m.viewSelection(),
		m.frame(panePath, detailWidth, 0).Render(m.viewPath()),
		m.frame(paneImports, detailWidth, 0).Render(m.viewImports()),
		m.frame(paneBroken, detailWidth, 0).Render(m.viewBroken()),
	)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tree, detail))
	b.WriteString("\n")

	switch {
	case m.searching:
		b.WriteString(styleActive.Render("/" + m.query + "▏"))
	case m.err != nil:
		b.WriteString(styleError.Render(m.err.Error()))
	case m.loading:
		b.WriteString(styleDim.Render("working…"))
	case m.status != "":
		b.WriteString(styleDim.Render(m.status))
	default:
		b.WriteString(styleDim.Render(help))
	}
	return b.String()
}

func (m Model) frame(p pane, width, height int) lipgloss.Style {
	s := stylePane
	if m.pane == p {
		s = styleFocused
	}
	s = s.Width(width)
	if height > 0 {
		s = s.Height(height)
	}
	return s
}

func (m Model) heading(p pane, title string) string {
	if m.pane == p {
		return styleActive.Render(title)
	}
	return styleHeading.Render(title)
}

// line renders one list entry, highlighting the cursor in the focused pane.
func (m Model) line(p pane, i int, text string) string {
	if m.pane == p && m.cursor[p] == i {
		return styleCursor.Render(text)
	}
	return text
}

func (m Model) viewTree(height int) string {
	rows := m.page.Tree.Visible()
	header := m.heading(paneTree, "Packages")
	if q := m.page.Tree.Filter(); q != "" {
		header += styleDim.Render(" matching " + q)
	}
	lines := []string{header}

	// Keep the cursor in view.
	cur := m.cursor[paneTree]
	start := 0
	if height > 1 && cur >= height-1 {
		start = cur - (height - 2)
	}
	for i := start; i < len(rows) && i-start < height-1; i++ {
		row := rows[i]
		marker := "  "
		if row.HasChildren {
			marker = "▸ "
			if row.Open {
				marker = "▾ "
			}
		}
		text := row.Item.Text
		switch {
		case row.Item.ID == m.page.Tree.Selected():
			text = styleSelected.Render(text)
		case row.Match:
			text = styleMatch.Render(text)
		case !row.Item.View.IsPackage():
			text = styleDir.Render(text)
		}
		if row.Item.View.IsPackage() {
			text += styleDim.Render(fmt.Sprintf(" %d", row.Item.Weight))
		}
		lines = append(lines, m.line(paneTree, i, strings.Repeat("  ", row.Depth)+marker+text))
	}
	if len(rows) == 0 {
		lines = append(lines, styleDim.Render("no packages"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewSelection() string {
	d := m.page.Selection.Details()
	if d.IsCleared() {
		return styleDim.Render(" no package selected")
	}
	var lines []string
	if d.NameErr != nil {
		lines = append(lines, styleError.Render(" "+d.NameErr.Error()))
	} else {
		lines = append(lines, " "+styleSelected.Render(d.Name)+"  "+styleDim.Render(d.DocURL))
	}
	if d.DominatorsErr != nil {
		lines = append(lines, styleError.Render(" dominators: "+d.DominatorsErr.Error()))
	} else {
		lines = append(lines, styleDim.Render(" dominators: ")+d.Dominators.String())
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewPath() string {
	d := m.page.Selection.Details()
	lines := []string{m.heading(panePath, "Path from root")}
	switch {
	case d.PathErr != nil:
		lines = append(lines, styleError.Render(d.PathErr.Error()))
	case d.Path.Empty():
		lines = append(lines, styleDim.Render("—"))
	default:
		hop := 0
		for _, n := range d.Path.Nodes {
			if n.Incoming != nil {
				lines = append(lines, m.line(panePath, hop, styleDim.Render("  ↓ ")+"b/B"))
				hop++
			}
			label := n.ImportPath
			if n.Dominator {
				label = styleDom.Render(label)
			}
			lines = append(lines, label)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewImports() string {
	d := m.page.Selection.Details()
	lines := []string{m.heading(paneImports, "Imports")}
	if d.ImportsErr != nil {
		lines = append(lines, styleError.Render(d.ImportsErr.Error()))
	}
	for i, imp := range d.Imports {
		lines = append(lines, m.line(paneImports, i, imp.ImportPath))
	}
	if len(d.Imports) == 0 && d.ImportsErr == nil {
		lines = append(lines, styleDim.Render("—"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewBroken() string {
	lines := []string{m.heading(paneBroken, "Broken edges")}
	broken, err := m.page.Broken()
	if err != nil {
		lines = append(lines, styleError.Render(err.Error()))
	}
	for i, e := range broken {
		lines = append(lines, m.line(paneBroken, i, brokenLabel(e)))
	}
	if len(broken) == 0 && err == nil {
		lines = append(lines, styleDim.Render("none"))
	}
	return strings.Join(lines, "\n")
}

func brokenLabel(e client.BrokenEntry) string {
	return e.From + " → " + e.To
}
