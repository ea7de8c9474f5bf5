package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/akowalczyk/voxtask/pkg/models"
)

// Style definitions shared by the picker and the projects listing.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	idStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// pickerModel is an interactive list of Todoist projects.
type pickerModel struct {
	projects []models.Project
	cursor   int
	choice   *models.Project
	quit     bool
}

func newPickerModel(projects []models.Project) pickerModel {
	return pickerModel{projects: projects}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "j":
			if m.cursor < len(m.projects)-1 {
				m.cursor++
			}
			return m, nil
		case "enter":
			if len(m.projects) > 0 {
				choice := m.projects[m.cursor]
				m.choice = &choice
			}
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" Select a Todoist project "))
	b.WriteString("\n\n")

	for i, p := range m.projects {
		line := fmt.Sprintf("%s %s", p.Name, idStyle.Render("("+p.ID+")"))
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> "))
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString("  ")
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("up/down: move | enter: select | q: cancel"))
	b.WriteString("\n")
	return b.String()
}

// pickProject shows the interactive picker and returns the chosen project.
func pickProject(projects []models.Project) (*models.Project, error) {
	if len(projects) == 0 {
		return nil, fmt.Errorf("no projects to pick from")
	}

	p := tea.NewProgram(newPickerModel(projects))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running project picker: %w", err)
	}

	model, ok := final.(pickerModel)
	if !ok || model.choice == nil {
		return nil, fmt.Errorf("cancelled")
	}
	return model.choice, nil
}
