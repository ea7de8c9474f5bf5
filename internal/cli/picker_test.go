package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/akowalczyk/voxtask/pkg/models"
)

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func testProjects() []models.Project {
	return []models.Project{
		{ID: "1", Name: "Work"},
		{ID: "2", Name: "Home"},
		{ID: "3", Name: "Errands"},
	}
}

func TestPickerNavigationAndSelect(t *testing.T) {
	var model tea.Model = newPickerModel(testProjects())

	model, _ = model.Update(keyMsg("down"))
	model, _ = model.Update(keyMsg("down"))
	model, _ = model.Update(keyMsg("enter"))

	m := model.(pickerModel)
	if m.choice == nil {
		t.Fatal("no project selected")
	}
	if m.choice.ID != "3" {
		t.Errorf("selected project = %+v, want id 3", m.choice)
	}
}

func TestPickerCursorStaysInBounds(t *testing.T) {
	var model tea.Model = newPickerModel(testProjects())

	model, _ = model.Update(keyMsg("up"))
	if m := model.(pickerModel); m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}

	for range 10 {
		model, _ = model.Update(keyMsg("down"))
	}
	if m := model.(pickerModel); m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}
}

func TestPickerCancel(t *testing.T) {
	var model tea.Model = newPickerModel(testProjects())

	model, _ = model.Update(keyMsg("esc"))

	m := model.(pickerModel)
	if !m.quit {
		t.Error("picker did not record the cancel")
	}
	if m.choice != nil {
		t.Errorf("cancelled picker still has choice %+v", m.choice)
	}
}

func TestPickerView(t *testing.T) {
	model := newPickerModel(testProjects())

	view := model.View()
	for _, want := range []string{"Work", "Home", "Errands", "enter: select"} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q", want)
		}
	}
}
