package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fastygo/tasklist/domain"
	"github.com/fastygo/tasklist/usecase/reminder"
)

// Repository is the slice of the task use case the UI drives.
type Repository interface {
	List(filter domain.Filter) []domain.Task
	Count() int
	ReminderDue(id int64) (time.Time, bool)
	Create(ctx context.Context, text string) (domain.Task, error)
	ToggleComplete(ctx context.Context, id int64) (domain.Task, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int, error)
	SetReminder(ctx context.Context, id int64, delay time.Duration) (domain.Task, error)
	CancelReminder(ctx context.Context, id int64) (domain.Task, error)
}

// BootFunc fills the repository before the list is shown.
type BootFunc func(ctx context.Context) error

type mode int

const (
	modeList mode = iota
	modeAdd
	modeReminder
	modeConfirmClear
)

type bootDoneMsg struct{ err error }

type Model struct {
	ctx    context.Context
	repo   Repository
	boot   BootFunc
	now    func() time.Time
	tasks  []domain.Task
	filter domain.Filter
	cursor int
	mode   mode
	input  textinput.Model
	target domain.Task

	loading bool
	status  string
	isError bool
	alert   string
}

func NewModel(ctx context.Context, repo Repository, boot BootFunc) Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 48

	return Model{
		ctx:     ctx,
		repo:    repo,
		boot:    boot,
		now:     time.Now,
		filter:  domain.FilterAll,
		input:   ti,
		loading: boot != nil,
		status:  "Press 'a' to add a task.",
	}
}

func (m Model) Init() tea.Cmd {
	if m.boot == nil {
		return func() tea.Msg { return refreshMsg{} }
	}
	boot, ctx := m.boot, m.ctx
	return func() tea.Msg {
		return bootDoneMsg{err: boot(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case bootDoneMsg:
		m.loading = false
		m.reload()
		if msg.err != nil {
			m.setError("Could not load starter tasks: " + msg.err.Error())
		}
		return m, nil
	case refreshMsg:
		if !m.loading {
			m.reload()
		}
		return m, nil
	case notificationMsg:
		m.applyNotification(domain.Notification(msg))
		return m, nil
	case tea.WindowSizeMsg:
		if msg.Width > 20 {
			m.input.Width = msg.Width - 12
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.loading {
			return m, nil
		}
		switch m.mode {
		case modeAdd, modeReminder:
			return m.updatePrompt(msg)
		case modeConfirmClear:
			return m.updateConfirmClear(msg.String())
		default:
			return m.updateList(msg.String())
		}
	}
	return m, nil
}

func (m Model) updateList(key string) (tea.Model, tea.Cmd) {
	m.alert = ""
	switch key {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		m.cursor = clampCursor(m.cursor+1, len(m.tasks))
	case "1":
		m.setFilter(domain.FilterAll)
	case "2":
		m.setFilter(domain.FilterCompleted)
	case "3":
		m.setFilter(domain.FilterIncomplete)
	case "a":
		m.mode = modeAdd
		m.input.Placeholder = "What needs doing?"
		m.input.SetValue("")
		return m, m.input.Focus()
	case " ", "space", "x":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		updated, err := m.repo.ToggleComplete(m.ctx, t.ID)
		m.report(err, toggleStatus(updated))
	case "d":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.report(m.repo.Delete(m.ctx, t.ID), fmt.Sprintf("Deleted %q", t.Text))
	case "r":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		if t.Completed {
			m.setError(domain.ErrReminderOnCompleted.Error())
			return m, nil
		}
		m.mode = modeReminder
		m.target = t
		m.input.Placeholder = "Remind me in how many seconds?"
		m.input.SetValue("")
		return m, m.input.Focus()
	case "c":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		_, err := m.repo.CancelReminder(m.ctx, t.ID)
		m.report(err, "Reminder cancelled")
	case "D":
		if m.repo.Count() == 0 {
			removed, err := m.repo.DeleteAll(m.ctx)
			if err == nil && removed == 0 {
				m.setStatus("Nothing to delete")
			}
			return m, nil
		}
		m.mode = modeConfirmClear
		m.setStatus(fmt.Sprintf("Delete all %d tasks? y/n", m.repo.Count()))
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePrompt()
		m.setStatus("Cancelled")
		return m, nil
	case "enter":
		value := m.input.Value()
		switch m.mode {
		case modeAdd:
			created, err := m.repo.Create(m.ctx, value)
			if created.ID == 0 {
				m.setError(err.Error())
				return m, nil
			}
			m.closePrompt()
			m.report(err, fmt.Sprintf("Added %q", created.Text))
			m.cursor = m.indexOf(created.ID)
		case modeReminder:
			delay, err := reminder.ParseDelay(value)
			if err != nil {
				m.setError(err.Error())
				return m, nil
			}
			t := m.target
			m.closePrompt()
			_, err = m.repo.SetReminder(m.ctx, t.ID, delay)
			m.report(err, fmt.Sprintf("Reminder set for %q in %s", t.Text, delay))
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirmClear(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y":
		m.mode = modeList
		removed, err := m.repo.DeleteAll(m.ctx)
		m.report(err, fmt.Sprintf("Deleted %d tasks", removed))
	case "n", "N", "esc":
		m.mode = modeList
		m.setStatus("Delete cancelled")
	}
	return m, nil
}

func (m *Model) applyNotification(n domain.Notification) {
	switch n.Kind {
	case domain.NotifyReminder:
		m.alert = n.Message
	case domain.NotifyNothingToDelete:
		m.setStatus("Nothing to delete")
	case domain.NotifyStorageError:
		m.setError("Could not save: " + n.Message)
	case domain.NotifyLoadError:
		m.setError(n.Message)
	}
}

// report reflects the outcome of a mutation. A storage error still means
// the change happened.
func (m *Model) report(err error, success string) {
	m.reload()
	switch {
	case err == nil:
		m.setStatus(success)
	case domain.IsDomainError(err, domain.ErrCodeStorage):
		m.setError(success + " (not saved: " + err.Error() + ")")
	default:
		m.setError(err.Error())
	}
}

func (m *Model) reload() {
	m.tasks = m.repo.List(m.filter)
	m.cursor = clampCursor(m.cursor, len(m.tasks))
}

func (m *Model) setFilter(f domain.Filter) {
	m.filter = f
	m.cursor = 0
	m.reload()
}

func (m *Model) closePrompt() {
	m.mode = modeList
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) setStatus(s string) {
	m.status, m.isError = s, false
}

func (m *Model) setError(s string) {
	m.status, m.isError = s, true
}

func (m Model) selected() (domain.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return domain.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m Model) indexOf(id int64) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return clampCursor(m.cursor, len(m.tasks))
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tasks"))
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(mutedStyle.Render("Loading tasks…"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	b.WriteString(m.renderTaskList())

	if m.alert != "" {
		b.WriteString("\n")
		b.WriteString(alertStyle.Render("⏰ " + m.alert))
		b.WriteString("\n")
	}

	switch m.mode {
	case modeAdd, modeReminder:
		b.WriteString("\n")
		b.WriteString(promptBoxStyle.Render(m.input.View()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.isError {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.help()))
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := []struct {
		key    string
		filter domain.Filter
		label  string
	}{
		{"1", domain.FilterAll, "All"},
		{"2", domain.FilterCompleted, "Completed"},
		{"3", domain.FilterIncomplete, "Incomplete"},
	}
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		label := t.key + " " + t.label
		if t.filter == m.filter {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) renderTaskList() string {
	if len(m.tasks) == 0 {
		if m.filter == domain.FilterAll {
			return mutedStyle.Render("No tasks yet. Press 'a' to add one.") + "\n"
		}
		return mutedStyle.Render("No tasks match this filter.") + "\n"
	}

	var b strings.Builder
	now := m.now()
	for i, t := range m.tasks {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		checkbox := "[ ]"
		text := t.Text
		if t.Completed {
			checkbox = "[x]"
			text = doneStyle.Render(text)
		}
		line := fmt.Sprintf("%s%s %s", cursor, checkbox, text)
		if due, ok := m.repo.ReminderDue(t.ID); ok && t.ReminderActive {
			left := due.Sub(now).Round(time.Second)
			if left < 0 {
				left = 0
			}
			line += " " + reminderStyle.Render("⏰ "+left.String())
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) help() string {
	switch m.mode {
	case modeAdd, modeReminder:
		return "enter confirm • esc cancel"
	case modeConfirmClear:
		return "y delete everything • n keep"
	default:
		return "↑/↓ move • 1/2/3 filter • a add • space toggle • d delete • r remind • c cancel reminder • D delete all • q quit"
	}
}

func toggleStatus(t domain.Task) string {
	if t.Completed {
		return fmt.Sprintf("Completed %q", t.Text)
	}
	return fmt.Sprintf("Reopened %q", t.Text)
}

func clampCursor(cur, n int) int {
	if n == 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
