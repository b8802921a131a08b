package ui

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"korobochka/internal/config"
	"korobochka/internal/normalize"
	"korobochka/internal/notify"
	"korobochka/internal/tasks"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeAddSub
	modeEdit
	modeRandom
	modeTimer
	modeDaily
	modeDailyAddText
	modeDailyAddMinutes
	modeMoveCat
	modeSubActions
	modeSubRename
	modeSubMove
	modeImport
	modeNewSub
)

// Category accent colors, one per fixed category.
var categoryColors = [normalize.CategoryCount]string{
	"#999999", "#FFC107", "#2196F3", "#4CAF50", "#F44336", "#B3E5FC",
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	inactiveStyle = lipgloss.NewStyle().Faint(true)
	statusStyle   = lipgloss.NewStyle().Italic(true)
	timerStyle    = lipgloss.NewStyle().Bold(true).Padding(1, 2)
)

func categoryStyle(cat int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(categoryColors[normalize.CoerceCategory(cat)]))
}

// row is one rendered line of the list view; header rows carry no task.
type row struct {
	header   bool
	category int
	task     tasks.Task
}

type Model struct {
	store     *tasks.Store
	scheduler notify.Scheduler
	cfg       config.Config

	mode    mode
	rows    []row
	cursor  int
	input   textinput.Model
	status  string
	width   int
	confirm *tasks.Task // pending delete

	// add flow
	addCategory int
	addSubs     []tasks.SubcategoryOption
	addSubPick  string
	pendingText string

	// timer
	timerTask    *tasks.Task
	timerStarted time.Time
	timerEndsAt  time.Time
	timerDone    bool

	// daily view
	dailyDate    time.Time
	dailyCursor  int
	historicText string

	// subcategory actions
	subActionCat  int
	subActionName string

	editID int
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func Run(store *tasks.Store, scheduler notify.Scheduler, cfg config.Config) error {
	ti := textinput.New()
	ti.Placeholder = "Task text"
	ti.CharLimit = 512
	ti.Width = 48

	m := Model{
		store:     store,
		scheduler: scheduler,
		cfg:       cfg,
		input:     ti,
		status:    "a add • r random task • v daily • space hide/show • c complete",
		dailyDate: today(),
	}
	m.rebuildRows()

	_, err := tea.NewProgram(m).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

// rebuildRows flattens the collection into display rows: one header per
// non-empty category (collapsed categories hide their tasks) and the
// tasks inside ordered by the display rule.
func (m *Model) rebuildRows() {
	collapsed := m.store.CollapsedCategories()
	all := m.store.Tasks()
	m.rows = m.rows[:0]
	for cat := 0; cat < normalize.CategoryCount; cat++ {
		var group []tasks.Task
		for _, t := range all {
			if t.Category == cat && !t.Completed {
				group = append(group, t)
			}
		}
		if len(group) == 0 {
			continue
		}
		m.rows = append(m.rows, row{header: true, category: cat})
		if collapsed[cat] {
			continue
		}
		tasks.SortForDisplay(group)
		for _, t := range group {
			m.rows = append(m.rows, row{category: cat, task: t})
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) currentTask() *tasks.Task {
	if m.cursor < 0 || m.cursor >= len(m.rows) || m.rows[m.cursor].header {
		return nil
	}
	t := m.rows[m.cursor].task
	return &t
}

func (m *Model) currentCategory() int {
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		return m.rows[m.cursor].category
	}
	return normalize.CategoryNone
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.mode != modeTimer {
			return m, nil
		}
		if !m.timerDone && !time.Time(msg).Before(m.timerEndsAt) {
			m.timerDone = true
			m.status = "Time is up — c to complete, esc to keep the task"
		}
		return m, tick()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 10
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.confirm != nil {
		return m.updateDeleteConfirm(key)
	}
	switch m.mode {
	case modeAdd, modeEdit, modeImport, modeDailyAddText, modeDailyAddMinutes, modeSubRename, modeNewSub:
		return m.updateTextMode(key, msg)
	case modeAddSub:
		return m.updateAddSubMode(key)
	case modeRandom:
		return m.updateRandomMode(key)
	case modeTimer:
		return m.updateTimerMode(key)
	case modeDaily:
		return m.updateDailyMode(key)
	case modeMoveCat:
		return m.updateMoveCatMode(key)
	case modeSubActions:
		return m.updateSubActionsMode(key)
	case modeSubMove:
		return m.updateSubMoveMode(key)
	}
	return m.updateListMode(key)
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		m.moveCursor(1)
	case k.Up, "up":
		m.moveCursor(-1)
	case k.Add:
		m.mode = modeAdd
		m.addCategory = m.currentCategory()
		m.input.Placeholder = "Task text (blank lines are skipped)"
		m.input.SetValue("")
		m.input.Focus()
		m.status = fmt.Sprintf("Adding to %s — enter to continue, esc to cancel", normalize.CategoryName(m.addCategory))
	case k.Edit:
		if t := m.currentTask(); t != nil {
			m.mode = modeEdit
			m.editID = t.ID
			m.input.Placeholder = "Task text"
			m.input.SetValue(t.Text)
			m.input.Focus()
			m.status = "Edit task text — enter to save, esc to cancel"
		}
	case k.Toggle:
		if t := m.currentTask(); t != nil {
			m.store.ToggleActive(t.ID)
			m.rebuildRows()
			m.status = "Toggled"
		}
	case k.ToggleSub:
		if t := m.currentTask(); t != nil && strings.TrimSpace(t.Subcategory) != "" {
			m.store.ToggleSubcategoryActive(t.Category, t.Subcategory)
			m.rebuildRows()
			m.status = fmt.Sprintf("Toggled subcategory %q", normalize.SubcategoryLabel(t.Category, t.Subcategory))
		} else {
			m.status = "Task has no subcategory"
		}
	case "S":
		if t := m.currentTask(); t != nil && strings.TrimSpace(t.Subcategory) != "" {
			m.mode = modeSubActions
			m.subActionCat = t.Category
			m.subActionName = t.Subcategory
			m.status = fmt.Sprintf("Subcategory %q: r rename • x delete • m move • esc cancel",
				normalize.SubcategoryLabel(t.Category, t.Subcategory))
		} else {
			m.status = "Task has no subcategory"
		}
	case "A":
		m.store.ToggleCategoryActive(m.currentCategory())
		m.rebuildRows()
		m.status = fmt.Sprintf("Toggled all of %s", normalize.CategoryName(m.currentCategory()))
	case k.Complete:
		if t := m.currentTask(); t != nil {
			m.store.Complete(t.ID, time.Time{})
			m.rebuildRows()
			m.status = "Completed"
		}
	case k.Delete:
		if t := m.currentTask(); t != nil {
			m.confirm = t
			m.status = fmt.Sprintf("Delete %q? y/n", t.Text)
		}
	case "m":
		if m.currentTask() != nil {
			m.mode = modeMoveCat
			m.status = "Move to category 0-5, esc to cancel"
		}
	case k.Collapse:
		cat := m.currentCategory()
		collapsed := m.store.CollapsedCategories()
		m.store.SetCategoryCollapsed(cat, !collapsed[cat])
		m.rebuildRows()
	case k.Random:
		m.mode = modeRandom
		m.status = "Random task from category 0-5, or a for all — esc cancels"
	case k.Daily:
		m.mode = modeDaily
		m.dailyDate = today()
		m.dailyCursor = 0
		m.status = "Daily activity — h/l change day, u undo, n add past task, esc back"
	case k.Export:
		data, name, err := m.store.ExportJSON()
		if err != nil {
			m.status = fmt.Sprintf("export failed: %v", err)
			break
		}
		if err := os.WriteFile(name, data, 0o644); err != nil {
			m.status = fmt.Sprintf("export failed: %v", err)
			break
		}
		m.status = "Exported to " + name
	case k.Import:
		m.mode = modeImport
		m.input.Placeholder = "Path to exported JSON"
		m.input.SetValue("")
		m.input.Focus()
		m.status = "Import replaces all tasks — enter to load, esc to cancel"
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	next := m.cursor
	for {
		next += delta
		if next < 0 || next >= len(m.rows) {
			return
		}
		if !m.rows[next].header {
			m.cursor = next
			return
		}
	}
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y":
		m.store.Delete(m.confirm.ID)
		m.confirm = nil
		m.rebuildRows()
		m.status = "Deleted"
	case "n", "N", "esc":
		m.confirm = nil
		m.status = "Delete cancelled"
	}
	return m, nil
}

func (m Model) updateTextMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case k.Cancel:
		m.mode = m.cancelTarget()
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case k.Confirm:
		return m.commitText()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) cancelTarget() mode {
	switch m.mode {
	case modeDailyAddText, modeDailyAddMinutes:
		return modeDaily
	case modeNewSub:
		return modeAddSub
	default:
		return modeList
	}
}

func (m Model) commitText() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	switch m.mode {
	case modeAdd:
		text := strings.TrimSpace(value)
		if text == "" {
			m.status = "Task text cannot be empty"
			return m, nil
		}
		m.pendingText = value
		m.addSubs = m.store.ListSubcategories(m.addCategory)
		m.addSubPick = ""
		m.mode = modeAddSub
		m.input.Blur()
		m.status = "Pick a subcategory (1-9), 0 for none, + to create one"
	case modeEdit:
		m.store.EditText(m.editID, value)
		m.mode = modeList
		m.input.Blur()
		m.rebuildRows()
		m.status = "Saved"
	case modeImport:
		path := strings.TrimSpace(value)
		m.mode = modeList
		m.input.Blur()
		if path == "" {
			m.status = "Import cancelled"
			return m, nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			m.status = fmt.Sprintf("import failed: %v", err)
			return m, nil
		}
		n, err := m.store.ImportReplaceAll(data)
		if err != nil {
			m.status = fmt.Sprintf("import rejected: %v", err)
			return m, nil
		}
		m.rebuildRows()
		m.status = fmt.Sprintf("Imported %d tasks", n)
	case modeDailyAddText:
		text := strings.TrimSpace(value)
		if text == "" {
			m.status = "Describe the task first"
			return m, nil
		}
		m.historicText = text
		m.mode = modeDailyAddMinutes
		m.input.Placeholder = "Minutes spent"
		m.input.SetValue("")
		m.status = "How many minutes did it take?"
	case modeDailyAddMinutes:
		minutes, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || minutes <= 0 {
			m.status = "Enter the duration in minutes"
			return m, nil
		}
		if m.store.AddHistorical(m.historicText, normalize.CategoryNone, m.dailyDate, minutes) {
			m.status = "Past task recorded"
		} else {
			m.status = "Could not record the task"
		}
		m.mode = modeDaily
		m.input.Blur()
	case modeNewSub:
		name := strings.TrimSpace(value)
		if name == "" {
			m.status = "Subcategory name cannot be empty"
			return m, nil
		}
		m.store.AddSubcategory(m.addCategory, name)
		m.input.Blur()
		m.input.SetValue("")
		return m.finishAdd(normalize.SubcategoryKey(m.addCategory, name))
	case modeSubRename:
		newName := strings.TrimSpace(value)
		m.mode = modeList
		m.input.Blur()
		if newName == "" {
			m.status = "Rename cancelled"
			return m, nil
		}
		m.store.RenameSubcategory(m.subActionCat, m.subActionName, newName)
		m.rebuildRows()
		m.status = fmt.Sprintf("Renamed to %q", newName)
	}
	m.input.SetValue("")
	return m, nil
}

func (m Model) updateAddSubMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.status = "Cancelled"
		return m, nil
	case "0":
		return m.finishAdd("")
	case "+":
		m.mode = modeNewSub
		m.input.Placeholder = "New subcategory name"
		m.input.SetValue("")
		m.input.Focus()
		m.status = "Name the new subcategory — enter to save, esc to go back"
		return m, nil
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.addSubs) {
			return m.finishAdd(m.addSubs[n-1].Key)
		}
	}
	return m, nil
}

func (m Model) finishAdd(subKey string) (tea.Model, tea.Cmd) {
	lines := strings.Split(m.pendingText, "\n")
	added := m.store.AddLines(lines, m.addCategory, subKey)
	m.mode = modeList
	m.pendingText = ""
	m.rebuildRows()
	if added == 0 {
		m.status = "Nothing to add"
	} else {
		m.status = fmt.Sprintf("Added %d task(s) to %s", added, normalize.CategoryName(m.addCategory))
	}
	return m, nil
}

func (m Model) updateRandomMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.status = ""
		return m, nil
	case "a":
		return m.startTimerFor([]int{0, 1, 2, 3, 4, 5})
	default:
		if n, err := strconv.Atoi(key); err == nil && normalize.ValidCategory(n) {
			return m.startTimerFor([]int{n})
		}
	}
	return m, nil
}

func (m Model) startTimerFor(categories []int) (tea.Model, tea.Cmd) {
	picked := m.store.RandomActive(categories)
	if picked == nil {
		m.mode = modeList
		m.status = "No active tasks in this category"
		return m, nil
	}
	m.timerTask = picked
	m.timerStarted = time.Now()
	m.timerEndsAt = m.timerStarted.Add(time.Duration(m.cfg.TimerMinutes) * time.Minute)
	m.timerDone = false
	m.mode = modeTimer
	m.status = "c complete • esc stop"
	// Scheduling is fire-and-forget; the store is not involved.
	_ = m.scheduler.Schedule(context.Background(), picked.Text, m.timerEndsAt)
	return m, tick()
}

func (m Model) updateTimerMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Complete:
		// Sibling calls: completion goes to the store, cancellation to
		// the scheduler; neither sequences through the other.
		m.store.Complete(m.timerTask.ID, m.timerStarted)
		_ = m.scheduler.Cancel(context.Background())
		m.timerTask = nil
		m.mode = modeList
		m.rebuildRows()
		m.status = "Completed"
	case m.cfg.Keys.Cancel, m.cfg.Keys.Quit:
		_ = m.scheduler.Cancel(context.Background())
		m.timerTask = nil
		m.mode = modeList
		m.status = "Timer stopped"
	}
	return m, nil
}

func (m Model) updateDailyMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, m.cfg.Keys.Daily:
		m.mode = modeList
		m.rebuildRows()
		m.status = ""
	case "h", "left":
		m.dailyDate = m.dailyDate.AddDate(0, 0, -1)
		m.dailyCursor = 0
	case "l", "right":
		m.dailyDate = m.dailyDate.AddDate(0, 0, 1)
		m.dailyCursor = 0
	case m.cfg.Keys.Down, "down":
		if m.dailyCursor < m.dailyTaskCount()-1 {
			m.dailyCursor++
		}
	case m.cfg.Keys.Up, "up":
		if m.dailyCursor > 0 {
			m.dailyCursor--
		}
	case m.cfg.Keys.ReturnTask:
		if t, ok := m.dailyTaskAt(m.dailyCursor); ok {
			m.store.UndoComplete(t.ID)
			m.status = fmt.Sprintf("%q returned to active", t.Text)
			if m.dailyCursor > 0 {
				m.dailyCursor--
			}
		}
	case "n":
		m.mode = modeDailyAddText
		m.input.Placeholder = "What did you do?"
		m.input.SetValue("")
		m.input.Focus()
		m.status = fmt.Sprintf("Recording a task for %s", tasks.LocalDate(m.dailyDate))
	}
	return m, nil
}

func (m Model) dailyGroups() []tasks.DayGroup {
	return m.store.CompletedOn(tasks.LocalDate(m.dailyDate))
}

func (m Model) dailyTaskCount() int {
	n := 0
	for _, g := range m.dailyGroups() {
		n += len(g.Tasks)
	}
	return n
}

func (m Model) dailyTaskAt(idx int) (tasks.Task, bool) {
	for _, g := range m.dailyGroups() {
		for _, t := range g.Tasks {
			if idx == 0 {
				return t, true
			}
			idx--
		}
	}
	return tasks.Task{}, false
}

func (m Model) updateMoveCatMode(key string) (tea.Model, tea.Cmd) {
	if key == m.cfg.Keys.Cancel {
		m.mode = modeList
		m.status = ""
		return m, nil
	}
	if n, err := strconv.Atoi(key); err == nil && normalize.ValidCategory(n) {
		if t := m.currentTask(); t != nil {
			m.store.ChangeCategory(t.ID, n, "")
			m.status = fmt.Sprintf("Moved to %s", normalize.CategoryName(n))
		}
		m.mode = modeList
		m.rebuildRows()
	}
	return m, nil
}

func (m Model) updateSubActionsMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.status = ""
	case "r":
		m.mode = modeSubRename
		m.input.Placeholder = "New subcategory name"
		m.input.SetValue(m.subActionName)
		m.input.Focus()
		m.status = "Rename subcategory — enter to save, esc to cancel"
	case "x":
		m.store.RemoveSubcategory(m.subActionCat, m.subActionName)
		m.mode = modeList
		m.rebuildRows()
		m.status = "Subcategory removed; its tasks were kept"
	case "m":
		m.mode = modeSubMove
		m.status = "Move all its tasks to category 0-5, esc to cancel"
	}
	return m, nil
}

func (m Model) updateSubMoveMode(key string) (tea.Model, tea.Cmd) {
	if key == m.cfg.Keys.Cancel {
		m.mode = modeList
		m.status = ""
		return m, nil
	}
	if n, err := strconv.Atoi(key); err == nil && normalize.ValidCategory(n) {
		m.store.MoveSubcategory(m.subActionCat, m.subActionName, n, "")
		m.mode = modeList
		m.rebuildRows()
		m.status = fmt.Sprintf("Tasks moved to %s", normalize.CategoryName(n))
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	switch m.mode {
	case modeTimer:
		return m.viewTimer()
	case modeDaily, modeDailyAddText, modeDailyAddMinutes:
		return m.viewDaily()
	}

	b.WriteString(headerStyle.Render("korobochka"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString("No tasks yet. Press 'a' to add one.\n")
	}
	collapsed := m.store.CollapsedCategories()
	for i, r := range m.rows {
		if r.header {
			label := normalize.CategoryName(r.category)
			marker := "▾"
			if collapsed[r.category] {
				marker = "▸"
			}
			count := m.store.CountActive(r.category)
			b.WriteString(categoryStyle(r.category).Bold(true).Render(fmt.Sprintf("%s %s", marker, label)))
			b.WriteString(fmt.Sprintf("  (%d active)\n", count))
			continue
		}
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}
		line := fmt.Sprintf("%s %s", cursor, r.task.Text)
		if strings.TrimSpace(r.task.Subcategory) != "" {
			line += "  [" + normalize.SubcategoryLabel(r.task.Category, r.task.Subcategory) + "]"
		}
		if !r.task.Active {
			line = inactiveStyle.Render(line + "  (hidden)")
		}
		b.WriteString("  " + line + "\n")
	}

	b.WriteString("\n")
	switch m.mode {
	case modeAdd, modeEdit, modeImport, modeSubRename:
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case modeAddSub:
		b.WriteString("Subcategory: 0 none")
		for i, opt := range m.addSubs {
			if i >= 9 {
				break
			}
			b.WriteString(fmt.Sprintf(" • %d %s", i+1, opt.Label))
		}
		b.WriteString(" • + new\n")
	}
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(renderHelp(m.cfg.Keys))
	return b.String()
}

func (m Model) viewTimer() string {
	remaining := time.Until(m.timerEndsAt).Round(time.Second)
	if remaining < 0 {
		remaining = 0
	}
	t := m.timerTask
	body := fmt.Sprintf("%s\n%s\n\n%02d:%02d\n\n%s",
		categoryStyle(t.Category).Bold(true).Render(normalize.CategoryName(t.Category)),
		t.Text,
		int(remaining.Minutes()), int(remaining.Seconds())%60,
		m.status,
	)
	return timerStyle.Render(body)
}

func (m Model) viewDaily() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Daily activity — " + tasks.LocalDate(m.dailyDate)))
	b.WriteString("\n\n")

	groups := m.dailyGroups()
	if len(groups) == 0 {
		b.WriteString("No completed tasks on this day.\n")
	}
	idx := 0
	for _, g := range groups {
		b.WriteString(categoryStyle(g.Category).Bold(true).Render(normalize.CategoryName(g.Category)))
		b.WriteString("\n")
		for _, t := range g.Tasks {
			cursor := " "
			if idx == m.dailyCursor {
				cursor = ">"
			}
			dur := "no time recorded"
			if minutes := tasks.DurationMinutes(t); minutes > 0 {
				dur = fmt.Sprintf("%dm", minutes)
			}
			b.WriteString(fmt.Sprintf("%s %s  (%s)\n", cursor, t.Text, dur))
			idx++
		}
	}

	b.WriteString("\n")
	if m.mode == modeDailyAddText || m.mode == modeDailyAddMinutes {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\nh/l day • j/k move • u undo • n add past task • esc back")
	return b.String()
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s edit • space hide/show • %s complete • %s delete • m move • %s random • %s daily • %s export • %s import • %s quit",
		k.Up, k.Down, k.Add, k.Edit, k.Complete, k.Delete, k.Random, k.Daily, k.Export, k.Import, k.Quit)
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
