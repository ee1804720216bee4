package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/suderio/dreamland/internal/engine"
	"github.com/suderio/dreamland/internal/narrative"
	"github.com/suderio/dreamland/internal/parser"
	"github.com/suderio/dreamland/internal/session"
	"github.com/suderio/dreamland/internal/throttle"
)

const (
	pollEvery  = 100 * time.Millisecond
	stepFrames = 80 * time.Millisecond
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F25D94"))

	stateBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 2)

	logBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Padding(0, 1)

	autocompleteStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#F25D94"))

	kindStyles = map[narrative.Kind]lipgloss.Style{
		narrative.KindNarrative: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#C9B8FF")),
		narrative.KindAction:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")),
		narrative.KindSystem:    lipgloss.NewStyle().Foreground(lipgloss.Color("#999999")),
		narrative.KindMonologue: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#04B575")),
	}
	newMark = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F25D94")).Render("• ")
)

type suggestion string

func (s suggestion) Title() string       { return string(s) }
func (s suggestion) Description() string { return "" }
func (s suggestion) FilterValue() string { return string(s) }

type (
	pollMsg     struct{}
	stepDoneMsg struct{}
)

type playModel struct {
	ctx         context.Context
	app         *session.Session
	profile     string
	textInput   textinput.Model
	viewport    viewport.Model
	suggestions list.Model
	history     []string
	historyIdx  int
	notes       []string
	problem     string
	width       int
	height      int
	showList    bool
	polling     bool
}

func newPlayModel(ctx context.Context, app *session.Session, profile string) playModel {
	ti := textinput.New()
	ti.Placeholder = "Type a command (e.g., attack wolf-1), or 'new' to begin..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60

	vp := viewport.New(0, 0)

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetHeight(1)
	delegate.SetSpacing(0)
	sugList := list.New([]list.Item{}, delegate, 50, 7)
	sugList.SetShowTitle(false)
	sugList.SetShowStatusBar(false)
	sugList.SetFilteringEnabled(false)
	sugList.SetShowHelp(false)

	m := playModel{
		ctx:         ctx,
		app:         app,
		profile:     profile,
		textInput:   ti,
		viewport:    vp,
		suggestions: sugList,
		historyIdx:  -1,
		notes:       []string{"Welcome to the dreamland. Type 'new' to fall asleep, 'help' for commands, 'exit' to leave."},
	}
	m.refreshLog()
	return m
}

func (m *playModel) Init() tea.Cmd {
	return textinput.Blink
}

// words completes the argument of verb from what the dreamer can see and
// carry.
func (m *playModel) words(verb string) []string {
	snap := m.app.Snapshot()
	cat := m.app.Catalog()
	var out []string
	switch verb {
	case "attack", "hit", "harvest", "gather":
		if snap.State != nil {
			for _, id := range snap.State.CreatureIDs() {
				if c := snap.State.Creatures[id]; c.Alive() {
					out = append(out, id)
				}
			}
		}
	case "use", "eat", "drink", "equip", "wield", "drop", "fuse":
		if snap.State != nil {
			for id, n := range snap.State.Player.Inventory {
				if n > 0 {
					out = append(out, id)
				}
			}
		}
	case "cast":
		for id := range cat.Skills {
			out = append(out, id)
		}
	case "craft":
		for id := range cat.Recipes {
			out = append(out, id)
		}
	case "build":
		for id := range cat.Structures {
			out = append(out, id)
		}
	case "move", "go", "walk":
		for _, d := range compass {
			out = append(out, string(d))
		}
	case "help":
		for v := range parser.Usage {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func (m *playModel) updateSuggestions() {
	val := m.textInput.Value()
	var items []list.Item

	defer func() {
		m.suggestions.SetItems(items)
		m.showList = len(items) > 0
		if m.showList {
			m.suggestions.SetHeight(min(max(len(items), 4), 10))
			m.suggestions.ResetSelected()
		}
	}()

	if strings.TrimSpace(val) == "" {
		return
	}

	verb, rest, hasArg := strings.Cut(val, " ")
	if !hasArg {
		verbs := []string{"new", "exit"}
		for v := range parser.Usage {
			verbs = append(verbs, v)
		}
		sort.Strings(verbs)
		for _, v := range verbs {
			if strings.HasPrefix(v, strings.ToLower(val)) && len(val) < len(v) {
				items = append(items, suggestion(v+" "))
			}
		}
		return
	}

	// Complete the last word of the argument list.
	prefix := rest
	if i := strings.LastIndex(rest, " "); i >= 0 {
		prefix = rest[i+1:]
	}
	base := val[:len(val)-len(prefix)]
	for _, w := range m.words(strings.ToLower(verb)) {
		if strings.HasPrefix(strings.ToLower(w), strings.ToLower(prefix)) && len(prefix) < len(w) {
			items = append(items, suggestion(base+w))
		}
	}
}

func (m *playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		lsCmd tea.Cmd
		cmds  []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if dir := throttle.KeyDirection(strings.TrimPrefix(msg.String(), "alt+")); msg.Alt && dir != throttle.None {
			cmds = append(cmds, m.step(dir))
			break
		}
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyUp:
			if m.showList {
				m.suggestions, lsCmd = m.suggestions.Update(msg)
			} else if len(m.history) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.history) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.history[m.historyIdx])
				m.updateSuggestions()
			}

		case tea.KeyDown:
			if m.showList {
				m.suggestions, lsCmd = m.suggestions.Update(msg)
			} else if len(m.history) > 0 && m.historyIdx != -1 {
				if m.historyIdx < len(m.history)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.history[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.updateSuggestions()
			}

		case tea.KeyTab:
			if m.showList {
				if i, ok := m.suggestions.SelectedItem().(suggestion); ok {
					m.textInput.SetValue(string(i))
					m.textInput.SetCursor(len(string(i)))
					m.updateSuggestions()
				}
			}

		case tea.KeyEnter:
			val := strings.TrimSpace(m.textInput.Value())
			if val == "exit" {
				return m, tea.Quit
			}
			if val != "" {
				if len(m.history) == 0 || m.history[len(m.history)-1] != val {
					m.history = append(m.history, val)
				}
				m.historyIdx = -1
				m.textInput.SetValue("")
				m.updateSuggestions()
				m.run(val)
			}

		default:
			m.textInput, tiCmd = m.textInput.Update(msg)
			m.updateSuggestions()
		}

	case pollMsg:
		m.polling = false
		m.refreshLog()

	case stepDoneMsg:
		m.app.SetAnimating(false)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.suggestions.SetWidth(msg.Width - 6)
		m.refreshLog()
	}

	m.viewport, vpCmd = m.viewport.Update(msg)

	titleH := lipgloss.Height(titleStyle.Render("Dummy"))
	stateH := lipgloss.Height(m.renderState())
	notesH := lipgloss.Height(m.renderNotes())
	listAreaHeight := 0
	if m.showList {
		listAreaHeight = m.suggestions.Height() + 2
	}
	infoH := lipgloss.Height(infoStyle.Render("Dummy"))

	overhead := titleH + stateH + notesH + 1 + listAreaHeight + infoH + 4
	m.viewport.Height = max(m.height-overhead, 4)

	if !m.polling && m.app.Snapshot().Busy {
		m.polling = true
		cmds = append(cmds, tea.Tick(pollEvery, func(time.Time) tea.Msg { return pollMsg{} }))
	}
	cmds = append(cmds, tiCmd, vpCmd, lsCmd)
	return m, tea.Batch(cmds...)
}

// run executes one typed line. Refusals are shown under the log, not in it.
func (m *playModel) run(line string) {
	m.problem, m.notes = "", nil
	m.app.MarkSeen()
	var err error
	if line == "new" {
		err = m.app.NewGame(m.ctx)
	} else {
		var reply session.Reply
		reply, err = m.app.Execute(m.ctx, line)
		m.notes = reply.Lines
	}
	if err != nil {
		m.problem = err.Error()
	}
	m.refreshLog()
}

// step walks one cell from a key press, holding further moves until the
// step has been drawn.
func (m *playModel) step(dir throttle.Direction) tea.Cmd {
	if !m.app.CanEmitMove() {
		return nil
	}
	m.problem = ""
	m.app.MarkSeen()
	if _, err := m.app.Move(m.ctx, session.Request{Direction: string(dir)}); err != nil {
		m.problem = err.Error()
		return nil
	}
	m.refreshLog()
	m.app.SetAnimating(true)
	return tea.Tick(stepFrames, func(time.Time) tea.Msg { return stepDoneMsg{} })
}

func (m *playModel) refreshLog() {
	var b strings.Builder
	for _, e := range m.app.Log(0) {
		if e.IsNew {
			b.WriteString(newMark)
		}
		style, ok := kindStyles[e.Kind]
		if !ok {
			style = kindStyles[narrative.KindAction]
		}
		b.WriteString(style.Width(max(m.viewport.Width-2, 20)).Render(e.Text))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *playModel) renderState() string {
	snap := m.app.Snapshot()
	var b strings.Builder
	switch {
	case snap.State == nil || snap.State.Phase == engine.PhaseMenu:
		b.WriteString("You are awake. Type 'new' to dream.")
	default:
		st := snap.State
		p := st.Player
		fmt.Fprintf(&b, "%s  HP %d/%d  Stamina %d/%d  Mana %d/%d  Hunger %d/%d\n",
			p.Name, p.HP, p.MaxHP, p.Stamina, p.MaxStamina, p.Mana, p.MaxMana, p.Hunger, p.MaxHunger)
		fmt.Fprintf(&b, "%s  %s  at (%d,%d)", st.Clock, orDash(st.Weather.Kind), p.Position.X, p.Position.Y)
		if snap.Busy {
			b.WriteString("  ~ the dream shifts ~")
		}
		var near []string
		for _, id := range st.CreatureIDs() {
			c := st.Creatures[id]
			if c.Alive() && c.Position.Distance(p.Position) <= 3 {
				near = append(near, fmt.Sprintf("%s %d/%d", id, c.HP, c.MaxHP))
			}
		}
		if len(near) > 0 {
			fmt.Fprintf(&b, "\nNearby: %s", strings.Join(near, ", "))
		}
		if st.Over() {
			b.WriteString("\nYou have fallen. Type 'new' to dream again.")
		}
	}
	return stateBoxStyle.Width(max(m.width-4, 20)).Render(b.String())
}

func (m *playModel) renderNotes() string {
	if m.problem != "" {
		return errorStyle.Render(m.problem)
	}
	return infoStyle.Render(strings.Join(m.notes, "\n"))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (m *playModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	name := m.profile
	if name == "" {
		name = "unnamed dreamer"
	}
	title := titleStyle.Render(fmt.Sprintf(" Dreamland | %s ", name))
	logBox := logBoxStyle.Width(m.width - 4).Render(m.viewport.View())

	inputArea := m.textInput.View()
	if m.showList {
		inputArea = fmt.Sprintf("%s\n%s", inputArea, autocompleteStyle.Render(m.suggestions.View()))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.renderState(),
		logBox,
		m.renderNotes(),
		inputArea,
		infoStyle.Render("(esc to quit, tab to complete, up/down history, alt+arrows/wasd/hjkl to walk)"),
	)
}

// RunTUI plays app in the terminal until the user quits.
func RunTUI(ctx context.Context, app *session.Session, profile string) error {
	m := newPlayModel(ctx, app, profile)
	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
