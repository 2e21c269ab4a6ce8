// Package arenatui is the full-screen focus session view.
package arenatui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amonks/ibuddy/app"
	"github.com/amonks/ibuddy/arena"
	internalstrings "github.com/amonks/ibuddy/internal/strings"
	"github.com/amonks/ibuddy/internal/ui"
	"github.com/amonks/ibuddy/notify"
)

// Controller is the part of the application the view drives.
type Controller interface {
	ArenaState() arena.State
	ArenaProgress() float64
	PauseArena() arena.State
	ResumeArena() arena.State
	CompleteCurrent() (app.Advance, error)
	SkipCurrent() (app.Advance, error)
	ExitArena() (arena.Summary, error)
	StartCountdown(ctx context.Context, onTick func(arena.Tick)) error
	StopCountdown()
	ToggleBreathing() bool
	Notifications() []notify.Notification
}

// Options configures Run.
type Options struct {
	// Dark selects the dark palette.
	Dark bool
}

type statusLevel int

const (
	statusNone statusLevel = iota
	statusInfo
	statusError
)

type keyMap struct {
	Toggle   key.Binding
	Complete key.Binding
	Skip     key.Binding
	Breathe  key.Binding
	Exit     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Toggle:   key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "start/pause")),
		Complete: key.NewBinding(key.WithKeys("c", "enter"), key.WithHelp("c", "complete")),
		Skip:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip")),
		Breathe:  key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "breathe")),
		Exit:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "end session")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) short() []key.Binding {
	return []key.Binding{k.Toggle, k.Complete, k.Skip, k.Exit, k.Help, k.Quit}
}

func (k keyMap) full() []key.Binding {
	return []key.Binding{k.Toggle, k.Complete, k.Skip, k.Breathe, k.Exit, k.Help, k.Quit}
}

// tickMsg carries a countdown tick into the update loop.
type tickMsg arena.Tick

// relay forwards countdown ticks to the running program.
type relay struct {
	send func(tea.Msg)
}

func (r *relay) forward(t arena.Tick) {
	if r.send != nil {
		r.send(tickMsg(t))
	}
}

type model struct {
	ctx    context.Context
	ctrl   Controller
	relay  *relay
	keys   keyMap
	styles palette

	width  int
	height int

	state       arena.State
	summary     *arena.Summary
	status      string
	statusLevel statusLevel
	showHelp    bool
}

// Run shows the arena until the user quits. The countdown stops on exit;
// the session itself stays as it is.
func Run(ctx context.Context, ctrl Controller, opts Options) error {
	if ctrl == nil {
		return errors.New("arena controller is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	m := newModel(ctx, ctrl, opts)
	if m.state.Session == nil {
		return arena.ErrNoActiveSession
	}
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.relay.send = program.Send
	defer ctrl.StopCountdown()
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func newModel(ctx context.Context, ctrl Controller, opts Options) model {
	m := model{
		ctx:    ctx,
		ctrl:   ctrl,
		relay:  &relay{},
		keys:   defaultKeys(),
		styles: newPalette(opts.Dark),
	}
	m.refresh()
	return m
}

func (m *model) refresh() {
	m.state = m.ctrl.ArenaState()
}

func (m model) Init() tea.Cmd {
	if m.running() {
		if err := m.ctrl.StartCountdown(m.ctx, m.relay.forward); err != nil {
			return func() tea.Msg { return errMsg{err} }
		}
	}
	return nil
}

type errMsg struct{ err error }

func (m model) running() bool {
	s := m.state.Session
	return s != nil && s.Status == arena.StatusActive && s.Timer.Running
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.refresh()
		if msg.Expired {
			m.afterExpiry()
		}
	case errMsg:
		m.setStatus(msg.err.Error(), statusError)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) afterExpiry() {
	if m.state.Session == nil {
		m.showLatestSummary()
		return
	}
	m.statusFromLatestNotice()
}

func (m *model) showLatestSummary() {
	if n := len(m.state.History); n > 0 {
		summary := m.state.History[n-1]
		m.summary = &summary
	}
}

func (m *model) statusFromLatestNotice() {
	notices := m.ctrl.Notifications()
	if len(notices) == 0 {
		return
	}
	latest := notices[0]
	level := statusInfo
	if latest.Type == notify.TypeError || latest.Type == notify.TypeWarning {
		level = statusError
	}
	m.setStatus(latest.Title+" "+latest.Message, level)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.ctrl.StopCountdown()
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.showHelp = !m.showHelp
		return m, nil
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.summary != nil || m.state.Session == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Toggle):
		m.toggle()
	case key.Matches(msg, m.keys.Complete):
		m.advance(m.ctrl.CompleteCurrent())
	case key.Matches(msg, m.keys.Skip):
		m.advance(m.ctrl.SkipCurrent())
	case key.Matches(msg, m.keys.Breathe):
		m.ctrl.ToggleBreathing()
		m.refresh()
	case key.Matches(msg, m.keys.Exit):
		summary, err := m.ctrl.ExitArena()
		m.refresh()
		if err != nil {
			m.setStatus(err.Error(), statusError)
			break
		}
		m.summary = &summary
	}
	return m, nil
}

func (m *model) toggle() {
	if m.running() {
		m.ctrl.PauseArena()
		m.refresh()
		m.setStatus("Paused", statusInfo)
		return
	}
	m.ctrl.ResumeArena()
	m.refresh()
	if err := m.ctrl.StartCountdown(m.ctx, m.relay.forward); err != nil {
		m.setStatus(err.Error(), statusError)
		return
	}
	m.setStatus("Focus!", statusInfo)
}

func (m *model) advance(adv app.Advance, err error) {
	m.refresh()
	if err != nil {
		m.setStatus(err.Error(), statusError)
		return
	}
	if adv.Ended {
		summary := adv.Summary
		m.summary = &summary
		return
	}
	m.setStatus(fmt.Sprintf("Next up: %s (take a %d min break first)", adv.Next.Title, adv.BreakMinutes), statusInfo)
	if m.running() {
		if err := m.ctrl.StartCountdown(m.ctx, m.relay.forward); err != nil {
			m.setStatus(err.Error(), statusError)
		}
	}
}

func (m *model) setStatus(text string, level statusLevel) {
	m.status = text
	m.statusLevel = level
}

func (m model) View() string {
	width := m.width
	if width == 0 {
		width = 60
	}
	var body string
	switch {
	case m.showHelp:
		body = m.styles.modal.Render(m.helpContent())
	case m.summary != nil:
		body = m.renderSummary(*m.summary)
	case m.state.Session == nil:
		body = m.styles.muted.Render("No active session.")
	default:
		body = m.renderSession(*m.state.Session, width)
	}
	lines := []string{m.renderBar(width), body}
	if status := m.renderStatusLine(); status != "" {
		lines = append(lines, status)
	}
	lines = append(lines, m.renderHelpLine())
	return strings.Join(lines, "\n")
}

func (m model) renderBar(width int) string {
	left := "Arena"
	if s := m.state.Session; s != nil && m.summary == nil {
		left = fmt.Sprintf("Arena  task %d of %d", s.CurrentIndex+1, len(s.Tasks))
	}
	right := "? help"
	spacer := max(width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return m.styles.bar.Render(left + strings.Repeat(" ", spacer) + right)
}

func (m model) renderSession(s arena.Session, width int) string {
	cur := s.Tasks[s.CurrentIndex]
	clockStyle := m.styles.clockIdle
	if m.running() {
		clockStyle = m.styles.clock
	}
	meta := fmt.Sprintf("%s · %s priority · %d min", cur.Subject, cur.Priority, cur.Duration)
	counts := fmt.Sprintf("completed %d · skipped %d · remaining %d",
		len(s.Completed), len(s.Skipped), len(s.Tasks)-s.CurrentIndex-1)

	content := []string{
		m.styles.title.Render(cur.Title),
		m.styles.muted.Render(meta),
		clockStyle.Render(ui.FormatClock(s.Timer.Remaining)),
		m.renderProgress(m.ctrl.ArenaProgress(), max(width-8, 10)),
		m.styles.muted.Render(counts),
	}
	if s.Status == arena.StatusPaused || !s.Timer.Running {
		content = append(content, m.styles.muted.Render("Press space to start the timer."))
	}
	if m.state.ShowBreathing {
		content = append(content, "", m.styles.label.Render("Breathe in for 4, hold for 4, out for 4."))
	}
	return m.styles.pane.Width(max(width-4, 20)).Render(strings.Join(content, "\n"))
}

func (m model) renderProgress(pct float64, width int) string {
	filled := min(int(pct/100*float64(width)), width)
	return m.styles.filled.Render(strings.Repeat("#", filled)) +
		m.styles.empty.Render(strings.Repeat(".", width-filled)) +
		fmt.Sprintf(" %3.0f%%", pct)
}

func (m model) renderSummary(s arena.Summary) string {
	title := "Session complete"
	if s.Status == arena.StatusCancelled {
		title = "Session cancelled"
	}
	lines := []string{
		m.styles.title.Render(title),
		fmt.Sprintf("Focus score  %d%%", s.FocusScore),
		fmt.Sprintf("Tasks        %d of %d", s.TasksCompleted, s.TotalTasks),
		fmt.Sprintf("Focus time   %s", ui.FormatMinutes(s.FocusTime)),
		fmt.Sprintf("Coins earned %d", arena.CoinReward(s)),
		"",
		m.styles.muted.Render("Run `ibuddy results` for the full report. Press q to quit."),
	}
	return m.styles.pane.Render(strings.Join(lines, "\n"))
}

func (m model) renderStatusLine() string {
	if internalstrings.IsBlank(m.status) {
		return ""
	}
	switch m.statusLevel {
	case statusError:
		return m.styles.failure.Render(m.status)
	case statusInfo:
		return m.styles.success.Render(m.status)
	}
	return m.styles.muted.Render(m.status)
}

func (m model) renderHelpLine() string {
	parts := make([]string, 0, len(m.keys.short()))
	for _, b := range m.keys.short() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.styles.muted.Render(strings.Join(parts, " | "))
}

func (m model) helpContent() string {
	lines := []string{m.styles.label.Render("Keys"), ""}
	for _, b := range m.keys.full() {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("%-6s %s", h.Key, h.Desc))
	}
	return strings.Join(lines, "\n")
}
