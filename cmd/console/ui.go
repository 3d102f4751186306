package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/story-sim/internal/logger"
	"github.com/jwebster45206/story-sim/internal/storage"
	"github.com/jwebster45206/story-sim/pkg/scenario"
	"github.com/jwebster45206/story-sim/pkg/session"
	"github.com/jwebster45206/story-sim/pkg/world"
)

const (
	PlaceHolderText = "What do you do? (type help)"

	// commandTimeout bounds one command, including any LLM calls it makes.
	commandTimeout = 3 * time.Minute
)

// Transcript-only line kinds.
const (
	lineInput session.LineKind = "input"
	lineError session.LineKind = "error"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	scen   *scenario.Scenario
	store  storage.SaveStore
	logger *slog.Logger
	opts   []world.Option
	sess   *session.Session

	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool
	fatal        bool

	lines []session.Line

	// Character selection state
	showSelectModal bool
	choices         []choice
	selected        int
	loadingChoices  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

// choice is one entry in the start modal: a playable character, or the
// saved story.
type choice struct {
	label  string
	player string
	resume bool
	slot   string
}

type choicesLoadedMsg struct {
	choices []choice
	err     error
}

type sessionStartedMsg struct {
	sess *session.Session
	err  error
}

type commandResultMsg struct {
	result session.Result
	err    error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(scen *scenario.Scenario, store storage.SaveStore, logger *slog.Logger, opts []world.Option) ConsoleUI {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		scen:            scen,
		store:           store,
		logger:          logger,
		opts:            opts,
		textarea:        ta,
		chatViewport:    chatVp,
		metaViewport:    metaVp,
		showSelectModal: true,
		loadingChoices:  true,
	}
}

// formatLine renders one transcript line wrapped to width.
func formatLine(l session.Line, width int) string {
	if width < 10 {
		width = 10
	}
	switch l.Kind {
	case lineInput:
		return userStyle.Render("> ") + wordwrap.String(l.Text, width-2)
	case session.LineSpeech:
		prefix := l.Speaker + ": "
		return speakerStyle.Render(prefix) + wordwrap.String(l.Text, max(width-len(prefix), 10))
	case session.LineSystem:
		return loadingStyle.Render(wordwrap.String(l.Text, width))
	case session.LineMuted:
		return promptStyle.Render(wordwrap.String(l.Text, width))
	case lineError:
		return errorStyle.Render(wordwrap.String("Error: "+l.Text, width))
	default:
		return narratorStyle.Render(wordwrap.String(l.Text, width))
	}
}

func writeMetadata(sess *session.Session) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("THE WORLD") + "\n\n")
	if sess == nil || sess.World == nil {
		return content.String()
	}
	w := sess.World

	content.WriteString(fmt.Sprintf("Day %d, %s\n\n", w.Day(), w.Period()))

	content.WriteString("Location:\n")
	if loc, ok := w.Scenario().Location(w.PlayerLocation()); ok {
		content.WriteString(loc.Name + "\n\n")
	}

	content.WriteString(fmt.Sprintf("Notoriety: %d/%d\n\n", w.Notoriety(), world.MaxNotoriety))

	objectives := w.Player().ActiveObjectives()
	content.WriteString("Objectives:\n")
	if len(objectives) == 0 {
		content.WriteString("None\n")
	}
	for _, o := range objectives {
		content.WriteString("• " + o.Description + "\n")
	}
	content.WriteString("\n")

	content.WriteString(fmt.Sprintf("Rumors heard: %d\n", len(w.Rumors())))
	content.WriteString(fmt.Sprintf("Save slot: %s\n\n", sess.Slot))

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• help: Commands\n")
	content.WriteString("• /rumors: Rumors\n")
	content.WriteString("• /events: Key events\n")
	content.WriteString("• /copy: Copy transcript\n")

	return content.String()
}

// writeChatContent rebuilds the transcript for the current viewport width
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render(strings.ToUpper(m.scen.Name)) + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	for _, l := range m.lines {
		content.WriteString(formatLine(l, chatWidth) + "\n\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) layout() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showSelectModal {
		return m.loadChoices()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showSelectModal {
		return m.updateSelectModal(msg)
	}

	if m.showQuitModal {
		if _, ok := msg.(commandResultMsg); !ok {
			return m.updateQuitModal(msg)
		}
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.writeChatContent()
		// The world is only read between commands.
		if !m.loading {
			m.metaViewport.SetContent(writeMetadata(m.sess))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.fatal {
				return m, tea.Quit
			}
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				return m.handleViewCommand(input)
			}

			m.lines = append(m.lines, session.Line{Kind: lineInput, Text: input})
			m.loading = true
			m.progressTick = 0
			m.writeChatContent()
			return m, tea.Batch(m.runCommand(input), progressTick())
		}

	case commandResultMsg:
		m.loading = false
		m.lines = append(m.lines, msg.result.Lines...)
		if msg.err != nil {
			m.err = msg.err
			m.fatal = true
			m.lines = append(m.lines,
				session.Line{Kind: lineError, Text: msg.err.Error()},
				session.Line{Kind: session.LineMuted, Text: "Press Enter to exit."})
		}
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.sess))
		if msg.result.Quit {
			return m, tea.Quit
		}
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// handleViewCommand shows logs without spending game time.
func (m ConsoleUI) handleViewCommand(input string) (tea.Model, tea.Cmd) {
	w := m.sess.World
	var entries []string
	var title string

	switch strings.ToLower(input) {
	case "/rumors":
		title, entries = "Rumors", w.Rumors()
	case "/events":
		title, entries = "Key events", w.KeyEvents()
	case "/copy":
		text := "Transcript copied."
		if err := clipboard.WriteAll(transcript(m.lines)); err != nil {
			m.logger.Warn("clipboard write failed", "error", err)
			text = "Could not copy the transcript."
		}
		m.lines = append(m.lines, session.Line{Kind: session.LineMuted, Text: text})
		m.writeChatContent()
		return m, nil
	default:
		m.lines = append(m.lines, session.Line{Kind: session.LineMuted, Text: "Unknown view. Try /rumors, /events or /copy."})
		m.writeChatContent()
		return m, nil
	}

	text := title + ":\n"
	if len(entries) == 0 {
		text += "None yet."
	} else {
		text += "• " + strings.Join(entries, "\n• ")
	}
	m.lines = append(m.lines, session.Line{Kind: session.LineSystem, Text: text})
	m.writeChatContent()
	return m, nil
}

// transcript renders lines as plain text for the clipboard.
func transcript(lines []session.Line) string {
	var sb strings.Builder
	for _, l := range lines {
		switch {
		case l.Kind == lineInput:
			sb.WriteString("> " + l.Text)
		case l.Speaker != "":
			sb.WriteString(l.Speaker + ": " + l.Text)
		default:
			sb.WriteString(l.Text)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// runCommand hands input to the session off the UI goroutine. Quitting
// autosaves.
func (m ConsoleUI) runCommand(input string) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		res, err := sess.Handle(ctx, input)
		if err == nil && res.Quit && sess.Store != nil {
			if serr := sess.Store.Save(ctx, sess.Slot, sess.World.Save()); serr != nil {
				m.logger.Error("Autosave failed", "slot", sess.Slot, "error", serr)
			}
		}
		return commandResultMsg{result: res, err: err}
	}
}

func (m ConsoleUI) loadChoices() tea.Cmd {
	return func() tea.Msg {
		var choices []choice
		if m.store != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			choices = m.savedChoices(ctx)
		}
		for _, key := range m.scen.PlayableCharacters() {
			choices = append(choices, choice{label: "New story as " + m.scen.Characters[key].Name, player: key})
		}
		if len(choices) == 0 {
			return choicesLoadedMsg{err: fmt.Errorf("scenario %q has no playable characters", m.scen.Name)}
		}
		return choicesLoadedMsg{choices: choices}
	}
}

// savedChoices offers every save slot, the autosave first.
func (m ConsoleUI) savedChoices(ctx context.Context) []choice {
	slots, err := m.store.List(ctx)
	if err != nil {
		m.logger.Warn("Failed to list saved stories", "error", err)
		return nil
	}
	var choices []choice
	for _, slot := range slots {
		saved, err := m.store.Load(ctx, slot)
		if err != nil {
			m.logger.Warn("Failed to read a saved story", "slot", slot, "error", err)
			continue
		}
		if saved == nil {
			continue
		}
		name := saved.Player
		if t, ok := m.scen.Characters[saved.Player]; ok {
			name = t.Name
		}
		c := choice{label: fmt.Sprintf("Load %s (%s)", slot, name), player: saved.Player, resume: true, slot: slot}
		if slot == session.DefaultSlot {
			c.label = "Continue as " + name
			choices = append([]choice{c}, choices...)
			continue
		}
		choices = append(choices, c)
	}
	return choices
}

func (m ConsoleUI) startSession(c choice) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if c.resume {
			slot := c.slot
			if slot == "" {
				slot = session.DefaultSlot
			}
			sess, err := session.Resume(ctx, m.scen, m.store, slot, m.logger, m.opts...)
			if err == nil && sess == nil {
				err = fmt.Errorf("the saved story is gone")
			}
			return sessionStartedMsg{sess, err}
		}
		sess, err := session.New(m.scen, c.player, m.store, m.logger, m.opts...)
		return sessionStartedMsg{sess, err}
	}
}

func (m ConsoleUI) updateSelectModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case choicesLoadedMsg:
		m.loadingChoices = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.choices = msg.choices
		}

	case sessionStartedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.sess = msg.sess
		m.logger = logger.WithSession(m.logger, m.sess.World.SessionID().String())
		m.showSelectModal = false
		if m.width > 0 && m.height > 0 {
			m.layout()
		}
		greeting := m.sess.Greeting()
		m.lines = append(m.lines, greeting.Lines...)
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.sess))
		m.textarea.Focus()
		m.ready = true
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingChoices || m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showSelectModal = false
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selected > 0 {
				m.selected--
			}
		case tea.KeyDown:
			if m.selected < len(m.choices)-1 {
				m.selected++
			}
		case tea.KeyEnter:
			if len(m.choices) > 0 && !m.loading {
				m.loading = true
				return m, m.startSession(m.choices[m.selected])
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.sess == nil {
					m.showSelectModal = true
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Leave the city for now? Type 'save' first to keep your place.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderSelectModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.loadingChoices:
		content.WriteString(modalTitleStyle.Render("Loading..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Looking for saved stories..."))
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Cannot start: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Starting..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Setting the scene..."))
	default:
		content.WriteString(modalTitleStyle.Render(m.scen.Name))
		content.WriteString("\n\n")

		for i, c := range m.choices {
			if i == m.selected {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", c.label)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", c.label)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showSelectModal {
		return m.renderSelectModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // blinking progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
