package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/elmaestro544/scigenius/pkg/conversation"
	"github.com/elmaestro544/scigenius/pkg/i18n"
	"github.com/rs/zerolog/log"
)

type errMsg error

type attachmentMsg struct {
	Name string
}

type savedMsg struct {
	Path string
}

type State string

const (
	StateUserInput    State = "user_input"
	StateMovingAround State = "moving_around"
)

const (
	fileCommand  = "/file"
	clearCommand = "/clear"

	defaultWidth    = 80
	DefaultSavePath = "scigenius-conversation.json"
)

type model struct {
	backend    Backend
	translator *i18n.Translator

	viewport viewport.Model
	textArea textarea.Model
	help     help.Model
	spinner  spinner.Model

	keyMap KeyMap
	style  *Style

	// glamourStyle is passed to glamour.WithStylePath. Empty disables
	// markdown rendering.
	glamourStyle string
	renderer     *glamour.TermRenderer
	rendererWrap int

	width  int
	height int

	conversation   conversation.Conversation
	busy           bool
	submitting     bool
	attachmentName string
	suggestionIdx  int
	savePath       string

	status string
	err    error
	state  State
}

type ModelOption func(*model)

func WithGlamourStyle(style string) ModelOption {
	return func(m *model) {
		m.glamourStyle = style
	}
}

func WithSavePath(path string) ModelOption {
	return func(m *model) {
		m.savePath = path
	}
}

// WithAttachmentName shows a document that was bound before the UI started.
func WithAttachmentName(name string) ModelOption {
	return func(m *model) {
		m.attachmentName = name
	}
}

// WithConversation shows turns that exist before the first snapshot arrives.
func WithConversation(c conversation.Conversation) ModelOption {
	return func(m *model) {
		m.conversation = c
	}
}

func WithStyle(style *Style) ModelOption {
	return func(m *model) {
		m.style = style
	}
}

func InitialModel(backend Backend, translator *i18n.Translator, options ...ModelOption) model {
	ret := model{
		backend:      backend,
		translator:   translator,
		style:        DefaultStyles(),
		keyMap:       DefaultKeyMap,
		viewport:     viewport.New(0, 0),
		help:         help.New(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		glamourStyle: "auto",
		savePath:     DefaultSavePath,
		conversation: conversation.Conversation{},
	}
	for _, o := range options {
		o(&ret)
	}

	ret.textArea = textarea.New()
	ret.textArea.Placeholder = translator.T(i18n.KeyPlaceholder)
	ret.textArea.ShowLineNumbers = false
	ret.textArea.Focus()
	ret.state = StateUserInput

	ret.viewport.SetContent(ret.messageView())
	ret.viewport.GotoBottom()

	ret.updateKeyBindings()

	return ret
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keyMap.UnfocusMessage):
			m.textArea.Blur()
			m.state = StateMovingAround
			m.updateKeyBindings()

		case key.Matches(msg, m.keyMap.FocusMessage):
			cmds = append(cmds, m.textArea.Focus())
			m.state = StateUserInput
			m.updateKeyBindings()

		case key.Matches(msg, m.keyMap.SubmitMessage):
			cmds = append(cmds, m.submit())

		case key.Matches(msg, m.keyMap.NextSuggestion):
			m.nextSuggestion()

		case key.Matches(msg, m.keyMap.SaveToFile):
			cmds = append(cmds, m.save())

		case key.Matches(msg, m.keyMap.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.recomputeSize()

		case key.Matches(msg, m.keyMap.ScrollUp):
			m.viewport.HalfViewUp()

		case key.Matches(msg, m.keyMap.ScrollDown):
			m.viewport.HalfViewDown()

		default:
			switch m.state {
			case StateUserInput:
				m.textArea, cmd = m.textArea.Update(msg)
				cmds = append(cmds, cmd)
			case StateMovingAround:
				m.viewport, cmd = m.viewport.Update(msg)
				cmds = append(cmds, cmd)
			}
		}
		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recomputeSize()

	case SnapshotMsg:
		m.conversation = msg.Conversation
		m.busy = msg.Busy
		m.submitting = false
		m.refresh()

	case attachmentMsg:
		m.attachmentName = msg.Name
		m.err = nil
		m.status = ""
		m.recomputeSize()

	case savedMsg:
		m.status = fmt.Sprintf("saved %s", msg.Path)
		m.recomputeSize()

	case errMsg:
		m.err = msg
		m.submitting = false
		m.recomputeSize()

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.busy {
			m.viewport.SetContent(m.messageView())
		}
		return m, tea.Batch(cmds...)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *model) updateKeyBindings() {
	m.keyMap.FocusMessage.SetEnabled(m.state == StateMovingAround)
	m.keyMap.UnfocusMessage.SetEnabled(m.state == StateUserInput)
	m.keyMap.SubmitMessage.SetEnabled(m.state == StateUserInput)
	m.keyMap.NextSuggestion.SetEnabled(m.state == StateUserInput)
}

// submit sends the textarea content. Commands are handled locally, anything
// else goes to the backend from a tea.Cmd. Nothing is sent while an answer
// is in flight.
func (m *model) submit() tea.Cmd {
	text := strings.TrimSpace(m.textArea.Value())
	if text == "" || m.busy || m.submitting {
		return nil
	}
	m.textArea.SetValue("")
	m.err = nil
	m.status = ""

	backend := m.backend

	switch {
	case text == clearCommand:
		return func() tea.Msg {
			if err := backend.ClearAttachment(); err != nil {
				return errMsg(err)
			}
			return attachmentMsg{}
		}

	case strings.HasPrefix(text, fileCommand+" "):
		path := strings.TrimSpace(strings.TrimPrefix(text, fileCommand))
		return func() tea.Msg {
			name, err := backend.BindFile(path)
			if err != nil {
				return errMsg(err)
			}
			return attachmentMsg{Name: name}
		}
	}

	m.submitting = true
	return func() tea.Msg {
		if err := backend.Submit(text); err != nil {
			return errMsg(err)
		}
		return nil
	}
}

func (m *model) save() tea.Cmd {
	backend := m.backend
	path := m.savePath
	return func() tea.Msg {
		if err := backend.SaveToFile(path); err != nil {
			return errMsg(err)
		}
		return savedMsg{Path: path}
	}
}

func (m *model) nextSuggestion() {
	suggestions := []string{i18n.KeySuggestion1, i18n.KeySuggestion2, i18n.KeySuggestion3}
	m.textArea.SetValue(m.translator.T(suggestions[m.suggestionIdx%len(suggestions)]))
	m.suggestionIdx++
}

func (m *model) refresh() {
	m.viewport.SetContent(m.messageView())
	m.recomputeSize()
}

func (m *model) recomputeSize() {
	headerHeight := lipgloss.Height(m.headerView())
	textAreaHeight := lipgloss.Height(m.textAreaView())
	footerHeight := lipgloss.Height(m.footerView())

	newHeight := m.height - headerHeight - textAreaHeight - footerHeight - 2
	if newHeight < 0 {
		newHeight = 0
	}
	m.viewport.Width = m.width
	m.viewport.Height = newHeight
	m.viewport.YPosition = headerHeight + 1

	h, _ := m.style.FocusedMessage.GetFrameSize()
	m.textArea.SetWidth(m.contentWidth() - h)
	m.help.Width = m.width

	m.updateRenderer()

	m.viewport.SetContent(m.messageView())
	m.viewport.GotoBottom()
}

func (m *model) updateRenderer() {
	if m.glamourStyle == "" {
		m.renderer = nil
		return
	}
	w, _ := m.style.ModelMessage.GetFrameSize()
	wrap := m.contentWidth() - w
	if m.renderer != nil && wrap == m.rendererWrap {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(m.glamourStyle),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		log.Warn().Err(err).Str("style", m.glamourStyle).Msg("Could not create markdown renderer")
		m.renderer = nil
		return
	}
	m.renderer = r
	m.rendererWrap = wrap
}

func (m model) contentWidth() int {
	if m.width <= 0 {
		return defaultWidth
	}
	return m.width
}

func (m model) isRTL() bool {
	return m.translator.Language().IsRTL()
}

func (m model) headerView() string {
	title := m.style.Header.Render(m.translator.T(i18n.KeyAppName)) + "  " +
		m.style.Subtitle.Render(m.translator.T(i18n.KeyHeroTitle))

	var attachment string
	if m.attachmentName != "" {
		attachment = m.style.Attachment.Render(m.translator.T(i18n.KeyFileUploaded)+" "+m.attachmentName) +
			m.style.Muted.Render(fmt.Sprintf("  (%s: %s PATH, %s)", m.translator.T(i18n.KeyChangeFile), fileCommand, clearCommand))
	} else {
		attachment = m.style.Muted.Render(fmt.Sprintf("%s (%s PATH)", m.translator.T(i18n.KeyUploadCTA), fileCommand))
	}

	return m.align(title + "\n" + attachment)
}

func (m model) messageView() string {
	if len(m.conversation) == 0 {
		return m.emptyView()
	}

	ret := ""
	last := m.conversation.Last()
	for _, t := range m.conversation {
		pending := m.busy && t == last && t.Speaker == conversation.SpeakerModel && t.Text == ""
		ret += m.turnView(t, pending)
		ret += "\n"
	}
	return ret
}

func (m model) emptyView() string {
	lines := []string{
		m.style.Subtitle.Render(m.translator.T(i18n.KeyHeroSubtitle)),
		"",
		m.translator.T(i18n.KeyAskAnything),
	}
	for _, k := range []string{i18n.KeySuggestion1, i18n.KeySuggestion2, i18n.KeySuggestion3} {
		lines = append(lines, m.style.Muted.Render("  "+m.translator.T(k)))
	}
	return m.align(wrapWords(strings.Join(lines, "\n"), m.contentWidth()))
}

func (m model) turnView(t *conversation.Turn, pending bool) string {
	speaker := m.translator.T(i18n.KeyModel)
	style := m.style.ModelMessage
	if t.Speaker == conversation.SpeakerUser {
		speaker = m.translator.T(i18n.KeyYou)
		style = m.style.UserMessage
	}

	w, _ := style.GetFrameSize()
	width := m.contentWidth() - w

	var body string
	switch {
	case pending:
		body = m.spinner.View() + " " + m.translator.T(i18n.KeyThinking)
	case t.Speaker == conversation.SpeakerModel:
		body = m.renderMarkdown(t.Text, width)
	default:
		body = wrapWords(t.Text, width)
	}

	if t.HasRelatedPapers() {
		body += "\n\n" + m.papersView(t, width)
	}

	style = style.Width(m.contentWidth() - style.GetHorizontalBorderSize())
	if m.isRTL() {
		style = style.Align(lipgloss.Right)
	}
	return style.Render(m.style.Speaker.Render(speaker) + "\n" + body)
}

func (m model) papersView(t *conversation.Turn, width int) string {
	var b strings.Builder
	for i, p := range t.RelatedPapers {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Title)
		fmt.Fprintf(&b, "   %s (%s)\n", p.Authors, p.Year)
		if p.Summary != "" {
			fmt.Fprintf(&b, "   %s\n", p.Summary)
		}
		fmt.Fprintf(&b, "   %s: %s (%s)\n", m.translator.T(i18n.KeyViewSource), p.URL, p.Hostname())
	}

	if len(t.Citations) > 0 {
		fmt.Fprintf(&b, "\n%s:\n", m.translator.T(i18n.KeySources))
		for _, c := range t.Citations {
			title := c.Title
			if title == "" {
				title = c.URI
			}
			fmt.Fprintf(&b, "- %s (%s)\n", title, c.Hostname())
		}
	}

	return wrapWords(strings.TrimRight(b.String(), "\n"), width)
}

func (m model) renderMarkdown(text string, width int) string {
	if m.renderer == nil {
		return wrapWords(text, width)
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		log.Debug().Err(err).Msg("Could not render markdown")
		return wrapWords(text, width)
	}
	return strings.Trim(out, "\n")
}

func (m model) textAreaView() string {
	v := m.textArea.View()
	switch m.state {
	case StateUserInput:
		v = m.style.FocusedMessage.Render(v)
	case StateMovingAround:
		v = m.style.UnselectedMessage.Render(v)
	}

	if m.err != nil {
		w, _ := m.style.FocusedMessage.GetFrameSize()
		v = m.style.Error.Render(wrapWords(m.err.Error(), m.contentWidth()-w)) + "\n" + v
	}
	return v
}

func (m model) footerView() string {
	footer := m.help.View(m.keyMap)
	if m.status != "" {
		footer = m.style.Muted.Render(m.status) + "\n" + footer
	}
	return footer + "\n" + m.style.Muted.Render(m.translator.T(i18n.KeyFooterText))
}

func (m model) align(s string) string {
	if !m.isRTL() {
		return s
	}
	return lipgloss.NewStyle().Width(m.contentWidth()).Align(lipgloss.Right).Render(s)
}

func (m model) View() string {
	return m.headerView() + "\n" +
		m.viewport.View() + "\n" +
		m.textAreaView() + "\n" +
		m.footerView()
}
