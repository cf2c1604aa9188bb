package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/Yates-Labs/spoke/internal/completion"
	"github.com/Yates-Labs/spoke/internal/orchestrator"
	"github.com/Yates-Labs/spoke/internal/prompt"
	"github.com/Yates-Labs/spoke/internal/render"
)

// supportState is the current screen of the support program.
type supportState int

const (
	// supportViewAsk is the question box with the latest answer below it.
	supportViewAsk supportState = iota
	// supportViewModel selects the completion model.
	supportViewModel
	// supportViewPersona edits the system prompt.
	supportViewPersona
)

// supportModel is the Bubble Tea model of the support chat.
type supportModel struct {
	ctx           context.Context
	pipeline      *orchestrator.SupportPipeline
	session       *orchestrator.Session
	state         supportState
	isLoading     bool
	err           error
	warning       string
	modelList     list.Model
	persona       textarea.Model
	question      textarea.Model
	viewport      viewport.Model
	spinner       spinner.Model
	showContext   bool
	showPrompt    bool
	example       int
	width, height int
	requestStart  time.Time
}

// answerMsg carries the session as updated by a successful request.
type answerMsg struct{ session orchestrator.Session }

// answerErr is sent when a support request fails.
type answerErr struct{ error }

func newSupportModel(ctx context.Context, pipeline *orchestrator.SupportPipeline, session *orchestrator.Session) *supportModel {
	models := make([]list.Item, len(completion.Models))
	for i, name := range completion.Models {
		desc := "Select this model"
		if name == completion.DefaultModel {
			desc = "Default"
		}
		models[i] = item{title: name, desc: desc}
	}
	modelList := list.New(models, list.NewDefaultDelegate(), 0, 0)
	modelList.Title = "Select a Model"
	if i := completion.IndexOf(session.Model); i >= 0 {
		modelList.Select(i)
	}

	persona := textarea.New()
	persona.ShowLineNumbers = false
	persona.CharLimit = -1
	persona.SetHeight(12)

	return &supportModel{
		ctx:       ctx,
		pipeline:  pipeline,
		session:   session,
		state:     supportViewAsk,
		modelList: modelList,
		persona:   persona,
		question:  newInput("例: ヘルメットの着用は義務ですか？", "質問: "),
		viewport:  viewport.New(100, 10),
		spinner:   newSpinner(),
		example:   -1,
	}
}

// RunSupport starts the support chat for one session.
func RunSupport(ctx context.Context, pipeline *orchestrator.SupportPipeline, session *orchestrator.Session) error {
	m := newSupportModel(ctx, pipeline, session)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// askCmd runs the support flow on a copy of the session so the UI never
// shares state with the request in flight.
func (m *supportModel) askCmd(question string) tea.Cmd {
	snapshot := *m.session
	return func() tea.Msg {
		if _, err := m.pipeline.Ask(m.ctx, &snapshot, question); err != nil {
			return answerErr{error: err}
		}
		return answerMsg{session: snapshot}
	}
}

// Init starts the spinner animation.
func (m *supportModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages for every support screen.
func (m *supportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.isLoading {
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.modelList.SetSize(msg.Width-2, msg.Height-4)
		m.persona.SetWidth(msg.Width - 4)
		m.question.SetWidth(msg.Width - 3)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(3, msg.Height-9)
		m.refresh()

	case answerMsg:
		m.isLoading = false
		*m.session = msg.session
		m.err = nil
		m.question.Focus()
		m.refresh()
		m.viewport.GotoTop()
		return m, nil

	case answerErr:
		m.isLoading = false
		m.err = msg.error
		log.Error().Err(msg.error).Msg("support request failed")
		m.question.Focus()
		m.refresh()
		return m, nil
	}

	switch m.state {
	case supportViewModel:
		m.modelList, cmd = m.modelList.Update(msg)
		cmds = append(cmds, cmd)
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "enter":
				if selected, ok := m.modelList.SelectedItem().(item); ok {
					if err := m.session.SetModel(selected.title); err != nil {
						m.err = err
					}
				}
				m.state = supportViewAsk
				m.refresh()
			case "esc":
				m.state = supportViewAsk
			}
		}

	case supportViewPersona:
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "ctrl+s":
				m.session.SystemPrompt = m.persona.Value()
				m.state = supportViewAsk
				m.question.Focus()
				return m, nil
			case "esc":
				m.state = supportViewAsk
				m.question.Focus()
				return m, nil
			}
		}
		m.persona, cmd = m.persona.Update(msg)
		cmds = append(cmds, cmd)

	case supportViewAsk:
		if msg, ok := msg.(tea.KeyMsg); ok {
			if handled, cmd := m.handleAskKey(msg); handled {
				return m, cmd
			}
		}
		m.question, cmd = m.question.Update(msg)
		cmds = append(cmds, cmd)
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.isLoading {
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleAskKey processes the shortcuts of the question screen.
func (m *supportModel) handleAskKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if strings.HasPrefix(key, "alt+") {
		var n int
		if _, err := fmt.Sscanf(strings.TrimPrefix(key, "alt+"), "%d", &n); err == nil && n >= 1 && n <= len(prompt.ExampleQuestions) {
			m.example = n - 1
			m.question.SetValue(prompt.ExampleQuestions[n-1])
			m.question.CursorEnd()
			return true, nil
		}
	}

	switch key {
	case "enter":
		return true, m.submit()
	case "tab":
		m.state = supportViewModel
		m.question.Blur()
		return true, nil
	case "ctrl+s":
		m.persona.SetValue(m.session.SystemPrompt)
		m.persona.Focus()
		m.question.Blur()
		m.state = supportViewPersona
		return true, nil
	case "ctrl+t":
		m.showContext = !m.showContext
	case "ctrl+r":
		m.showPrompt = !m.showPrompt
	case "ctrl+y":
		m.feedback(orchestrator.SatisfactionYes)
	case "ctrl+x":
		m.feedback(orchestrator.SatisfactionNo)
	default:
		return false, nil
	}
	m.refresh()
	return true, nil
}

func (m *supportModel) submit() tea.Cmd {
	question := m.question.Value()
	if strings.TrimSpace(question) == "" {
		m.warning = orchestrator.EmptyQuestionWarning
		m.refresh()
		return nil
	}

	m.warning = ""
	m.err = nil
	m.isLoading = true
	m.requestStart = time.Now()
	m.question.Blur()
	m.refresh()
	return tea.Batch(m.spinner.Tick, m.askCmd(question))
}

func (m *supportModel) feedback(sat orchestrator.Satisfaction) {
	// The answer is hidden while an error is shown.
	if m.err != nil {
		return
	}
	if err := m.session.RecordFeedback(sat); err != nil {
		return
	}
	log.Info().Str("satisfaction", sat.String()).Msg("answer rated")
}

// refresh re-renders the results area into the viewport.
func (m *supportModel) refresh() {
	m.viewport.SetContent(m.resultsView())
}

// resultsView renders the answer, or the error that replaced it.
func (m *supportModel) resultsView() string {
	var b strings.Builder
	width := m.width

	if m.warning != "" {
		b.WriteString(render.Notice(render.NoticeWarning, m.warning) + "\n")
	}
	if m.err != nil {
		b.WriteString(render.Notice(render.NoticeError, m.err.Error()) + "\n")
		return b.String()
	}
	if !m.session.Ready {
		return b.String()
	}

	b.WriteString(render.AnswerBox(m.session.Answer, width) + "\n")
	b.WriteString(helpStyle.Render("この回答は役に立ちましたか？ ctrl+y はい / ctrl+x いいえ") + "\n")
	if notice := m.session.FeedbackMessage(); notice != "" {
		kind := render.NoticeSuccess
		if m.session.Satisfaction == orchestrator.SatisfactionNo {
			kind = render.NoticeInfo
		}
		b.WriteString(render.Notice(kind, notice) + "\n")
	}

	if m.showContext {
		contextText := m.session.Context
		if strings.TrimSpace(contextText) == "" {
			contextText = prompt.NoContextMarker
		}
		b.WriteString(render.Card("取得したコンテキスト", render.ContextStyle.Render(render.NormalizeForDisplay(contextText)), width) + "\n")
	}
	if m.showPrompt {
		b.WriteString(render.Card("最終プロンプト", render.NormalizeForDisplay(m.session.FinalPrompt), width) + "\n")
	}
	return b.String()
}

// View renders the current screen.
func (m *supportModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	switch m.state {
	case supportViewModel:
		return lipgloss.NewStyle().Margin(1, 2).Render(m.modelList.View())
	case supportViewPersona:
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("システムプロンプトの編集"),
			m.persona.View(),
			helpStyle.Render("ctrl+s 保存 • esc キャンセル"),
		)
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("🚲 Citi Bike カスタマーサポート"),
		badgeStyle.Render("Model: "+m.session.Model),
	))
	b.WriteString("\n")

	chips := make([]string, len(prompt.ExampleQuestions))
	for i, q := range prompt.ExampleQuestions {
		chips[i] = render.Chip(i+1, q, i == m.example)
	}
	b.WriteString(lipgloss.NewStyle().Width(max(20, m.width)).Render(strings.Join(chips, " ")))
	b.WriteString("\n\n")
	b.WriteString(m.question.View())
	b.WriteString("\n")

	if m.isLoading {
		timer := fmt.Sprintf("%.1f", time.Since(m.requestStart).Seconds())
		b.WriteString(fmt.Sprintf("  %s 回答を生成しています... %ss\n", m.spinner.View(), timer))
	} else {
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("enter 送信 • alt+1..6 例文 • tab モデル • ctrl+s ペルソナ • ctrl+t コンテキスト • ctrl+r プロンプト • ctrl+c 終了"))
	return b.String()
}
