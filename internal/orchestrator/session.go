package orchestrator

import (
	"errors"
	"fmt"

	"github.com/Yates-Labs/spoke/internal/completion"
	"github.com/Yates-Labs/spoke/internal/prompt"
	"github.com/Yates-Labs/spoke/internal/rag"
)

var (
	ErrUnknownModel = errors.New("unknown model")
	ErrNoAnswer     = errors.New("no answer to rate")
)

// Feedback notices shown after the user rates an answer.
const (
	HandoffNotice = "担当者へお繋ぎします。少々お待ちください。"
	ThanksNotice  = "ありがとうございます。他にも気になる点があれば、いつでもどうぞ。"
)

// Satisfaction is the user's rating of the last answer.
type Satisfaction int

const (
	SatisfactionUnset Satisfaction = iota
	SatisfactionYes
	SatisfactionNo
)

func (s Satisfaction) String() string {
	switch s {
	case SatisfactionYes:
		return "yes"
	case SatisfactionNo:
		return "no"
	default:
		return "unset"
	}
}

// Session holds the state of one support conversation. It is created when
// the conversation starts and passed to every request; nothing is shared
// between sessions.
type Session struct {
	Model        string
	SystemPrompt string

	Query       string
	Context     string
	Records     []rag.Record
	Answer      string
	FinalPrompt string

	Satisfaction Satisfaction
	Ready        bool
}

// NewSession starts a session with the default model and persona.
func NewSession() *Session {
	return &Session{
		Model:        completion.DefaultModel,
		SystemPrompt: prompt.DefaultSystemPrompt,
	}
}

// SetModel selects a model from the allow-list.
func (s *Session) SetModel(model string) error {
	if !completion.IsAllowed(model) {
		return fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	s.Model = model
	return nil
}

// RecordFeedback stores the rating of the current answer.
func (s *Session) RecordFeedback(sat Satisfaction) error {
	if !s.Ready {
		return ErrNoAnswer
	}
	s.Satisfaction = sat
	return nil
}

// FeedbackMessage returns the notice for the recorded rating, or "" before
// the user has rated the answer.
func (s *Session) FeedbackMessage() string {
	switch s.Satisfaction {
	case SatisfactionNo:
		return HandoffNotice
	case SatisfactionYes:
		return ThanksNotice
	default:
		return ""
	}
}

func (s *Session) apply(a *Answer) {
	s.Query = a.Question
	s.Context = a.Context
	s.Records = a.Records
	s.Answer = a.Text
	s.FinalPrompt = a.FinalPrompt
	s.Satisfaction = SatisfactionUnset
	s.Ready = true
}
