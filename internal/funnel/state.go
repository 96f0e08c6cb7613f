// Package funnel implements the conversational intake funnel for the
// weight-loss clinic: per-message field extraction, semantic qualification
// of the stated reason, and composition of the next assistant message.
package funnel

import (
	"context"
	"strings"
)

// Step is the stage of the intake sequence a conversation occupies.
type Step string

const (
	StepCollectName      Step = "collect_name"
	StepCollectBirthDate Step = "collect_birth_date"
	StepCollectReason    Step = "collect_weight_loss_reason"
	StepQualified        Step = "qualified"
	StepRejected         Step = "rejected"
)

// IsTerminal reports whether the step is one of the two terminal sinks.
func (s Step) IsTerminal() bool {
	return s == StepQualified || s == StepRejected
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single turn of the conversation history.
type ChatMessage struct {
	Role    string
	Content string
}

// State is the transient per-invocation funnel state. It is rebuilt from the
// persisted conversation on every inbound message and discarded after the
// pipeline run; empty strings mean "not collected".
type State struct {
	PhoneNumber      string
	Messages         []ChatMessage
	Name             string
	BirthDate        string
	WeightLossReason string
	Qualified        *bool
	FunnelStep       Step
	ResponseMessage  string
}

// Update is a partial state delta produced by one pipeline stage.
type Update struct {
	Name             *string
	BirthDate        *string
	WeightLossReason *string
	Qualified        *bool
	FunnelStep       Step
	ResponseMessage  *string
}

func (s *State) apply(u Update) {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.BirthDate != nil {
		s.BirthDate = *u.BirthDate
	}
	if u.WeightLossReason != nil {
		s.WeightLossReason = *u.WeightLossReason
	}
	if u.Qualified != nil {
		s.Qualified = u.Qualified
	}
	if u.FunnelStep != "" {
		s.FunnelStep = u.FunnelStep
	}
	if u.ResponseMessage != nil {
		s.ResponseMessage = *u.ResponseMessage
	}
}

// renderHistory renders the message history as "role: content" lines for
// prompt embedding.
func renderHistory(messages []ChatMessage) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

// Generator is the text-generation side of the language model gateway.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Match is one semantic search result; lower distance means more similar.
type Match struct {
	Content  string
	Distance float64
}

// Matcher searches the reference corpus of qualifying reasons, returning up
// to k matches ordered by ascending distance.
type Matcher interface {
	Nearest(ctx context.Context, query string, k int) ([]Match, error)
}
