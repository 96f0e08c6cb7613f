// Package conversation owns the session lifecycle: resolving the active
// conversation for a phone number, expiring idle sessions, running the
// funnel pipeline, and keeping status in sync with the funnel step.
package conversation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coelhoxyz/lead-qualifier-agent/internal/funnel"
	"github.com/coelhoxyz/lead-qualifier-agent/internal/store"
	"github.com/coelhoxyz/lead-qualifier-agent/internal/types"
)

// sessionTimeout is the inactivity window after which an active conversation
// is expired and restarted from scratch. Exactly at the threshold the
// session stays alive.
const sessionTimeout = 15 * time.Minute

// Store persists conversations and messages.
type Store interface {
	FindActive(ctx context.Context, phoneNumber string) (*store.Conversation, error)
	Find(ctx context.Context, phoneNumber string) (*store.Conversation, error)
	Create(ctx context.Context, phoneNumber string) (*store.Conversation, error)
	Expire(ctx context.Context, id string, at time.Time) error
	Update(ctx context.Context, id string, upd store.ConversationUpdate) (*store.Conversation, error)
	AppendMessage(ctx context.Context, conversationID, role, content string) error
	Messages(ctx context.Context, conversationID string) ([]store.Message, error)
}

// Agent runs the funnel pipeline for one inbound message.
type Agent interface {
	Run(ctx context.Context, phoneNumber string, messages []funnel.ChatMessage, current funnel.Snapshot) (funnel.State, error)
}

type Service struct {
	store Store
	agent Agent
	log   *zap.Logger
	now   func() time.Time

	// Inbound messages for the same phone number are processed strictly in
	// order; different numbers proceed concurrently.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(st Store, agent Agent, log *zap.Logger) *Service {
	return &Service{
		store: st,
		agent: agent,
		log:   log,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *Service) lockPhone(phoneNumber string) func() {
	s.mu.Lock()
	l, ok := s.locks[phoneNumber]
	if !ok {
		l = &sync.Mutex{}
		s.locks[phoneNumber] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// SendMessage drives one turn of the funnel: resolve or create the session,
// persist the inbound message, run the pipeline, persist the reply and the
// updated conversation row.
func (s *Service) SendMessage(ctx context.Context, phoneNumber, content string) (*types.SendMessageResponse, error) {
	defer s.lockPhone(phoneNumber)()

	conv, err := s.store.FindActive(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}

	if conv != nil && s.isExpired(conv) {
		if err := s.store.Expire(ctx, conv.ID, s.now()); err != nil {
			return nil, err
		}
		s.log.Info("conversation expired", zap.String("conversation_id", conv.ID))
		conv = nil
	}

	if conv == nil {
		conv, err = s.store.Create(ctx, phoneNumber)
		if err != nil {
			return nil, err
		}
	}

	if err := s.store.AppendMessage(ctx, conv.ID, funnel.RoleUser, content); err != nil {
		return nil, err
	}

	messages, err := s.store.Messages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	history := make([]funnel.ChatMessage, 0, len(messages))
	for _, m := range messages {
		history = append(history, funnel.ChatMessage{Role: m.Role, Content: m.Content})
	}

	result, err := s.agent.Run(ctx, phoneNumber, history, funnel.Snapshot{
		Name:             deref(conv.Name),
		BirthDate:        deref(conv.BirthDate),
		WeightLossReason: deref(conv.WeightLossReason),
		Qualified:        conv.Qualified,
		FunnelStep:       conv.FunnelStep,
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.AppendMessage(ctx, conv.ID, funnel.RoleAssistant, result.ResponseMessage); err != nil {
		return nil, err
	}

	now := s.now()
	status := statusFor(result.FunnelStep)
	var finishedAt *time.Time
	if result.FunnelStep.IsTerminal() {
		finishedAt = &now
	}

	conv, err = s.store.Update(ctx, conv.ID, store.ConversationUpdate{
		Name:             optional(result.Name),
		BirthDate:        optional(result.BirthDate),
		WeightLossReason: optional(result.WeightLossReason),
		Qualified:        result.Qualified,
		FunnelStep:       result.FunnelStep,
		Status:           status,
		LastActivity:     now,
		FinishedAt:       finishedAt,
	})
	if err != nil {
		return nil, err
	}

	return &types.SendMessageResponse{
		Type:         "text",
		Content:      result.ResponseMessage,
		Conversation: statusView(conv),
	}, nil
}

// GetStatus returns the conversation for a phone number, or nil when none
// exists.
func (s *Service) GetStatus(ctx context.Context, phoneNumber string) (*types.ConversationStatus, error) {
	conv, err := s.store.Find(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, nil
	}
	view := statusView(conv)
	return &view, nil
}

func (s *Service) isExpired(conv *store.Conversation) bool {
	return s.now().Sub(conv.LastActivity) > sessionTimeout
}

func statusFor(step funnel.Step) store.Status {
	switch step {
	case funnel.StepQualified:
		return store.StatusQualified
	case funnel.StepRejected:
		return store.StatusRejected
	default:
		return store.StatusActive
	}
}

func statusView(conv *store.Conversation) types.ConversationStatus {
	return types.ConversationStatus{
		PhoneNumber: conv.PhoneNumber,
		Status:      string(conv.Status),
		FunnelStep:  string(conv.FunnelStep),
		Variables: types.Variables{
			Name:             conv.Name,
			BirthDate:        conv.BirthDate,
			WeightLossReason: conv.WeightLossReason,
		},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
