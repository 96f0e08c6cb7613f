package funnel

import (
	"context"

	"go.uber.org/zap"
)

// Agent runs the fixed per-message pipeline:
//
//	processMessage -> (qualifyLead) -> generateResponse
//
// The qualifier only runs when the post-extraction state sits at the
// reason-collection step with a reason present. The pipeline itself is
// stateless; all memory lives in the persisted conversation rows.
type Agent struct {
	gen     Generator
	matcher Matcher
	prompts *PromptSpec
	log     *zap.Logger
}

func NewAgent(gen Generator, matcher Matcher, prompts *PromptSpec, log *zap.Logger) *Agent {
	return &Agent{gen: gen, matcher: matcher, prompts: prompts, log: log}
}

// Snapshot seeds a pipeline run with the fields already collected for the
// conversation. Empty strings mean "not collected".
type Snapshot struct {
	Name             string
	BirthDate        string
	WeightLossReason string
	Qualified        *bool
	FunnelStep       Step
}

// Run executes the pipeline for one inbound message and returns the final
// merged state, whose ResponseMessage is the reply to send.
func (a *Agent) Run(ctx context.Context, phoneNumber string, messages []ChatMessage, current Snapshot) (State, error) {
	st := State{
		PhoneNumber:      phoneNumber,
		Messages:         messages,
		Name:             current.Name,
		BirthDate:        current.BirthDate,
		WeightLossReason: current.WeightLossReason,
		Qualified:        current.Qualified,
		FunnelStep:       current.FunnelStep,
	}

	a.log.Debug("processing message", zap.String("phone_number", phoneNumber))

	upd, err := a.processMessage(ctx, &st)
	if err != nil {
		return State{}, err
	}
	st.apply(upd)

	if st.FunnelStep == StepCollectReason && st.WeightLossReason != "" {
		upd, err = a.qualifyLead(ctx, &st)
		if err != nil {
			return State{}, err
		}
		st.apply(upd)
	}

	upd, err = a.generateResponse(ctx, &st)
	if err != nil {
		return State{}, err
	}
	st.apply(upd)

	return st, nil
}
