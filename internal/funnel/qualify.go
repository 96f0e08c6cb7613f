package funnel

import (
	"context"

	"go.uber.org/zap"
)

// distanceThreshold is the cosine-distance cutoff on the nearest reference
// reason. Distances at or below it qualify the lead.
const distanceThreshold = 0.20

// qualifyLead decides qualified/rejected by semantic closeness of the stated
// reason to the reference corpus. With no reason collected yet it does
// nothing, and with no match at all it assumes the worst distance so absence
// of data can never qualify a lead.
func (a *Agent) qualifyLead(ctx context.Context, st *State) (Update, error) {
	if st.WeightLossReason == "" {
		return Update{}, nil
	}

	matches, err := a.matcher.Nearest(ctx, st.WeightLossReason, 1)
	if err != nil {
		return Update{}, err
	}

	topDistance := 1.0
	if len(matches) > 0 {
		topDistance = matches[0].Distance
	}

	qualified := topDistance <= distanceThreshold
	step := StepRejected
	if qualified {
		step = StepQualified
	}

	a.log.Info("lead qualification decided",
		zap.String("phone_number", st.PhoneNumber),
		zap.Float64("distance", topDistance),
		zap.Bool("qualified", qualified))

	return Update{Qualified: &qualified, FunnelStep: step}, nil
}
