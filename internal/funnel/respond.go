package funnel

import (
	"context"
	"strconv"
	"strings"
)

// generateResponse asks the model for the next assistant utterance
// appropriate to the current funnel step.
func (a *Agent) generateResponse(ctx context.Context, st *State) (Update, error) {
	qualified := "não definido"
	if st.Qualified != nil {
		qualified = strconv.FormatBool(*st.Qualified)
	}

	prompt := strings.NewReplacer(
		"{funnelStep}", string(st.FunnelStep),
		"{name}", orSentinel(st.Name, "não informado"),
		"{birthDate}", orSentinel(st.BirthDate, "não informado"),
		"{weightLossReason}", orSentinel(st.WeightLossReason, "não informado"),
		"{qualified}", qualified,
		"{conversationHistory}", renderHistory(st.Messages),
	).Replace(a.prompts.Response)

	raw, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return Update{}, err
	}

	msg := strings.TrimSpace(raw)
	return Update{ResponseMessage: &msg}, nil
}
