package funnel

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// extractionResult is the JSON shape the model must answer extraction
// prompts with. Anything else is treated as malformed output.
type extractionResult struct {
	Extracted     *string `json:"extracted"`
	ShouldAdvance bool    `json:"shouldAdvance"`
	Corrections   struct {
		Name             *string `json:"name"`
		BirthDate        *string `json:"birthDate"`
		WeightLossReason *string `json:"weightLossReason"`
	} `json:"corrections"`
}

// processMessage asks the model to extract the current step's field from the
// latest user message, plus any corrections to previously collected fields.
//
// Corrections and advancement are independent write paths: a correction
// overwrites its field regardless of the current step, while the extracted
// value only applies to the field the current step is collecting.
// Malformed model output yields an empty update so the same question is
// effectively re-asked next turn.
func (a *Agent) processMessage(ctx context.Context, st *State) (Update, error) {
	prompt := strings.NewReplacer(
		"{funnelStep}", string(st.FunnelStep),
		"{conversationHistory}", renderHistory(st.Messages),
		"{currentName}", orSentinel(st.Name, "not collected"),
		"{currentBirthDate}", orSentinel(st.BirthDate, "not collected"),
		"{currentReason}", orSentinel(st.WeightLossReason, "not collected"),
	).Replace(a.prompts.Extraction)

	raw, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return Update{}, err
	}

	parsed, ok := parseExtraction(raw)
	if !ok {
		a.log.Warn("unparseable extraction output, skipping turn",
			zap.String("phone_number", st.PhoneNumber))
		return Update{}, nil
	}

	var upd Update
	if c := parsed.Corrections.Name; c != nil && *c != "" {
		upd.Name = c
	}
	if c := parsed.Corrections.BirthDate; c != nil && *c != "" {
		upd.BirthDate = c
	}
	if c := parsed.Corrections.WeightLossReason; c != nil && *c != "" {
		upd.WeightLossReason = c
	}

	if parsed.ShouldAdvance && parsed.Extracted != nil && *parsed.Extracted != "" {
		switch st.FunnelStep {
		case StepCollectName:
			upd.Name = parsed.Extracted
			upd.FunnelStep = StepCollectBirthDate
		case StepCollectBirthDate:
			upd.BirthDate = parsed.Extracted
			upd.FunnelStep = StepCollectReason
		case StepCollectReason:
			// The qualifier owns the transition out of this step.
			upd.WeightLossReason = parsed.Extracted
		}
	}

	return upd, nil
}

// parseExtraction decodes the model's reply, salvaging a JSON object wrapped
// in markdown fences or prose if plain decoding fails.
func parseExtraction(raw string) (extractionResult, bool) {
	var out extractionResult
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out, true
	}
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first >= 0 && last > first {
		if err := json.Unmarshal([]byte(raw[first:last+1]), &out); err == nil {
			return out, true
		}
	}
	return extractionResult{}, false
}
