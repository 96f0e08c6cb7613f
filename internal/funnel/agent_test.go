package funnel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCollectNameSkipsQualifier(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`{"extracted":"João","shouldAdvance":true,"corrections":{}}`,
		"  Obrigado, João! Qual sua data de nascimento?  ",
	}}
	matcher := &fakeMatcher{}
	a := newTestAgent(gen, matcher)

	st, err := a.Run(context.Background(), "+5511999999999",
		[]ChatMessage{{Role: RoleUser, Content: "Me chamo João"}},
		Snapshot{FunnelStep: StepCollectName},
	)
	require.NoError(t, err)
	require.Equal(t, "João", st.Name)
	require.Equal(t, StepCollectBirthDate, st.FunnelStep)
	require.Equal(t, "Obrigado, João! Qual sua data de nascimento?", st.ResponseMessage)
	require.Empty(t, matcher.queries, "qualifier must not run before the reason step")
	require.Len(t, gen.prompts, 2)
}

func TestRunQualifiesAfterReasonExtraction(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`{"extracted":"Preciso emagrecer por motivos de saúde","shouldAdvance":true,"corrections":{}}`,
		"Parabéns! Vamos agendar sua avaliação gratuita.",
	}}
	matcher := &fakeMatcher{matches: []Match{{Distance: 0.15}}}
	a := newTestAgent(gen, matcher)

	st, err := a.Run(context.Background(), "+5511999999999",
		[]ChatMessage{{Role: RoleUser, Content: "Preciso emagrecer por motivos de saúde"}},
		Snapshot{Name: "João", BirthDate: "1990-03-15", FunnelStep: StepCollectReason},
	)
	require.NoError(t, err)
	require.Equal(t, []string{"Preciso emagrecer por motivos de saúde"}, matcher.queries)
	require.NotNil(t, st.Qualified)
	require.True(t, *st.Qualified)
	require.Equal(t, StepQualified, st.FunnelStep)
	require.Equal(t, "Parabéns! Vamos agendar sua avaliação gratuita.", st.ResponseMessage)
}

func TestRunRejectsDistantReason(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`{"extracted":"Quero ficar mais bonito","shouldAdvance":true,"corrections":{}}`,
		"Obrigado pelo contato!",
	}}
	matcher := &fakeMatcher{matches: []Match{{Distance: 0.5}}}
	a := newTestAgent(gen, matcher)

	st, err := a.Run(context.Background(), "+5511999999999",
		[]ChatMessage{{Role: RoleUser, Content: "Quero ficar mais bonito"}},
		Snapshot{Name: "João", BirthDate: "1990-03-15", FunnelStep: StepCollectReason},
	)
	require.NoError(t, err)
	require.NotNil(t, st.Qualified)
	require.False(t, *st.Qualified)
	require.Equal(t, StepRejected, st.FunnelStep)
}

func TestRunReasonStepWithoutReasonSkipsQualifier(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`{"extracted":null,"shouldAdvance":false,"corrections":{}}`,
		"Qual o principal motivo para você querer emagrecer?",
	}}
	matcher := &fakeMatcher{}
	a := newTestAgent(gen, matcher)

	st, err := a.Run(context.Background(), "+5511999999999",
		[]ChatMessage{{Role: RoleUser, Content: "hmm"}},
		Snapshot{Name: "João", BirthDate: "1990-03-15", FunnelStep: StepCollectReason},
	)
	require.NoError(t, err)
	require.Empty(t, matcher.queries)
	require.Equal(t, StepCollectReason, st.FunnelStep)
	require.Nil(t, st.Qualified)
}

func TestRunMalformedExtractionReasksSameStep(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		"not json at all",
		"Desculpe, pode me dizer seu nome?",
	}}
	a := newTestAgent(gen, &fakeMatcher{})

	st, err := a.Run(context.Background(), "+5511999999999",
		[]ChatMessage{{Role: RoleUser, Content: "???"}},
		Snapshot{FunnelStep: StepCollectName},
	)
	require.NoError(t, err)
	require.Equal(t, StepCollectName, st.FunnelStep)
	require.Empty(t, st.Name)
	require.Equal(t, "Desculpe, pode me dizer seu nome?", st.ResponseMessage)
}

func TestRunComposerSeesQualifiedState(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`{"extracted":"Tenho diabetes e pressão alta","shouldAdvance":true,"corrections":{}}`,
		"Parabéns!",
	}}
	matcher := &fakeMatcher{matches: []Match{{Distance: 0.1}}}
	a := newTestAgent(gen, matcher)

	_, err := a.Run(context.Background(), "+5511999999999", nil,
		Snapshot{Name: "João", BirthDate: "1990-03-15", FunnelStep: StepCollectReason},
	)
	require.NoError(t, err)
	require.Len(t, gen.prompts, 2)
	require.Contains(t, gen.prompts[1], "step=qualified")
	require.Contains(t, gen.prompts[1], "qualified=true")
}

func TestStepIsTerminal(t *testing.T) {
	require.True(t, StepQualified.IsTerminal())
	require.True(t, StepRejected.IsTerminal())
	require.False(t, StepCollectName.IsTerminal())
	require.False(t, StepCollectBirthDate.IsTerminal())
	require.False(t, StepCollectReason.IsTerminal())
}
