package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coelhoxyz/lead-qualifier-agent/internal/types"
)

type fakeConversations struct {
	sendResp   *types.SendMessageResponse
	sendErr    error
	statusResp *types.ConversationStatus
	statusErr  error
}

func (f *fakeConversations) SendMessage(_ context.Context, _, _ string) (*types.SendMessageResponse, error) {
	return f.sendResp, f.sendErr
}

func (f *fakeConversations) GetStatus(_ context.Context, _ string) (*types.ConversationStatus, error) {
	return f.statusResp, f.statusErr
}

func newTestRouter(svc ConversationService) http.Handler {
	return newServer(svc, nil, "*", zap.NewNop()).Router()
}

func TestHandleSendMessage(t *testing.T) {
	svc := &fakeConversations{sendResp: &types.SendMessageResponse{
		Type:    "text",
		Content: "Olá! Qual seu nome?",
		Conversation: types.ConversationStatus{
			PhoneNumber: "+5511999999999",
			Status:      "active",
			FunnelStep:  "collect_name",
		},
	}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/conversations/+5511999999999/messages",
		strings.NewReader(`{"content":"oi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp types.SendMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "text", resp.Type)
	require.Equal(t, "Olá! Qual seu nome?", resp.Content)
	require.Equal(t, "collect_name", resp.Conversation.FunnelStep)
}

func TestHandleSendMessageEmptyContent(t *testing.T) {
	router := newTestRouter(&fakeConversations{})

	req := httptest.NewRequest(http.MethodPost, "/api/conversations/+5511999999999/messages",
		strings.NewReader(`{"content":"   "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSendMessageInvalidJSON(t *testing.T) {
	router := newTestRouter(&fakeConversations{})

	req := httptest.NewRequest(http.MethodPost, "/api/conversations/+5511999999999/messages",
		strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSendMessageGatewayFailure(t *testing.T) {
	router := newTestRouter(&fakeConversations{sendErr: errors.New("provider down")})

	req := httptest.NewRequest(http.MethodPost, "/api/conversations/+5511999999999/messages",
		strings.NewReader(`{"content":"oi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Error)
}

func TestHandleGetStatus(t *testing.T) {
	name := "João"
	svc := &fakeConversations{statusResp: &types.ConversationStatus{
		PhoneNumber: "+5511999999999",
		Status:      "active",
		FunnelStep:  "collect_birth_date",
		Variables:   types.Variables{Name: &name},
	}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/+5511999999999/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp types.ConversationStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "collect_birth_date", resp.FunnelStep)
	require.NotNil(t, resp.Variables.Name)
	require.Equal(t, "João", *resp.Variables.Name)
	require.Nil(t, resp.Variables.BirthDate)
}

func TestHandleGetStatusNotFound(t *testing.T) {
	router := newTestRouter(&fakeConversations{})

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/+5511000000000/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(&fakeConversations{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}
