package webhook

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/johncarlocaintic/VictusGlobal/internal/agent"
	"github.com/johncarlocaintic/VictusGlobal/internal/decision"
	"github.com/johncarlocaintic/VictusGlobal/internal/store/proposallog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPipeline struct{ mock.Mock }

func (m *MockPipeline) HandleEvent(ctx context.Context, ev agent.InboundEvent) {
	m.Called(ctx, ev)
}

func (m *MockPipeline) Evaluate(ctx context.Context, slug string) (agent.Evaluation, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(agent.Evaluation), args.Error(1)
}

func (m *MockPipeline) NotifyOperator(ctx context.Context, link string) (agent.Evaluation, error) {
	args := m.Called(ctx, link)
	return args.Get(0).(agent.Evaluation), args.Error(1)
}

type MockLister struct{ mock.Mock }

func (m *MockLister) List(ctx context.Context, q proposallog.Query) ([]proposallog.Record, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]proposallog.Record), args.Error(1)
}

func newTestServer(t *testing.T, p Pipeline, l ProposalLister) http.Handler {
	t.Helper()
	srv, err := NewServer(ServerConfig{Pipeline: p, Proposals: l, Metrics: http.NotFoundHandler()})
	require.NoError(t, err)
	return srv.Handler()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_ForwardsMessage(t *testing.T) {
	p := &MockPipeline{}
	p.On("HandleEvent", mock.Anything, agent.InboundEvent{
		ChatID:    "-100123",
		MessageID: 55,
		Text:      "https://coinmarketcap.com/currencies/abc/",
	}).Return().Once()
	h := newTestServer(t, p, nil)

	rec := do(h, http.MethodPost, "/webhook",
		`{"update_id":1,"message":{"message_id":55,"chat":{"id":-100123},"text":"https://coinmarketcap.com/currencies/abc/"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	p.AssertExpectations(t)
}

func TestWebhook_IgnoresNonMessageUpdates(t *testing.T) {
	p := &MockPipeline{}
	h := newTestServer(t, p, nil)

	rec := do(h, http.MethodPost, "/webhook", `{"update_id":2,"edited_message":{}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	p.AssertNotCalled(t, "HandleEvent", mock.Anything, mock.Anything)
}

func TestWebhook_MalformedJSON(t *testing.T) {
	h := newTestServer(t, &MockPipeline{}, nil)
	rec := do(h, http.MethodPost, "/webhook", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_Get(t *testing.T) {
	h := newTestServer(t, &MockPipeline{}, nil)
	rec := do(h, http.MethodGet, "/webhook", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Webhook endpoint is live!", rec.Body.String())
}

func TestNotify_IgnoredURL(t *testing.T) {
	p := &MockPipeline{}
	p.On("NotifyOperator", mock.Anything, "https://example.com").Return(agent.Evaluation{}, agent.ErrNoListingLink)
	h := newTestServer(t, p, nil)

	rec := do(h, http.MethodPost, "/notify_investment_proposal", `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ignored"`)
}

func TestNotify_Success(t *testing.T) {
	p := &MockPipeline{}
	link := "https://coinmarketcap.com/currencies/abc/"
	p.On("NotifyOperator", mock.Anything, link).Return(agent.Evaluation{
		TraceID:  "t-1",
		Decision: decision.InvestmentDecision{Verdict: decision.VerdictTiered},
	}, nil)
	h := newTestServer(t, p, nil)

	rec := do(h, http.MethodPost, "/notify_investment_proposal", `{"url":"`+link+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"success"`)
	assert.Contains(t, rec.Body.String(), `"trace_id":"t-1"`)
}

func TestNotify_Failure(t *testing.T) {
	p := &MockPipeline{}
	p.On("NotifyOperator", mock.Anything, mock.Anything).Return(agent.Evaluation{}, errors.New("scrape failed"))
	h := newTestServer(t, p, nil)

	rec := do(h, http.MethodPost, "/notify_investment_proposal", `{"url":"https://coinmarketcap.com/currencies/abc/"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestContract(t *testing.T) {
	p := &MockPipeline{}
	p.On("Evaluate", mock.Anything, "abc").Return(agent.Evaluation{
		TraceID:  "t-2",
		Decision: decision.InvestmentDecision{Verdict: decision.VerdictRejected, Rationale: []string{"x"}},
	}, nil)
	p.On("Evaluate", mock.Anything, "down").Return(agent.Evaluation{}, errors.New("unavailable"))
	h := newTestServer(t, p, nil)

	rec := do(h, http.MethodGet, "/crypto/contracts/abc", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"verdict":"Rejected"`)

	rec = do(h, http.MethodGet, "/crypto/contracts/down", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestProposals(t *testing.T) {
	h := newTestServer(t, &MockPipeline{}, nil)
	rec := do(h, http.MethodGet, "/api/proposals", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	l := &MockLister{}
	l.On("List", mock.Anything, proposallog.Query{Slug: "abc", Limit: 5}).
		Return([]proposallog.Record{{ID: 1, Slug: "abc", Verdict: "Tiered"}}, nil)
	h = newTestServer(t, &MockPipeline{}, l)
	rec = do(h, http.MethodGet, "/api/proposals?limit=5&slug=abc", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"abc"`)
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, &MockPipeline{}, nil)
	rec := do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewServer_RequiresPipeline(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}
