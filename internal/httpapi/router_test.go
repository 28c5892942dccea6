package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatmessages/internal/config"
	"github.com/edgard/chatmessages/internal/database"
	"github.com/edgard/chatmessages/internal/domain/service"
	"github.com/edgard/chatmessages/internal/httpapi"
	"github.com/edgard/chatmessages/internal/usecase"
)

type testServer struct {
	handler  http.Handler
	store    interface{ CountBySession(context.Context, string, string) (int, error) }
	registry *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.NewDB(config.DatabaseConfig{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "api.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db, nil) })

	store := database.NewStore(db, nil)
	filter, err := service.NewContentFilter(service.DefaultDenyList)
	require.NoError(t, err)

	create := usecase.NewCreateMessageUseCase(store, filter, service.NewMessageProcessor(nil), nil)
	list := usecase.NewGetMessagesUseCase(store, usecase.Pagination{}, nil)

	registry := prometheus.NewRegistry()
	metrics := httpapi.NewMetrics(registry)
	app := config.AppConfig{Name: "chat-message-api", Version: "1.0.0", Environment: "test"}

	handler := httpapi.NewRouter(httpapi.RouterDeps{
		App:            app,
		RequestTimeout: 5 * time.Second,
		MetricsPath:    "/metrics",
		Messages:       httpapi.NewMessageHandler(create, list, usecase.MaxLimit, metrics, nil),
		Health:         httpapi.NewHealthHandler(app, store, nil),
		Metrics:        metrics,
		Gatherer:       registry,
	})

	return &testServer{handler: handler, store: store, registry: registry}
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *testServer) post(t *testing.T, id, session, content, sender string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	body := fmt.Sprintf(`{"message_id":%q,"session_id":%q,"content":%q,"sender":%q,"timestamp":"2024-01-01T12:00:00Z"}`,
		id, session, content, sender)
	return s.do(t, http.MethodPost, "/api/v1/messages", body)
}

type messageBody struct {
	MessageID string    `json:"message_id"`
	SessionID string    `json:"session_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	Metadata  *struct {
		WordCount      int        `json:"word_count"`
		CharacterCount int        `json:"character_count"`
		ProcessedAt    *time.Time `json:"processed_at"`
	} `json:"metadata"`
}

type pageBody struct {
	Items  []messageBody `json:"items"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
	Total  int           `json:"total"`
}

func TestCreateMessage_Scenario(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec, env := s.post(t, "msg-1", "s1", "Hello world", "user")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "success", env.Status)
	assert.NotEmpty(t, rec.Header().Get(httpapi.RequestIDHeader))

	var msg messageBody
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.Equal(t, "msg-1", msg.MessageID)
	assert.Equal(t, "Hello world", msg.Content)
	assert.True(t, msg.Timestamp.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
	require.NotNil(t, msg.Metadata)
	assert.Equal(t, 2, msg.Metadata.WordCount)
	assert.Equal(t, 11, msg.Metadata.CharacterCount)
	assert.NotNil(t, msg.Metadata.ProcessedAt)

	assert.Equal(t, float64(1), counterValue(t, s.registry, "chatmessages_messages_created_total"))
}

func TestCreateMessage_DeniedContent(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec, env := s.post(t, "m-spam", "s1", "This is spam", "user")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "INVALID_CONTENT", env.Error.Code)

	count, err := s.store.CountBySession(context.Background(), "s1", "")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCreateMessage_Duplicate(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec, _ := s.post(t, "dup", "s1", "first", "user")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := s.post(t, "dup", "s1", "second", "user")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_MESSAGE", env.Error.Code)

	count, err := s.store.CountBySession(context.Background(), "s1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateMessage_RequestErrors(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "malformed json", body: `{"message_id":`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_FORMAT"},
		{name: "missing sender", body: `{"message_id":"m1","session_id":"s1","content":"hi"}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "VALIDATION_ERROR"},
		{name: "wrong type", body: `{"message_id":1,"session_id":"s1","content":"hi","sender":"user"}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "VALIDATION_ERROR"},
		{name: "bad timestamp", body: `{"message_id":"m1","session_id":"s1","content":"hi","sender":"user","timestamp":"yesterday"}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "VALIDATION_ERROR"},
		{name: "unknown sender", body: `{"message_id":"m1","session_id":"s1","content":"hi","sender":"bot"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_SENDER"},
		{name: "blank content", body: `{"message_id":"m1","session_id":"s1","content":"   ","sender":"user"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_ENTITY"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, env := s.do(t, http.MethodPost, "/api/v1/messages", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestCreateMessage_TimestampWithoutZone(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/messages",
		`{"message_id":"m1","session_id":"s1","content":"hi","sender":"system","timestamp":"2024-02-03T04:05:06.789"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var msg messageBody
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.True(t, msg.Timestamp.Equal(time.Date(2024, 2, 3, 4, 5, 6, 789000000, time.UTC)))
}

func TestListMessages_Pagination(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	for i := 0; i < 5; i++ {
		rec, _ := s.post(t, fmt.Sprintf("m%d", i), "s1", "hello", "user")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, env := s.do(t, http.MethodGet, "/api/v1/messages/s1?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page pageBody
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, []string{"m0", "m1"}, []string{page.Items[0].MessageID, page.Items[1].MessageID})

	rec, env = s.do(t, http.MethodGet, "/api/v1/messages/s1?offset=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Empty(t, page.Items)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 10, page.Limit)
}

func TestListMessages_SenderForSession(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec, _ := s.post(t, "sys-1", "s1", "system notice", "system")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := s.do(t, http.MethodGet, "/api/v1/messages/s1?sender=user", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_SENDER_FOR_SESSION", env.Error.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/messages/s1?sender=system", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page pageBody
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Total)
}

func TestListMessages_EmptySession(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/v1/messages/empty", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"limit":10,"offset":0,"total":0}`, string(env.Data))
}

func TestListMessages_QueryValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	for _, target := range []string{
		"/api/v1/messages/s1?limit=0",
		"/api/v1/messages/s1?limit=101",
		"/api/v1/messages/s1?limit=abc",
		"/api/v1/messages/s1?offset=-1",
		"/api/v1/messages/s1?sender=bot",
	} {
		target := target
		t.Run(target, func(t *testing.T) {
			t.Parallel()

			rec, env := s.do(t, http.MethodGet, target, "")
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		})
	}
}

func TestInternalErrorsAreHidden(t *testing.T) {
	t.Parallel()

	failing := listerFunc(func(context.Context, usecase.GetMessagesInput) (usecase.MessagePage, error) {
		return usecase.MessagePage{}, errors.New("connection refused by 10.0.0.5")
	})
	handler := httpapi.NewRouter(httpapi.RouterDeps{
		Messages: httpapi.NewMessageHandler(nil, failing, 0, nil, nil),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/messages/s1", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, rec.Body.String(), "INTERNAL_SERVER_ERROR")
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	t.Parallel()

	panicking := listerFunc(func(context.Context, usecase.GetMessagesInput) (usecase.MessagePage, error) {
		panic("boom")
	})
	handler := httpapi.NewRouter(httpapi.RouterDeps{
		Messages: httpapi.NewMessageHandler(nil, panicking, 0, nil, nil),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/messages/s1", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"error"`)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	for _, target := range []string{"/", "/health", "/health/live", "/health/ready"} {
		rec, _ := s.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusOK, rec.Code, target)
	}

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(httpapi.RequestIDHeader, "caller-id")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, "caller-id", rec.Header().Get(httpapi.RequestIDHeader))

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chatmessages_http_requests_total")

	rec, env := s.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadyReportsDatabaseFailure(t *testing.T) {
	t.Parallel()

	health := httpapi.NewHealthHandler(config.AppConfig{}, pingerFunc(func(context.Context) error {
		return errors.New("down")
	}), nil)
	handler := httpapi.NewRouter(httpapi.RouterDeps{Health: health})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type listerFunc func(context.Context, usecase.GetMessagesInput) (usecase.MessagePage, error)

func (f listerFunc) Execute(ctx context.Context, in usecase.GetMessagesInput) (usecase.MessagePage, error) {
	return f(ctx, in)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}
