package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"staff/internal/app/server"
	"staff/internal/domain/audit"
	"staff/internal/domain/auth"
	"staff/internal/domain/staff"
	"staff/internal/domain/staff/stafftest"
	"staff/internal/platform/config"
	"staff/internal/transport/http/middleware"
)

const (
	adminEmail    = "admin@test.local"
	adminPassword = "ChangeMe123!"
)

var payday = time.Date(2024, 4, 5, 16, 45, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	Meta *struct {
		Title string `json:"title"`
	} `json:"meta"`
}

func envelopeErrorCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

type userStore struct {
	users map[string]auth.User
}

func (s *userStore) FindActiveUserByEmail(ctx context.Context, email string) (auth.User, error) {
	user, ok := s.users[strings.ToLower(email)]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return user, nil
}

func (s *userStore) UpdateLastLogin(ctx context.Context, userID int64) error { return nil }

type replayStore struct {
	mu      sync.Mutex
	entries map[string]replayEntry
}

type replayEntry struct {
	hash     string
	response json.RawMessage
}

func (s *replayStore) key(userID int64, endpoint, key string) string {
	return fmt.Sprintf("%d|%s|%s", userID, endpoint, key)
}

func (s *replayStore) Reserve(ctx context.Context, userID int64, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(userID, endpoint, key)
	entry, ok := s.entries[k]
	if !ok {
		s.entries[k] = replayEntry{hash: requestHash}
		return nil, true, nil
	}
	if entry.hash != requestHash {
		return nil, false, middleware.ErrIdempotencyConflict
	}
	if entry.response == nil {
		return nil, false, middleware.ErrIdempotencyInProgress
	}
	return entry.response, false, nil
}

func (s *replayStore) Save(ctx context.Context, userID int64, endpoint, key, requestHash string, response json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[s.key(userID, endpoint, key)] = replayEntry{hash: requestHash, response: response}
	return nil
}

func (s *replayStore) Release(ctx context.Context, userID int64, endpoint, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(userID, endpoint, key)
	if entry, ok := s.entries[k]; ok && entry.response == nil {
		delete(s.entries, k)
	}
	return nil
}

type historyLog struct {
	mu     sync.Mutex
	events []audit.Event
}

func (l *historyLog) Record(ctx context.Context, e audit.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	evt := audit.Event{
		ID:         int64(len(l.events) + 1),
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		RequestID:  e.RequestID,
		IP:         e.IP,
		CreatedAt:  time.Now(),
	}
	if e.Before != nil {
		raw, err := json.Marshal(e.Before)
		if err != nil {
			return err
		}
		evt.Before = raw
	}
	if e.After != nil {
		raw, err := json.Marshal(e.After)
		if err != nil {
			return err
		}
		evt.After = raw
	}
	l.events = append(l.events, evt)
	return nil
}

func (l *historyLog) matching(filter audit.Filter) []audit.Event {
	out := []audit.Event{}
	for i := len(l.events) - 1; i >= 0; i-- {
		evt := l.events[i]
		if filter.Action != "" && evt.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && evt.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID > 0 && evt.EntityID != filter.EntityID {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func (l *historyLog) Count(ctx context.Context, filter audit.Filter) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.matching(filter)), nil
}

func (l *historyLog) List(ctx context.Context, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.matching(filter)
	if !includeDetails {
		for i := range out {
			out[i].Before, out[i].After = nil, nil
		}
	}
	return out, nil
}

type testApp struct {
	url    string
	client *http.Client
	token  string
	store  *stafftest.MemStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store := stafftest.NewMemStore()
	cfg := config.Config{
		JWTSecret:          "test-secret",
		Environment:        "test",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		TokenTTL:           time.Hour,
		MetricsEnabled:     true,
	}
	router, err := server.NewRouter(server.Deps{
		Config:      cfg,
		Logger:      zaptest.NewLogger(t),
		Staff:       store,
		Users:       &userStore{users: map[string]auth.User{adminEmail: {ID: 1, Email: adminEmail, PasswordHash: hash}}},
		Idempotency: &replayStore{entries: make(map[string]replayEntry)},
		Audit:       &historyLog{},
		Options:     []staff.Option{staff.WithClock(func() time.Time { return payday })},
	})
	if err != nil {
		t.Fatalf("failed to build router: %v", err)
	}
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	app := &testApp{url: ts.URL + "/api/v1", client: ts.Client(), store: store}
	app.token = login(t, app.client, app.url, adminEmail, adminPassword)
	return app
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	env := doJSON(t, client, http.MethodPost, baseURL+"/auth/login", "", map[string]string{"email": email, "password": password}, http.StatusOK)
	var data struct {
		Token string `json:"token"`
	}
	decodeData(t, env, &data)
	if data.Token == "" {
		t.Fatal("expected a token from login")
	}
	return data.Token
}

func (a *testApp) do(t *testing.T, method, path string, body any, want int) envelope {
	t.Helper()
	return doJSON(t, a.client, method, a.url+path, a.token, body, want)
}

func (a *testApp) create(t *testing.T, path string, body any) int64 {
	t.Helper()
	env := a.do(t, http.MethodPost, path, body, http.StatusCreated)
	var data struct {
		ID int64 `json:"id"`
	}
	decodeData(t, env, &data)
	if data.ID == 0 {
		t.Fatalf("expected id in create response for %s", path)
	}
	return data.ID
}

// doJSON sends body as JSON (raw when it is a string) and fails unless the
// status is want. 204 responses come back as an empty envelope.
func doJSON(t *testing.T, client *http.Client, method, url, token string, body any, want int) envelope {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	resp, raw := send(t, client, method, url, token, reader, nil)
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected status %d, got %d: %s", method, url, want, resp.StatusCode, string(raw))
	}
	var env envelope
	if len(raw) == 0 {
		return env
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v: %s", err, string(raw))
	}
	return env
}

func send(t *testing.T, client *http.Client, method, url, token string, body io.Reader, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	return resp, raw
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	return raw
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("failed to decode data: %v: %s", err, string(env.Data))
	}
}

type seeded struct {
	positionID int64
	scheduleID int64
	employeeID int64
}

func (a *testApp) seed(t *testing.T) seeded {
	t.Helper()
	var s seeded
	s.positionID = a.create(t, "/positions", map[string]any{"name": "Engineer", "baseSalary": "1000"})
	s.scheduleID = a.create(t, "/schedules", map[string]any{
		"name": "Day", "startTime": "09:00", "endTime": "18:00", "days": "Mon-Fri",
	})
	s.employeeID = a.create(t, "/employees", map[string]any{
		"firstName":  "Ivan",
		"lastName":   "Petrov",
		"email":      "ivan@example.com",
		"positionId": s.positionID,
		"scheduleId": s.scheduleID,
		"salary":     "1200",
		"hireDate":   "2024-01-15",
	})
	return s
}

func payrollBody(employeeID int64) map[string]any {
	return map[string]any{
		"employeeId":  employeeID,
		"periodStart": "2024-03-01",
		"periodEnd":   "2024-03-31",
		"grossPay":    "1200",
		"bonus":       "100",
	}
}
