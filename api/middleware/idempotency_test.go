package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/angelmondragon/gatepass-backend/pkg/errors"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	str, _ := value.(string)
	f.data[key] = str
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeStore) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

const createPath = "/api/v1/hr/gatepasses"

func TestRouteTTLSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		want    time.Duration
		ok      bool
	}{
		{"create", http.MethodPost, createPath, defaultIdempotencyTTL, true},
		{"approve", http.MethodPost, "/api/v1/admin/gatepasses/{gatepassId}/approve", defaultIdempotencyTTL, true},
		{"reject", http.MethodPost, "/api/v1/admin/gatepasses/{gatepassId}/reject", defaultIdempotencyTTL, true},
		{"scan exit", http.MethodPost, "/api/v1/gate/scan-exit", scanIdempotencyTTL, true},
		{"scan return", http.MethodPost, "/api/v1/gate/scan-return", scanIdempotencyTTL, true},
		{"list", http.MethodGet, createPath, 0, false},
		{"mark read", http.MethodPost, "/api/v1/notifications/{notificationId}/read", 0, false},
	}

	for _, tt := range tests {
		ttl, ok := routeTTL(tt.method, tt.pattern)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && ttl != tt.want {
			t.Fatalf("%s: expected ttl=%v got %v", tt.name, tt.want, ttl)
		}
	}
}

func TestIdempotencyMiddlewareRequiresHeader(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
	})

	req := requestWithPattern(http.MethodPost, createPath, createPath, strings.NewReader(`{"personName":"Ana"}`))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatalf("handler should not run without idempotency key")
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"number":"GP-2024-0001"}}`))
	})

	req := requestWithPattern(http.MethodPost, createPath, createPath, strings.NewReader(`{"personName":"Ana"}`))
	req.Header.Set("Idempotency-Key", "abc")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected first response 201 got %d", resp.Code)
	}

	replay := requestWithPattern(http.MethodPost, createPath, createPath, strings.NewReader(`{"personName":"Ana"}`))
	replay.Header.Set("Idempotency-Key", "abc")
	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, replay)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected replay status 201 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type header preserved")
	}
	if strings.TrimSpace(rec.Body.String()) != `{"data":{"number":"GP-2024-0001"}}` {
		t.Fatalf("expected stored body got %s", rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
}

func TestIdempotencyMiddlewareScopesByActor(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	for _, actor := range []string{"hr-1", "hr-2"} {
		req := requestWithPattern(http.MethodPost, createPath, createPath, strings.NewReader(`{"personName":"Ana"}`))
		req = req.WithContext(WithActorID(req.Context(), actor))
		req.Header.Set("Idempotency-Key", "same-key")
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("expected each actor to execute once, got %d calls", calls)
	}
}

func TestIdempotencyMiddlewareSkipsServerErrors(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < 2; i++ {
		req := requestWithPattern(http.MethodPost, "/api/v1/gate/scan-exit", "/api/v1/gate/scan-exit", strings.NewReader("form"))
		req.Header.Set("Idempotency-Key", "retry-me")
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("expected failed request to be retried, got %d calls", calls)
	}
	if store.len() != 0 {
		t.Fatalf("expected reservation released after server error")
	}
}

func TestIdempotencyMiddlewareDetectsBodyChange(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithPattern(http.MethodPost, createPath, createPath, strings.NewReader(`{"personName":"Ana"}`))
	req.Header.Set("Idempotency-Key", "xyz")
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)

	replay := requestWithPattern(http.MethodPost, createPath, createPath, strings.NewReader(`{"personName":"Bea"}`))
	replay.Header.Set("Idempotency-Key", "xyz")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, replay)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeIdempotency, payload.Error.Code)
	}
}

func TestIdempotencyMiddlewareRejectsConcurrentDuplicate(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"number":"GP-2024-0001"}}`))
	})

	newRequest := func() *http.Request {
		req := requestWithPattern(http.MethodPost, createPath, createPath, strings.NewReader(`{"personName":"Ana"}`))
		req.Header.Set("Idempotency-Key", "double-click")
		return req
	}

	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		mw(handler).ServeHTTP(first, newRequest())
	}()
	<-entered

	second := httptest.NewRecorder()
	mw(handler).ServeHTTP(second, newRequest())
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 while first request in flight, got %d", second.Code)
	}
	if !strings.Contains(second.Body.String(), string(pkgerrors.CodeIdempotency)) {
		t.Fatalf("expected %s error, got %s", pkgerrors.CodeIdempotency, second.Body.String())
	}

	close(release)
	<-done
	if first.Code != http.StatusCreated {
		t.Fatalf("expected first request 201 got %d", first.Code)
	}

	third := httptest.NewRecorder()
	mw(handler).ServeHTTP(third, newRequest())
	if third.Code != http.StatusCreated {
		t.Fatalf("expected replay 201 got %d", third.Code)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("handler executed %d times, expected 1", got)
	}
}

func TestIdempotencyMiddlewareHonorsRequestSizeLimit(t *testing.T) {
	store := newFakeStore()
	const limit = 1 << 10
	chain := chimiddleware.RequestSize(limit)(Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run for oversized body")
	})))

	body := strings.NewReader(strings.Repeat("x", 64<<10))
	req := requestWithPattern(http.MethodPost, "/api/v1/gate/scan-exit", "/api/v1/gate/scan-exit", body)
	req.Header.Set("Idempotency-Key", "big")
	resp := httptest.NewRecorder()
	chain.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if consumed := int64(64<<10) - int64(body.Len()); consumed > limit+1 {
		t.Fatalf("buffered %d bytes past the %d byte limit", consumed, limit)
	}
	if store.len() != 0 {
		t.Fatalf("oversized request should not reserve a key")
	}
}
