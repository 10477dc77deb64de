package apiclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/navigation"
	"github.com/kapu/society-cms-go/internal/session"
	"github.com/kapu/society-cms-go/pkg/errors"
)

type fakeNavigator struct {
	paths []string
}

func (f *fakeNavigator) Navigate(path string) bool {
	f.paths = append(f.paths, path)
	return true
}

func newTestClient(t *testing.T, handler http.HandlerFunc, token string, nav navigation.Navigator) (*Client, *session.Session) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sess := session.New(session.NewMemoryTokenStore(token), zap.NewNop())
	if err := sess.Init(context.Background()); err != nil {
		t.Fatalf("init session: %v", err)
	}

	client := NewClient(Config{Endpoint: server.URL + "/api/v1/"}, sess, nav, zap.NewNop())
	return client, sess
}

func TestClientInjectsBearerToken(t *testing.T) {
	var gotAuth, gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `{"ok":true}`)
	}, "tok-1", &fakeNavigator{})

	var out struct {
		OK bool `json:"ok"`
	}
	if err := client.Get(context.Background(), "/articles/admin", nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer tok-1" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotPath != "/api/v1/articles/admin" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if !out.OK {
		t.Fatalf("expected decoded body")
	}
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}, "", &fakeNavigator{})

	if err := client.Get(context.Background(), "/articles/published", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestClientUnauthorizedClearsTokenAndNavigatesOnce(t *testing.T) {
	nav := &fakeNavigator{}
	client, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Token expired"}`)
	}, "stale", nav)

	err := client.Delete(context.Background(), "/members/admin/7", nil, nil)
	if !errors.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if errors.StatusCode(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 status, got %d", errors.StatusCode(err))
	}
	if sess.HasToken() {
		t.Fatalf("expected token to be cleared")
	}
	if len(nav.paths) != 1 || nav.paths[0] != "/admin/login" {
		t.Fatalf("expected exactly one navigation to login, got %v", nav.paths)
	}
	if msg := errors.HumanMessage(err, "fallback"); msg != "Token expired" {
		t.Fatalf("expected server message, got %q", msg)
	}
}

func TestClientUnauthorizedWithRouterRedirectsOnlyOnce(t *testing.T) {
	router := navigation.NewRouter("/admin/articles", zap.NewNop())
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, "stale", router)

	_ = client.Get(context.Background(), "/articles/admin", nil, nil)
	_ = client.Get(context.Background(), "/events", nil, nil)

	history := router.History()
	if len(history) != 2 || history[1] != "/admin/login" {
		t.Fatalf("expected a single redirect to login, got %v", history)
	}
}

func TestClientDecodesBareStringBodies(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "quoted") {
			_, _ = io.WriteString(w, `"/uploads/articles/temp-1.png"`)
			return
		}
		_, _ = io.WriteString(w, "/uploads/articles/temp-2.png\n")
	}, "t", &fakeNavigator{})

	var quoted, bare string
	if err := client.Post(context.Background(), "/quoted", nil, &quoted); err != nil {
		t.Fatalf("quoted: %v", err)
	}
	if err := client.Post(context.Background(), "/bare", nil, &bare); err != nil {
		t.Fatalf("bare: %v", err)
	}
	if quoted != "/uploads/articles/temp-1.png" || bare != "/uploads/articles/temp-2.png" {
		t.Fatalf("unexpected decoded strings %q %q", quoted, bare)
	}
}

func TestClientSurfacesServerMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "Email is required")
	}, "", &fakeNavigator{})

	err := client.Post(context.Background(), "/newsletter/subscribe", map[string]string{}, nil)
	if errors.StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if msg := errors.HumanMessage(err, ""); msg != "Email is required" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestClientUploadSendsMultipartImage(t *testing.T) {
	var field, filename, contentType string
	var size int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		for name, files := range r.MultipartForm.File {
			field = name
			filename = files[0].Filename
			contentType = files[0].Header.Get("Content-Type")
			size = int(files[0].Size)
		}
		_, _ = io.WriteString(w, "/uploads/events/temp-x.png")
	}, "t", &fakeNavigator{})

	var path string
	err := client.Upload(context.Background(), "/events/admin/upload-temp", "image", "poster.png", "image/png", []byte("12345"), &path)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if field != "image" || filename != "poster.png" || contentType != "image/png" || size != 5 {
		t.Fatalf("unexpected multipart part: %s %s %s %d", field, filename, contentType, size)
	}
	if path != "/uploads/events/temp-x.png" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestClientOpensCircuitOnServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sess := session.New(session.NewMemoryTokenStore(""), zap.NewNop())
	breaker := NewBreaker(2, time.Minute, zap.NewNop())
	client := NewClient(Config{Endpoint: server.URL, Breaker: breaker}, sess, &fakeNavigator{}, zap.NewNop())

	for i := 0; i < 3; i++ {
		_ = client.Get(context.Background(), "/events", nil, nil)
	}

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected breaker to stop the third call, server saw %d", got)
	}
	if breaker.State() != CircuitStateOpen {
		t.Fatalf("expected open circuit, got %s", breaker.State())
	}
}

func TestBreakerHalfOpensAfterTimeout(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	breaker := NewBreaker(1, time.Second, zap.NewNop())
	breaker.now = func() time.Time { return now }

	breaker.RecordFailure()
	if breaker.CanExecute() {
		t.Fatalf("expected open circuit to block")
	}

	now = now.Add(2 * time.Second)
	if breaker.State() != CircuitStateHalfOpen {
		t.Fatalf("expected half-open after timeout, got %s", breaker.State())
	}

	breaker.RecordSuccess()
	if breaker.State() != CircuitStateClosed {
		t.Fatalf("expected closed after success, got %s", breaker.State())
	}
}
