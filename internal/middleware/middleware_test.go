package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(RequestIDKey).(string)
	}))

	t.Run("Generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		if _, err := uuid.Parse(seen); err != nil {
			t.Errorf("request id %q is not a UUID", seen)
		}
		if w.Header().Get(RequestIDHeader) != seen {
			t.Errorf("header = %q, context = %q", w.Header().Get(RequestIDHeader), seen)
		}
	})

	t.Run("Propagated", func(t *testing.T) {
		id := uuid.New().String()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, id)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if seen != id {
			t.Errorf("request id = %q, want %q", seen, id)
		}
	})

	t.Run("Invalid replaced", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if seen == "<script>" {
			t.Error("expected invalid request id to be replaced")
		}
	})
}

func TestCredentials(t *testing.T) {
	creds, err := NewCredentials("admin", "changeme", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewCredentials error = %v", err)
	}
	if bytes.Contains(creds.PasswordHash, []byte("changeme")) {
		t.Error("password stored in clear text")
	}

	tests := []struct {
		user, pass string
		want       bool
	}{
		{"admin", "changeme", true},
		{"admin", "changeme ", false},
		{"Admin", "changeme", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := creds.Verify(tt.user, tt.pass); got != tt.want {
			t.Errorf("Verify(%q, %q) = %v, want %v", tt.user, tt.pass, got, tt.want)
		}
	}
}

func TestBasicAuth(t *testing.T) {
	creds, err := NewCredentials("admin", "changeme", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewCredentials error = %v", err)
	}

	var user string
	handler := RequestID(BasicAuth(creds, "Foreman")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ = r.Context().Value(UsernameKey).(string)
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		name    string
		auth    func(r *http.Request)
		code    int
		message string
	}{
		{"Valid", func(r *http.Request) { r.SetBasicAuth("admin", "changeme") }, http.StatusNoContent, ""},
		{"Missing", func(r *http.Request) {}, http.StatusUnauthorized, "Authentication required"},
		{"Wrong", func(r *http.Request) { r.SetBasicAuth("monitor", "changeme") }, http.StatusUnauthorized, "Unable to authenticate user monitor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user = ""
			req := httptest.NewRequest("GET", "/api/dashboard", nil)
			tt.auth(req)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, w.Code)
			}
			if tt.code == http.StatusNoContent {
				if user != "admin" {
					t.Errorf("username in context = %q, want admin", user)
				}
				return
			}

			if got := w.Header().Get("WWW-Authenticate"); got != `Basic realm="Foreman"` {
				t.Errorf("WWW-Authenticate = %q", got)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Error.Message != tt.message {
				t.Errorf("message = %q, want %q", resp.Error.Message, tt.message)
			}
			if resp.Error.RequestID != w.Header().Get(RequestIDHeader) {
				t.Errorf("request id %q does not match header %q", resp.Error.RequestID, w.Header().Get(RequestIDHeader))
			}
		})
	}
}

func TestRecoveryAndLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("fixture exploded")
	})
	handler := RequestID(Logger(logger)(Recovery(logger)(panicking)))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/hosts?search=web", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	out := logs.String()
	for _, want := range []string{`"msg":"Panic recovered"`, `"error":"fixture exploded"`, `"msg":"Request completed"`, `"status":500`, `"query":"search=web"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestSendError(t *testing.T) {
	w := httptest.NewRecorder()
	SendError(w, httptest.NewRequest("GET", "/", nil), http.StatusNotFound, "Route not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	body, _ := io.ReadAll(w.Body)
	if strings.TrimSpace(string(body)) != `{"error":{"message":"Route not found"}}` {
		t.Errorf("body = %s", body)
	}
}
