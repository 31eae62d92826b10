package foreman

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/nmslite/check-foreman/internal/middleware"
	"github.com/nmslite/check-foreman/internal/mockapi"
	"golang.org/x/crypto/bcrypt"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMockForeman starts the fixture-backed mock API over TLS.
func newMockForeman(t *testing.T) *httptest.Server {
	t.Helper()

	fixtures, err := mockapi.DefaultFixtures()
	if err != nil {
		t.Fatalf("DefaultFixtures error = %v", err)
	}
	creds, err := middleware.NewCredentials("admin", "changeme", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewCredentials error = %v", err)
	}

	srv := httptest.NewTLSServer(mockapi.NewServer(fixtures, creds, discardLogger()))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server, user, password string) *Client {
	return NewClient(srv.URL+mockapi.APIPrefix, user, password, discardLogger(), WithHTTPClient(srv.Client()))
}

func TestClient_Dashboard(t *testing.T) {
	srv := newMockForeman(t)
	c := newTestClient(srv, "admin", "changeme")

	d, err := c.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard error = %v", err)
	}
	if d.BadHosts != 2 || d.TotalHosts != 6 {
		t.Errorf("BadHosts, TotalHosts = %v, %v; want 2, 6", d.BadHosts, d.TotalHosts)
	}
	if len(d.Counters) != 17 {
		t.Errorf("len(Counters) = %d, want 17", len(d.Counters))
	}
	if d.Counters[0].Name != "total_hosts" || d.Counters[len(d.Counters)-1].Name != "percentage" {
		t.Errorf("Counters out of order: first %q, last %q", d.Counters[0].Name, d.Counters[len(d.Counters)-1].Name)
	}
	for _, counter := range d.Counters {
		if counter.Name == "glossary" {
			t.Error("glossary must not be a counter")
		}
	}
}

func TestClient_SearchHosts(t *testing.T) {
	srv := newMockForeman(t)
	c := newTestClient(srv, "admin", "changeme")

	tests := []struct {
		search string
		want   []string
	}{
		{"hostgroup = web", []string{"web01.example.com", "web02.example.com"}},
		{"environment = development", []string{"build01.example.com"}},
		{"db01", []string{"db01.example.com"}},
		{"name ~ *01.example.com and hostgroup != legacy", []string{"web01.example.com", "db01.example.com", "build01.example.com", "mail01.example.com"}},
		{"hostgroup = nothing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			s, err := c.SearchHosts(context.Background(), tt.search)
			if err != nil {
				t.Fatalf("SearchHosts error = %v", err)
			}
			if s.Subtotal != len(tt.want) {
				t.Errorf("Subtotal = %d, want %d", s.Subtotal, len(tt.want))
			}
			if got, want := strings.Join(s.Names(), ","), strings.Join(tt.want, ","); got != want {
				t.Errorf("Names() = %q, want %q", got, want)
			}
		})
	}
}

func TestClient_FactValues(t *testing.T) {
	srv := newMockForeman(t)
	c := newTestClient(srv, "admin", "changeme")

	f, err := c.FactValues(context.Background(), "fact = load_average")
	if err != nil {
		t.Fatalf("FactValues error = %v", err)
	}

	want := []struct {
		host  string
		value float64
	}{
		{"web01.example.com", 0.42},
		{"web02.example.com", 3.10},
		{"db01.example.com", 7.85},
		{"build01.example.com", 1},
		{"mail01.example.com", 0.05},
		{"legacy01.example.com", 0},
	}
	if len(f.Hosts) != len(want) {
		t.Fatalf("got %d hosts, want %d", len(f.Hosts), len(want))
	}
	for i, w := range want {
		hf := f.Hosts[i]
		if hf.Host != w.host || len(hf.Facts) != 1 || hf.Facts[0].Name != "load_average" || hf.Facts[0].Value != w.value {
			t.Errorf("Hosts[%d] = %+v, want %s load_average=%v", i, hf, w.host, w.value)
		}
	}
}

func TestClient_AuthFailure(t *testing.T) {
	srv := newMockForeman(t)
	c := newTestClient(srv, "admin", "wrong")

	_, err := c.Dashboard(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
	if apiErr.Path != PathDashboard {
		t.Errorf("Path = %q, want %q", apiErr.Path, PathDashboard)
	}
	if !strings.Contains(apiErr.Body, "Unable to authenticate user admin") {
		t.Errorf("Body = %q", apiErr.Body)
	}
}

func TestClient_NotFound(t *testing.T) {
	srv := newMockForeman(t)
	c := NewClient(srv.URL+"/missing", "admin", "changeme", discardLogger(), WithHTTPClient(srv.Client()))

	_, err := c.SearchHosts(context.Background(), "web")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("error = %v, want 404 APIError", err)
	}
}

func TestClient_Request(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"subtotal":0,"results":[]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/", "monitor", "s3cret", discardLogger(), WithUserAgent("check_foreman/test"))
	if _, err := c.SearchHosts(context.Background(), "os = Debian and hostgroup ~ web*"); err != nil {
		t.Fatalf("SearchHosts error = %v", err)
	}

	if got.URL.Path != "/api/hosts" {
		t.Errorf("path = %q, want /api/hosts", got.URL.Path)
	}
	q := got.URL.Query()
	if q.Get("search") != "os = Debian and hostgroup ~ web*" {
		t.Errorf("search = %q", q.Get("search"))
	}
	if q.Get("per_page") != "1000" {
		t.Errorf("per_page = %q, want 1000", q.Get("per_page"))
	}
	user, pass, ok := got.BasicAuth()
	if !ok || user != "monitor" || pass != "s3cret" {
		t.Errorf("basic auth = %q, %q, %v", user, pass, ok)
	}
	if got.Header.Get("Accept") != "application/json" {
		t.Errorf("Accept = %q", got.Header.Get("Accept"))
	}
	if got.Header.Get("User-Agent") != "check_foreman/test" {
		t.Errorf("User-Agent = %q", got.Header.Get("User-Agent"))
	}
	if _, err := uuid.Parse(got.Header.Get(RequestIDHeader)); err != nil {
		t.Errorf("%s = %q is not a UUID", RequestIDHeader, got.Header.Get(RequestIDHeader))
	}
}

func TestClient_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html>maintenance</html>`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "u", "p", discardLogger())
	_, err := c.Dashboard(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to parse /dashboard response") {
		t.Errorf("error = %v, want parse failure", err)
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := newMockForeman(t)
	c := newTestClient(srv, "admin", "changeme")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Dashboard(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestClient_URL(t *testing.T) {
	c := NewClient("https://foreman.example.com/api/", "u", "p", discardLogger())

	if got := c.URL(PathDashboard, nil); got != "https://foreman.example.com/api/dashboard" {
		t.Errorf("URL() = %q", got)
	}
	params := url.Values{"search": {"name = a b"}}
	if got := c.URL("hosts", params); got != "https://foreman.example.com/api/hosts?search=name+%3D+a+b" {
		t.Errorf("URL() = %q", got)
	}
}
