package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestDoInjectsBearerAndJSON(t *testing.T) {
	var gotAuth, gotCT string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 5}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", staticToken("tok"))
	var out struct {
		ID int `json:"id"`
	}
	if err := c.Post(context.Background(), "/cart/", map[string]int{"product_id": 1}, &out); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotCT != "application/json" {
		t.Fatalf("expected JSON content type, got %q", gotCT)
	}
	if gotBody["product_id"] != float64(1) {
		t.Fatalf("unexpected body: %v", gotBody)
	}
	if out.ID != 5 {
		t.Fatalf("expected decoded id 5, got %d", out.ID)
	}
}

func TestDoWithoutAuthAndMissingToken(t *testing.T) {
	var auths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auths = append(auths, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx := context.Background()
	if err := New(srv.URL, staticToken("tok")).Get(ctx, "/api/products", nil, WithoutAuth()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := New(srv.URL, staticToken("")).Get(ctx, "/cart/", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := New(srv.URL, nil).Get(ctx, "/cart/", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, a := range auths {
		if a != "" {
			t.Fatalf("request %d: expected no Authorization header, got %q", i, a)
		}
	}
}

func TestDoErrorMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/error-field":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": "quantity must be > 0"}`))
		case "/message-field":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message": "already exists"}`))
		case "/html":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()
	c := New(srv.URL, nil)

	cases := map[string]struct {
		code int
		msg  string
	}{
		"/error-field":   {400, "quantity must be > 0"},
		"/message-field": {409, "already exists"},
		"/html":          {502, "Request failed with status 502"},
		"/empty":         {404, "Request failed with status 404"},
	}
	for path, want := range cases {
		err := c.Get(context.Background(), path, nil)
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("%s: expected *APIError, got %T %v", path, err, err)
		}
		if apiErr.StatusCode != want.code || apiErr.Error() != want.msg {
			t.Fatalf("%s: got %d %q, want %d %q", path, apiErr.StatusCode, apiErr.Error(), want.code, want.msg)
		}
	}
}

func TestDoTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	err := New(addr, nil).Get(context.Background(), "/api/products", nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T %v", err, err)
	}
	if te.Error() == "" {
		t.Fatalf("expected message")
	}
}

func TestDoHonoursContextAndTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, nil, WithTimeout(50*time.Millisecond))
	if err := c.Get(context.Background(), "/slow", nil); err == nil {
		t.Fatalf("expected timeout error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New(srv.URL, nil).Get(ctx, "/slow", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDoMultipartForm(t *testing.T) {
	var gotCT, gotName, gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotName = r.FormValue("name")
		f, _, err := r.FormFile("image")
		if err == nil {
			b, _ := io.ReadAll(f)
			gotFile = string(b)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	form := NewForm().
		Set("name", "Vitamin C").
		Attach("image", &File{Name: "c.png", Content: strings.NewReader("PNGDATA")})
	if v, ok := form.Value("name"); !ok || v != "Vitamin C" {
		t.Fatalf("unexpected form value %q", v)
	}
	if err := New(srv.URL, staticToken("t")).Post(context.Background(), "/admin/products", form, nil); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if !strings.HasPrefix(gotCT, "multipart/form-data; boundary=") {
		t.Fatalf("expected multipart content type, got %q", gotCT)
	}
	if gotName != "Vitamin C" || gotFile != "PNGDATA" {
		t.Fatalf("unexpected form contents %q %q", gotName, gotFile)
	}
}

func TestHeaderAndQueryOptions(t *testing.T) {
	var gotQuery url.Values
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotHeader = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	q := url.Values{"type": {"sales"}}
	err := New(srv.URL, nil).Get(context.Background(), "/x", nil, WithQuery(q), WithHeader("Content-Type", "text/plain"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery.Get("type") != "sales" || gotHeader != "text/plain" {
		t.Fatalf("options not applied: %v %q", gotQuery, gotHeader)
	}
}

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer admin" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	}))
	defer srv.Close()
	dir := filepath.Join(t.TempDir(), "downloads")

	path, err := New(srv.URL, staticToken("admin"), WithDownloadDir(dir)).
		DownloadFile(context.Background(), "/admin/report", "../report.csv")
	if err != nil {
		t.Fatalf("DownloadFile failed: %v", err)
	}
	if path != filepath.Join(dir, "report.csv") {
		t.Fatalf("unexpected path %q", path)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "a,b\n1,2\n" {
		t.Fatalf("unexpected content %q", b)
	}

	_, err = New(srv.URL, staticToken("nope"), WithDownloadDir(dir)).
		DownloadFile(context.Background(), "/admin/report", "r.csv", WithFailureMessage("Failed to generate report"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Failed to generate report" || apiErr.StatusCode != 401 {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestTimeoutDoesNotMutateSharedClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	for _, opts := range [][]Option{
		{WithHTTPClient(shared), WithTimeout(time.Second)},
		{WithTimeout(time.Second), WithHTTPClient(shared)},
	} {
		c := New("http://example.test", nil, opts...)
		if c.http.Timeout != time.Second {
			t.Fatalf("timeout = %v, want 1s", c.http.Timeout)
		}
		if c.http == shared {
			t.Fatalf("client must copy the shared http.Client")
		}
	}
	if shared.Timeout != time.Minute {
		t.Fatalf("shared client timeout changed to %v", shared.Timeout)
	}

	c := New("http://example.test", nil, WithHTTPClient(shared), WithTimeout(0))
	if c.http != shared {
		t.Fatalf("zero timeout should keep the given client")
	}
}
