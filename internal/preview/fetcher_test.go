package preview

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

const page = `<!doctype html>
<html><head>
<title>Fallback title</title>
<meta property="og:title" content="Walking lowers blood pressure">
<meta property="og:image" content="https://img.example/walk.png">
<meta name="description" content="A year-long trial of daily walks.">
<script>var tracking = "ignore me";</script>
</head>
<body>
<nav>Home | News | Sports</nav>
<header>Site banner</header>
<article>
<h1>Walking lowers blood pressure</h1>
<p>Researchers followed 400 adults for a year.</p>
<p>Daily walkers saw a small drop.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func testConfig() Config {
	return Config{Timeout: 2 * time.Second, MaxBytes: 1 << 20, RatePerSecond: 100, Burst: 10, UserAgent: "readgate-test", MaxContentRunes: 5000}
}

func TestFetchPreview_HTML(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testConfig(), srv.Client(), zaptest.NewLogger(t))
	p, err := f.FetchPreview(context.Background(), srv.URL+"/walk")
	if err != nil {
		t.Fatalf("FetchPreview: %v", err)
	}
	if p == nil {
		t.Fatal("expected a preview")
	}
	if p.Title != "Walking lowers blood pressure" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.Image != "https://img.example/walk.png" {
		t.Errorf("Image = %q", p.Image)
	}
	if p.Summary != "A year-long trial of daily walks." {
		t.Errorf("Summary = %q", p.Summary)
	}
	if !strings.Contains(p.Content, "Researchers followed 400 adults") {
		t.Errorf("Content missing article text: %q", p.Content)
	}
	for _, noise := range []string{"tracking", "Home | News", "Site banner", "Copyright"} {
		if strings.Contains(p.Content, noise) {
			t.Errorf("Content contains %q: %q", noise, p.Content)
		}
	}
	if p.SourceRef != srv.URL+"/walk" {
		t.Errorf("SourceRef = %q", p.SourceRef)
	}
	if gotUA != "readgate-test" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestFetchPreview_BodyWithoutArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title> Plain  page </title></head><body><p>Just a paragraph.</p></body></html>`))
	}))
	defer srv.Close()

	p, err := NewHTTPFetcher(testConfig(), srv.Client(), nil).FetchPreview(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchPreview: %v", err)
	}
	if p.Title != "Plain page" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.Content != "Just a paragraph." {
		t.Errorf("Content = %q", p.Content)
	}
}

func TestFetchPreview_PlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("line one\n\nline   two"))
	}))
	defer srv.Close()

	p, err := NewHTTPFetcher(testConfig(), srv.Client(), nil).FetchPreview(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchPreview: %v", err)
	}
	if p.Content != "line one line two" {
		t.Errorf("Content = %q", p.Content)
	}
}

func TestFetchPreview_NoPreview(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		ctype   string
		wantNil bool
	}{
		{"not found", http.StatusNotFound, "text/html", true},
		{"server error", http.StatusBadGateway, "text/html", true},
		{"binary", http.StatusOK, "application/pdf", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.ctype)
				w.WriteHeader(tt.status)
				w.Write([]byte("<html></html>"))
			}))
			defer srv.Close()

			p, err := NewHTTPFetcher(testConfig(), srv.Client(), nil).FetchPreview(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("FetchPreview: %v", err)
			}
			if (p == nil) != tt.wantNil {
				t.Fatalf("preview = %+v, wantNil %v", p, tt.wantNil)
			}
		})
	}
}

func TestFetchPreview_SizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(strings.Repeat("a", 4096)))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxBytes = 100
	p, err := NewHTTPFetcher(cfg, srv.Client(), nil).FetchPreview(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchPreview: %v", err)
	}
	if len(p.Content) != 100 {
		t.Errorf("len(Content) = %d, want 100", len(p.Content))
	}
}

func TestFetchPreview_UnsupportedURL(t *testing.T) {
	f := NewHTTPFetcher(testConfig(), nil, nil)
	for _, u := range []string{"editorial://weekly", "ftp://example.com/x", "/relative", "::"} {
		if _, err := f.FetchPreview(context.Background(), u); !errors.Is(err, ErrUnsupportedURL) {
			t.Errorf("FetchPreview(%q) err = %v, want ErrUnsupportedURL", u, err)
		}
	}
}

func TestFetchPreview_RefusesLoopback(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><title>internal</title></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testConfig(), nil, zaptest.NewLogger(t))
	p, err := f.FetchPreview(context.Background(), srv.URL+"/admin")
	if !errors.Is(err, ErrUnsupportedURL) {
		t.Fatalf("err = %v, want ErrUnsupportedURL", err)
	}
	if p != nil {
		t.Errorf("preview = %+v, want nil", p)
	}
	if hits != 0 {
		t.Errorf("server saw %d requests, want 0", hits)
	}
}

func TestPublicAddr(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"93.184.216.34", true},
		{"2606:2800:220:1:248:1893:25c8:1946", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"172.16.0.9", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"fe80::1", false},
		{"fc00::1", false},
		{"0.0.0.0", false},
		{"100.64.0.1", false},
		{"224.0.0.1", false},
	}
	for _, tt := range tests {
		if got := publicAddr(netip.MustParseAddr(tt.addr)); got != tt.want {
			t.Errorf("publicAddr(%s) = %v, want %v", tt.addr, got, tt.want)
		}
	}
	if err := refuseInternal("tcp4", "[::ffff:127.0.0.1]:80", nil); !errors.Is(err, ErrUnsupportedURL) {
		t.Errorf("mapped loopback err = %v, want ErrUnsupportedURL", err)
	}
	if err := refuseInternal("tcp4", "93.184.216.34:443", nil); err != nil {
		t.Errorf("public address err = %v", err)
	}
}

func TestFetchPreview_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.RatePerSecond = 0.01
	cfg.Burst = 1
	f := NewHTTPFetcher(cfg, srv.Client(), nil)

	if _, err := f.FetchPreview(context.Background(), srv.URL); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := f.FetchPreview(ctx, srv.URL); err == nil {
		t.Fatal("expected the limiter to give up before the deadline")
	}
}
