// Package preview fetches link previews: title, image, and readable text.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/abhisek/readgate/internal/source"
	"github.com/abhisek/readgate/internal/textutil"
)

// ErrUnsupportedURL is returned for anything that is not an absolute http(s)
// URL.
var ErrUnsupportedURL = errors.New("preview: unsupported url")

// Config controls the HTTPFetcher.
type Config struct {
	Timeout         time.Duration
	MaxBytes        int64
	RatePerSecond   float64
	Burst           int
	UserAgent       string
	MaxContentRunes int
}

// HTTPFetcher fetches and parses HTML pages. It is safe for concurrent use.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     Config
	log     *zap.Logger
}

// NewHTTPFetcher creates a fetcher. A nil client gets one with cfg.Timeout
// that refuses to connect to loopback, private or link-local addresses,
// including after a redirect. A caller-supplied client is used as is.
func NewHTTPFetcher(cfg Config, client *http.Client, log *zap.Logger) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout, Transport: publicOnlyTransport()}
	}
	if log == nil {
		log = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &HTTPFetcher{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		cfg:     cfg,
		log:     log,
	}
}

func publicOnlyTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = nil
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second, Control: refuseInternal}
	t.DialContext = dialer.DialContext
	return t
}

// refuseInternal runs after name resolution, so it sees the address actually
// dialled for every hop.
func refuseInternal(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedURL, address)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedURL, address)
	}
	if !publicAddr(ip.Unmap()) {
		return fmt.Errorf("%w: non-public address %s", ErrUnsupportedURL, ip)
	}
	return nil
}

var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("64:ff9b::/96"),
}

func publicAddr(ip netip.Addr) bool {
	if !ip.IsValid() || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast() {
		return false
	}
	for _, p := range reservedPrefixes {
		if p.Contains(ip) {
			return false
		}
	}
	return true
}

// FetchPreview implements source.PreviewFetcher. Pages that answer with a
// non-2xx status or a non-text body have no preview (nil, nil).
func (f *HTTPFetcher) FetchPreview(ctx context.Context, rawURL string) (*source.Preview, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("preview rate limit: %w", err)
	}

	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create preview request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.log.Debug("preview: non-2xx", zap.String("url", rawURL), zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	body := io.Reader(resp.Body)
	if f.cfg.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, f.cfg.MaxBytes)
	}

	final := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	var p *source.Preview
	switch {
	case mediaType == "text/plain":
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", u.Host, err)
		}
		p = &source.Preview{Content: textutil.Normalize(string(raw))}
	case mediaType == "" || strings.Contains(mediaType, "html"):
		p, err = parseHTML(body)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", u.Host, err)
		}
	default:
		return nil, nil
	}

	p.Content = textutil.Truncate(p.Content, f.cfg.MaxContentRunes)
	p.Excerpt = textutil.Truncate(p.Content, excerptRunes)
	p.Platform = source.DetectPlatform(final)
	p.SourceRef = final
	return p, nil
}
