// Package httpclient wraps net/http with the request validation every
// outbound call must pass: scheme allow-list, private-network blocking,
// and DNS re-resolution to defeat rebinding. Downloads are additionally
// size-capped.
package httpclient

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oradev/ora/pkg/config"
	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/logging"
)

var log = logging.GetLogger("httpclient")

// userAgent mirrors a stock curl so endpoints that vary responses by
// client treat us like the common case.
const userAgent = "curl/8.7.1"

// Client performs validated HTTP operations under a network policy.
type Client struct {
	httpClient *http.Client
	policy     config.NetworkPolicy

	// lookupIP is swappable in tests to simulate hostile resolvers.
	lookupIP func(host string) ([]net.IP, error)
}

// New builds a client from the given network policy.
func New(policy config.NetworkPolicy) *Client {
	timeout := time.Duration(policy.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	c := &Client{
		policy:   policy,
		lookupIP: net.LookupIP,
	}
	c.httpClient = &http.Client{
		Timeout:       timeout,
		CheckRedirect: c.checkRedirect,
	}
	return c
}

// checkRedirect gates every redirect hop. Redirects are refused unless
// the policy allows them, and an allowed hop passes the same URL and DNS
// validation as the initial request, so a public URL cannot bounce the
// client into a blocked range.
func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if !c.policy.AllowRedirects {
		return errors.Newf(errors.ErrRedirectBlocked,
			"refusing redirect to %s, redirects are disabled by policy", req.URL.Redacted())
	}

	maxHops := c.policy.MaxRedirects
	if maxHops <= 0 {
		maxHops = 3
	}
	if len(via) > maxHops {
		return errors.Newf(errors.ErrRedirectBlocked, "stopped after %d redirects", maxHops)
	}

	u, err := c.ValidateURL(req.URL.String())
	if err != nil {
		return err
	}
	return c.validateDNSResolution(u)
}

// ValidateURL parses raw and applies the scheme and host policy. It does
// not resolve DNS; that happens immediately before each request.
func (c *Client) ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid URL %q", raw)
	}

	schemeOK := false
	for _, s := range c.policy.AllowedSchemes {
		if u.Scheme == s {
			schemeOK = true
			break
		}
	}
	if !schemeOK {
		return nil, errors.Newf(errors.ErrBadScheme, "URL scheme %q is not allowed", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, errors.Newf(errors.ErrInvalidInput, "URL %q has no host", raw)
	}

	if c.policy.BlockPrivateNetworks {
		if strings.EqualFold(host, "localhost") {
			return nil, errors.New(errors.ErrBlockedHost, "requests to localhost are blocked")
		}
		if ip := net.ParseIP(host); ip != nil && isBlockedIP(ip) {
			return nil, errors.Newf(errors.ErrBlockedHost, "requests to %s are blocked", ip)
		}
	}

	return u, nil
}

// validateDNSResolution re-resolves the hostname immediately before the
// request and checks every returned address. A TTL=1 record that flips to
// a private IP on the second lookup is caught here.
func (c *Client) validateDNSResolution(u *url.URL) error {
	if !c.policy.ValidateDNS || !c.policy.BlockPrivateNetworks {
		return nil
	}

	host := u.Hostname()
	if net.ParseIP(host) != nil {
		// Literal IP was already validated; nothing to resolve.
		return nil
	}

	ips, err := c.lookupIP(host)
	if err != nil {
		return errors.Wrapf(err, errors.ErrNetwork, "failed to resolve %s", host)
	}
	for _, ip := range ips {
		if isBlockedIP(ip) {
			return errors.Newf(errors.ErrDNSRebind,
				"DNS rebinding attack detected: %s resolves to %s", host, ip)
		}
	}
	return nil
}

// isBlockedIP reports whether an address falls in a range the client
// refuses to talk to: loopback, RFC1918, IPv6 ULA, link-local (which
// covers the cloud metadata address), and unspecified.
func isBlockedIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}

// Get performs a validated GET and returns the response. The caller owns
// the body.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	u, err := c.ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}
	if err := c.validateDNSResolution(u); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to build request")
	}
	req.Header.Set("User-Agent", userAgent)

	log.Debug().Str("url", u.Redacted()).Msg("HTTP GET")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Redirect-gate failures come back wrapped in a url.Error; surface
		// them with their own code instead of a generic network error.
		var oraErr *errors.OraError
		if stderrors.As(err, &oraErr) {
			return nil, oraErr
		}
		return nil, errors.Wrapf(err, errors.ErrNetwork, "request to %s failed", u.Redacted())
	}
	return resp, nil
}

// GetText fetches a URL and returns the body as a string, requiring 2xx.
func (c *Client) GetText(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Newf(errors.ErrHTTPStatus, "%s returned HTTP %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxDownloadSize()+1))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrNetwork, "failed to read response body")
	}
	if int64(len(body)) > c.maxDownloadSize() {
		return "", errors.Newf(errors.ErrContentTooLarge, "response exceeds %d bytes", c.maxDownloadSize())
	}
	return string(body), nil
}

// GetJSON fetches a URL and strictly decodes the JSON body into v,
// requiring 2xx.
func (c *Client) GetJSON(ctx context.Context, rawURL string, v interface{}) error {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Newf(errors.ErrHTTPStatus, "%s returned HTTP %d", rawURL, resp.StatusCode)
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, c.maxDownloadSize()))
	if err := dec.Decode(v); err != nil {
		return errors.Wrapf(err, errors.ErrNetwork, "failed to decode JSON from %s", rawURL)
	}
	return nil
}

// Download fetches a URL to dest, enforcing the download size ceiling
// both on the declared Content-Length and on the actual stream.
func (c *Client) Download(ctx context.Context, rawURL, dest string) error {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Newf(errors.ErrHTTPStatus, "%s returned HTTP %d", rawURL, resp.StatusCode)
	}

	maxSize := c.maxDownloadSize()
	if resp.ContentLength > maxSize {
		return errors.Newf(errors.ErrContentTooLarge,
			"download size %d exceeds limit %d", resp.ContentLength, maxSize)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create download directory")
	}

	out, err := os.Create(dest)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "failed to create %s", dest)
	}
	defer func() { _ = out.Close() }()

	// Servers can lie about Content-Length, so the stream is capped too.
	written, err := io.Copy(out, io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return errors.Wrapf(err, errors.ErrNetwork, "download of %s failed", rawURL)
	}
	if written > maxSize {
		_ = os.Remove(dest)
		return errors.Newf(errors.ErrContentTooLarge, "download exceeds limit %d", maxSize)
	}

	log.Info().Str("url", rawURL).Str("dest", dest).Int64("bytes", written).Msg("Downloaded")
	return nil
}

func (c *Client) maxDownloadSize() int64 {
	if c.policy.MaxDownloadSize > 0 {
		return c.policy.MaxDownloadSize
	}
	return 2 << 30
}
