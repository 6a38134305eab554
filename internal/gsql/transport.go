package gsql

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const basePath = "/gsqlserver/gsql/"

// Console endpoints, relative to basePath.
const (
	endpointLogin   = "login"
	endpointFile    = "file"
	endpointVersion = "version"
	endpointHelp    = "help"
	endpointReset   = "reset"
	endpointDialog  = "dialog"
	endpointInfo    = "getinfo"
)

// transport performs single POST requests against the console endpoints.
type transport struct {
	baseURL       string
	httpClient    *http.Client
	credential    string
	authorization string
}

func newTransport(opts Options) (*transport, error) {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		return nil, ErrMissingHost
	}
	if !strings.Contains(host, ":") {
		port := opts.GSPort
		if port == "" {
			port = DefaultGSPort
		}
		host = host + ":" + port
	}

	scheme := "http"
	httpTransport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		DisableKeepAlives: true,
	}
	if opts.UseTLS || opts.CACertFile != "" {
		scheme = "https"
		cfg, err := tlsConfig(opts)
		if err != nil {
			return nil, err
		}
		httpTransport.TLSClientConfig = cfg
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	credential := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
	return &transport{
		baseURL: scheme + "://" + host,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: httpTransport,
		},
		credential:    credential,
		authorization: "Basic " + credential,
	}, nil
}

func tlsConfig(opts Options) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if opts.CACertFile != "" {
		pem, err := os.ReadFile(opts.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", opts.CACertFile)
		}
		cfg.RootCAs = pool
	}
	cfg.InsecureSkipVerify = opts.InsecureSkipVerify
	return cfg, nil
}

// post sends content to a console endpoint. Authenticated requests carry the
// Basic credential and a form-encoded body; unauthenticated ones send the raw
// base64 credential as body. The caller must close the response body.
func (t *transport) post(ctx context.Context, endpoint, content string, cookie cookiePayload, auth bool) (*http.Response, error) {
	cookieHeader, err := cookie.header()
	if err != nil {
		return nil, err
	}

	body := t.credential
	if auth {
		body = url.QueryEscape(content)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+basePath+endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Language", "en-US")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Java/1.8.0")
	req.Header.Set("Cookie", cookieHeader)
	if auth {
		req.Header.Set("Authorization", t.authorization)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", endpoint, err)
	}
	return resp, nil
}

// lineHandler consumes a response body.
type lineHandler func(r io.Reader) ([]string, error)

// do runs a request and hands the body to handler, or reads it whole when
// handler is nil. The body is closed before do returns.
func (t *transport) do(ctx context.Context, endpoint, content string, cookie cookiePayload, handler lineHandler) (lines []string, raw string, err error) {
	start := time.Now()
	defer func() { observeRequest(endpoint, start, err) }()

	resp, err := t.post(ctx, endpoint, content, cookie, true)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, "", fmt.Errorf("%w: invalid username or password", ErrAuthentication)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if handler != nil {
		lines, err = handler(resp.Body)
		return lines, "", err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s response: %w", endpoint, err)
	}
	return nil, string(data), nil
}
