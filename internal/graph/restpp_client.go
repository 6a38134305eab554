package graph

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// RestppOptions configures the TigerGraph REST++ client.
type RestppOptions struct {
	// BaseURL is the REST++ root, e.g. http://127.0.0.1:9000.
	BaseURL string
	Graph   string
	// Secret is exchanged for a bearer token when the client is created.
	// Leave empty on servers without authentication.
	Secret        string
	TokenLifetime time.Duration

	CACertFile         string
	InsecureSkipVerify bool
	Timeout            time.Duration
	// RateLimit caps outbound requests per second. Zero or less disables it.
	RateLimit float64
}

// ErrMissingBaseURL indicates the REST++ base URL is not provided.
var ErrMissingBaseURL = errors.New("REST++ base URL is required")

const defaultRestppTimeout = 30 * time.Second

type restppClient struct {
	baseURL    string
	graph      string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// restppResponse is the envelope REST++ wraps every reply in.
type restppResponse struct {
	Error   bool            `json:"error"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Results json.RawMessage `json:"results"`
	Token   string          `json:"token"`
}

// NewRestppClient builds a REST++ client and, when a secret is configured,
// obtains a bearer token for it.
func NewRestppClient(ctx context.Context, opts RestppOptions) (Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, ErrMissingBaseURL
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if strings.HasPrefix(base, "https://") {
		cfg, err := tlsConfig(opts.CACertFile, opts.InsecureSkipVerify)
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = cfg
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRestppTimeout
	}

	limit := rate.Inf
	burst := 1
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
		burst = max(1, int(opts.RateLimit))
	}

	c := &restppClient{
		baseURL:    base,
		graph:      opts.Graph,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		limiter:    rate.NewLimiter(limit, burst),
	}

	if opts.Secret != "" {
		token, err := c.requestToken(ctx, opts.Secret, opts.TokenLifetime)
		if err != nil {
			return nil, err
		}
		c.token = token
	}
	return c, nil
}

func tlsConfig(caFile string, insecure bool) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: insecure}
	if caFile == "" {
		return cfg, nil
	}
	pem, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", caFile)
	}
	cfg.RootCAs = pool
	return cfg, nil
}

func (c *restppClient) requestToken(ctx context.Context, secret string, lifetime time.Duration) (string, error) {
	q := url.Values{"secret": {secret}}
	if lifetime > 0 {
		q.Set("lifetime", strconv.FormatInt(int64(lifetime/time.Second), 10))
	}

	resp, err := c.get(ctx, "/requesttoken", q, false)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	if resp.Error {
		return "", fmt.Errorf("request token: %s", resp.Message)
	}
	if resp.Token != "" {
		return resp.Token, nil
	}

	var results struct {
		Token string `json:"token"`
	}
	if len(resp.Results) > 0 {
		if err := json.Unmarshal(resp.Results, &results); err != nil {
			return "", fmt.Errorf("decode token: %w", err)
		}
	}
	if results.Token == "" {
		return "", errors.New("request token: response carried no token")
	}
	return results.Token, nil
}

func (c *restppClient) RunInstalledQuery(ctx context.Context, name string, params map[string]any) (res Result, err error) {
	start := time.Now()
	defer func() { observeQuery("tigergraph", name, start, err) }()

	path := "/query/" + url.PathEscape(c.graph) + "/" + url.PathEscape(name)
	resp, err := c.get(ctx, path, encodeParams(params), true)
	if err != nil {
		return Result{}, fmt.Errorf("run installed query %s: %w", name, err)
	}
	if resp.Error {
		return Result{}, &QueryError{Query: name, Code: resp.Code, Message: resp.Message}
	}

	var records []Record
	if len(resp.Results) > 0 {
		if err := json.Unmarshal(resp.Results, &records); err != nil {
			return Result{}, fmt.Errorf("decode %s results: %w", name, err)
		}
	}
	return Result{Records: records}, nil
}

func (c *restppClient) VerifyConnectivity(ctx context.Context) error {
	resp, err := c.get(ctx, "/echo", nil, true)
	if err != nil {
		return err
	}
	if resp.Error {
		return fmt.Errorf("echo: %s", resp.Message)
	}
	return nil
}

func (c *restppClient) Close(context.Context) error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *restppClient) get(ctx context.Context, path string, query url.Values, auth bool) (restppResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return restppResponse{}, err
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return restppResponse{}, err
	}
	req.Header.Set("Accept", "application/json")
	if auth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return restppResponse{}, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return restppResponse{}, fmt.Errorf("read response: %w", err)
	}

	var out restppResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if httpResp.StatusCode >= 300 {
			return restppResponse{}, fmt.Errorf("unexpected status %d", httpResp.StatusCode)
		}
		return restppResponse{}, fmt.Errorf("decode response: %w", err)
	}
	if httpResp.StatusCode >= 300 && !out.Error {
		return restppResponse{}, fmt.Errorf("unexpected status %d", httpResp.StatusCode)
	}
	return out, nil
}

// encodeParams renders query parameters the way REST++ expects them. Slices
// repeat the key once per element.
func encodeParams(params map[string]any) url.Values {
	if len(params) == 0 {
		return nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		switch v := params[k].(type) {
		case []string:
			for _, item := range v {
				values.Add(k, item)
			}
		case []any:
			for _, item := range v {
				values.Add(k, fmt.Sprint(item))
			}
		default:
			values.Add(k, fmt.Sprint(v))
		}
	}
	return values
}
