package gsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultGSPort is the GSQL server port used when Host carries none.
	DefaultGSPort = "14240"
	// DefaultTimeout bounds a single console request.
	DefaultTimeout = 30 * time.Second
	// DefaultUsername and DefaultPassword are the stock TigerGraph credentials.
	DefaultUsername = "tigergraph"
	DefaultPassword = "tigergraph"
)

// ErrMissingHost indicates the console host is not provided.
var ErrMissingHost = errors.New("gsql: host is required")

// Options configures a console Client.
type Options struct {
	Host     string
	GSPort   string
	Username string
	Password string

	// UseTLS switches to https. Setting CACertFile implies it.
	UseTLS     bool
	CACertFile string
	// InsecureSkipVerify disables server certificate verification.
	InsecureSkipVerify bool

	// Version and Commit pin the client commit. When neither resolves to a
	// commit, Login probes KnownVersions.
	Version string
	Commit  string

	Timeout time.Duration
	Logger  *slog.Logger
	// Output receives command output as it streams, plus terminal cursor
	// control sequences. Optional.
	Output io.Writer
}

// QueryOptions tunes a single Query call.
type QueryOptions struct {
	// Graph becomes the active graph before the command runs, when set.
	Graph string
	// Answer is sent back when the server asks a secret-style question.
	Answer string
}

// Client speaks the GSQL console protocol. It keeps session state between
// calls and is not safe for concurrent use.
type Client struct {
	transport *transport
	logger    *slog.Logger
	live      io.Writer

	version string
	commit  string
	session Session
}

// NewClient validates the options and builds a Client. No request is sent.
func NewClient(opts Options) (*Client, error) {
	if opts.Username == "" {
		opts.Username = DefaultUsername
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}

	t, err := newTransport(opts)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "gsql")
	if opts.InsecureSkipVerify {
		logger.Warn("TLS certificate verification is disabled", "host", t.baseURL)
	}

	commit := opts.Commit
	if commit == "" {
		commit = commitForVersion(opts.Version)
	}

	return &Client{
		transport: t,
		logger:    logger,
		live:      opts.Output,
		version:   opts.Version,
		commit:    commit,
	}, nil
}

// Session returns a snapshot of the current session.
func (c *Client) Session() Session { return c.session }

// ServerVersion reports the version the client logged in as.
func (c *Client) ServerVersion() string { return c.version }

// Logout drops the session token, graph and properties.
func (c *Client) Logout() { c.session = Session{} }

type loginResponse struct {
	Error              bool   `json:"error"`
	Message            string `json:"message"`
	IsClientCompatible *bool  `json:"isClientCompatible"`
}

// Login authenticates against the console. With a pinned commit it makes one
// attempt; otherwise it walks KnownVersions oldest first, discarding session
// state between attempts, until one is accepted.
func (c *Client) Login(ctx context.Context) error {
	if c.commit != "" {
		return c.loginAs(ctx, ClientVersion{Version: c.version, Commit: c.commit})
	}

	var errs []error
	for _, v := range KnownVersions {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.session = Session{}

		err := c.loginAs(ctx, v)
		if err == nil {
			c.logger.Info("logged in", "version", v.Version)
			return nil
		}
		if !probeNextVersion(err) {
			return err
		}
		c.logger.Debug("login attempt rejected", "version", v.Version, "error", err)
		errs = append(errs, fmt.Errorf("version %s: %w", v.Version, err))
	}
	return fmt.Errorf("%w: %w", ErrNoCompatibleVersion, errors.Join(errs...))
}

func probeNextVersion(err error) bool {
	var statusErr *StatusError
	return errors.Is(err, ErrIncompatibleClient) || errors.As(err, &statusErr)
}

func (c *Client) loginAs(ctx context.Context, v ClientVersion) (err error) {
	start := time.Now()
	defer func() { observeRequest(endpointLogin, start, err) }()

	resp, err := c.transport.post(ctx, endpointLogin, "", loginCookie(v.Commit), false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: invalid username or password", ErrAuthentication)
	default:
		return &StatusError{Endpoint: endpointLogin, StatusCode: resp.StatusCode}
	}

	var res loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("%w: decode login response: %v", ErrLogin, err)
	}

	if strings.Contains(res.Message, "License expired") {
		return ErrLicenseExpired
	}
	if res.IsClientCompatible != nil && !*res.IsClientCompatible {
		return ErrIncompatibleClient
	}
	if res.Error {
		if strings.Contains(res.Message, "Wrong password!") {
			return fmt.Errorf("%w: invalid username or password", ErrAuthentication)
		}
		return fmt.Errorf("%w: %s", ErrLogin, res.Message)
	}

	c.session = Session{Token: resp.Header.Get("Set-Cookie")}
	c.version = v.Version
	c.commit = v.Commit
	return nil
}

// command posts content to an interactive endpoint and returns the output
// lines with every protocol control line removed.
func (c *Client) command(ctx context.Context, endpoint, content, answer string) ([]string, error) {
	d := &dispatcher{
		answer:     answer,
		live:       c.live,
		setSession: func(s Session) { c.session = s },
		reply: func(content string) error {
			_, _, err := c.transport.do(ctx, endpointDialog, content, c.session.cookie(c.commit), nil)
			return err
		},
	}
	lines, _, err := c.transport.do(ctx, endpoint, content, c.session.cookie(c.commit), d.run)
	return lines, err
}

// Query runs one or more GSQL statements. A *CommandError is returned
// together with the output when the server reports a failure.
func (c *Client) Query(ctx context.Context, statements string, opts QueryOptions) ([]string, error) {
	if opts.Graph != "" {
		c.session.Graph = opts.Graph
	}
	return c.command(ctx, endpointFile, statements, opts.Answer)
}

// Use switches the active graph.
func (c *Client) Use(ctx context.Context, graph string) ([]string, error) {
	return c.command(ctx, endpointFile, "use graph "+graph, "")
}

// Catalog lists the schema objects visible in the current session.
func (c *Client) Catalog(ctx context.Context) (Catalog, error) {
	lines, err := c.command(ctx, endpointFile, "ls", "")
	if err != nil {
		return Catalog{}, err
	}
	return ParseCatalog(lines), nil
}

// Secrets lists the secrets of graph, switching to it first when needed.
func (c *Client) Secrets(ctx context.Context, graph string) (*Secrets, error) {
	if c.session.Graph != graph {
		if _, err := c.Use(ctx, graph); err != nil {
			return nil, fmt.Errorf("use graph %s: %w", graph, err)
		}
	}
	lines, err := c.Query(ctx, "show secret", QueryOptions{})
	if err != nil {
		return nil, err
	}
	return ParseSecrets(lines)
}

// Secret returns a secret bound to graph. When none exists and createAlias is
// set, a new secret is created under that alias.
func (c *Client) Secret(ctx context.Context, graph, createAlias string) (string, error) {
	secrets, err := c.Secrets(ctx, graph)
	if err != nil {
		return "", err
	}
	if id, ok := secrets.ForGraph(graph); ok {
		return id, nil
	}
	if createAlias == "" {
		return "", fmt.Errorf("%w %q", ErrSecretNotFound, graph)
	}

	lines, err := c.Query(ctx, "create secret "+createAlias, QueryOptions{})
	if err != nil {
		return "", fmt.Errorf("create secret: %w", err)
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: empty create secret response", ErrUnexpectedOutput)
	}
	fields := strings.Fields(lines[0])
	if len(fields) < 3 {
		return "", fmt.Errorf("%w: %q", ErrUnexpectedOutput, lines[0])
	}
	c.logger.Info("created secret", "graph", graph, "alias", createAlias)
	return fields[2], nil
}

// RunFile loads a script, expanding @file includes, and runs it.
func (c *Client) RunFile(ctx context.Context, path string) ([]string, error) {
	content, err := LoadScript(path, c.logger)
	if err != nil {
		return nil, err
	}
	return c.command(ctx, endpointFile, content, "")
}

// RunMultiple runs the given statements as one script.
func (c *Client) RunMultiple(ctx context.Context, lines []string) ([]string, error) {
	return c.command(ctx, endpointFile, strings.Join(lines, "\n"), "")
}

// Version returns the server's version banner.
func (c *Client) Version(ctx context.Context) ([]string, error) {
	return c.command(ctx, endpointVersion, "version", "")
}

// Help returns the server's help text.
func (c *Client) Help(ctx context.Context) ([]string, error) {
	return c.command(ctx, endpointHelp, "help", "")
}

// Reset asks the server to reset the console session.
func (c *Client) Reset(ctx context.Context) ([]string, error) {
	return c.command(ctx, endpointReset, "reset", "")
}

// Quit aborts the running client session on the server.
func (c *Client) Quit(ctx context.Context) error {
	name := abortEndpoint(c.version)
	_, _, err := c.transport.do(ctx, name, name, c.session.cookie(c.commit), nil)
	return err
}

// AutoKeys returns the keywords the server offers for completion.
func (c *Client) AutoKeys(ctx context.Context) ([]string, error) {
	_, raw, err := c.transport.do(ctx, endpointInfo, "autokeys", c.session.cookie(c.commit), nil)
	if err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	return strings.Split(raw, ","), nil
}
