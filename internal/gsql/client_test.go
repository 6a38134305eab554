package gsql

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Endpoint      string
	Body          string
	Cookie        map[string]any
	Authorization string
}

// fakeConsole stands in for the GSQL server. handler receives the endpoint
// name and the decoded body.
type fakeConsole struct {
	t        *testing.T
	server   *httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request, endpoint, body string)
}

func newFakeConsole(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, endpoint, body string)) *fakeConsole {
	t.Helper()
	fc := &fakeConsole{t: t, handler: handler}
	fc.server = httptest.NewServer(http.HandlerFunc(fc.serve))
	t.Cleanup(fc.server.Close)
	return fc
}

func (fc *fakeConsole) serve(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	require.NoError(fc.t, err)

	endpoint := strings.TrimPrefix(r.URL.Path, basePath)
	body := string(raw)
	if endpoint != endpointLogin {
		decoded, err := url.QueryUnescape(body)
		require.NoError(fc.t, err)
		body = decoded
	}

	var cookie map[string]any
	require.NoError(fc.t, json.Unmarshal([]byte(r.Header.Get("Cookie")), &cookie))

	fc.mu.Lock()
	fc.requests = append(fc.requests, recordedRequest{
		Endpoint:      endpoint,
		Body:          body,
		Cookie:        cookie,
		Authorization: r.Header.Get("Authorization"),
	})
	fc.mu.Unlock()

	fc.handler(w, r, endpoint, body)
}

func (fc *fakeConsole) host() string {
	return strings.TrimPrefix(fc.server.URL, "http://")
}

func (fc *fakeConsole) recorded() []recordedRequest {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]recordedRequest(nil), fc.requests...)
}

func (fc *fakeConsole) client(t *testing.T, opts Options) *Client {
	t.Helper()
	opts.Host = fc.host()
	if opts.Username == "" {
		opts.Username = "tigergraph"
		opts.Password = "secret"
	}
	opts.Logger = discardLogger()
	c, err := NewClient(opts)
	require.NoError(t, err)
	return c
}

func writeLines(w http.ResponseWriter, lines ...string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

func loginOK(w http.ResponseWriter) {
	w.Header().Set("Set-Cookie", "JSESSIONID=abc123")
	_, _ = w.Write([]byte(`{"error":false,"message":"","isClientCompatible":true}`))
}

func TestNewClient_RequiresHost(t *testing.T) {
	_, err := NewClient(Options{})
	assert.ErrorIs(t, err, ErrMissingHost)
}

func TestLogin_PinnedVersion(t *testing.T) {
	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		loginOK(w)
	})
	c := fc.client(t, Options{Version: "3.0.5"})

	require.NoError(t, c.Login(context.Background()))

	reqs := fc.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, endpointLogin, reqs[0].Endpoint)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("tigergraph:secret")), reqs[0].Body)
	assert.Empty(t, reqs[0].Authorization)
	assert.Equal(t, "a9f902e5c552780589a15ba458adb48984359165", reqs[0].Cookie["clientCommit"])
	assert.Equal(t, true, reqs[0].Cookie["fromGsqlClient"])
	assert.Equal(t, true, reqs[0].Cookie["fromGraphStudio"])

	assert.Equal(t, "JSESSIONID=abc123", c.Session().Token)
	assert.Equal(t, "3.0.5", c.ServerVersion())
}

func TestLogin_ProbesKnownVersions(t *testing.T) {
	accepted := commitForVersion("3.0.0")
	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		var cookie map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.Header.Get("Cookie")), &cookie))
		if cookie["clientCommit"] != accepted {
			_, _ = w.Write([]byte(`{"error":true,"message":"incompatible","isClientCompatible":false}`))
			return
		}
		loginOK(w)
	})
	c := fc.client(t, Options{})

	require.NoError(t, c.Login(context.Background()))
	assert.Equal(t, "3.0.0", c.ServerVersion())
	assert.Len(t, fc.recorded(), 7)

	var tried []string
	for _, r := range fc.recorded() {
		tried = append(tried, r.Cookie["clientCommit"].(string))
	}
	for i, commit := range tried {
		assert.Equal(t, KnownVersions[i].Commit, commit)
	}
}

func TestLogin_AllVersionsRejected(t *testing.T) {
	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		_, _ = w.Write([]byte(`{"isClientCompatible":false}`))
	})
	c := fc.client(t, Options{})

	err := c.Login(context.Background())
	assert.ErrorIs(t, err, ErrNoCompatibleVersion)
	assert.ErrorIs(t, err, ErrIncompatibleClient)
	assert.Len(t, fc.recorded(), len(KnownVersions))
	assert.Empty(t, c.Session().Token)
}

func TestLogin_WrongPasswordStopsProbing(t *testing.T) {
	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		_, _ = w.Write([]byte(`{"error":true,"message":"Wrong password!"}`))
	})
	c := fc.client(t, Options{})

	err := c.Login(context.Background())
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.NotErrorIs(t, err, ErrNoCompatibleVersion)
	assert.Len(t, fc.recorded(), 1)
}

func TestLogin_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: ErrAuthentication},
		{name: "license", status: http.StatusOK, body: `{"error":true,"message":"License expired on 2020-01-01"}`, want: ErrLicenseExpired},
		{name: "generic", status: http.StatusOK, body: `{"error":true,"message":"user locked"}`, want: ErrLogin},
		{name: "incompatible", status: http.StatusOK, body: `{"isClientCompatible":false}`, want: ErrIncompatibleClient},
		{name: "garbage", status: http.StatusOK, body: `<html>`, want: ErrLogin},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			c := fc.client(t, Options{Commit: "deadbeef"})

			err := c.Login(context.Background())
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLogin_LicenseExpiredIsAuthenticationError(t *testing.T) {
	assert.ErrorIs(t, ErrLicenseExpired, ErrAuthentication)
}

func TestLogin_CanceledContext(t *testing.T) {
	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		_, _ = w.Write([]byte(`{"isClientCompatible":false}`))
	})
	c := fc.client(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Login(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fc.recorded())
}

func TestQuery_SendsSessionAndAppliesCookie(t *testing.T) {
	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		switch endpoint {
		case endpointLogin:
			loginOK(w)
		case endpointFile:
			writeLines(w,
				"Using graph 'Trace'",
				`__GSQL__COOKIES__,{"session":"S2","graph":"Trace","properties":"p"}`,
				"__GSQL__RETURN__CODE__,0",
			)
		}
	})
	c := fc.client(t, Options{Version: "3.1.2"})
	ctx := context.Background()
	require.NoError(t, c.Login(ctx))

	lines, err := c.Use(ctx, "Trace")
	require.NoError(t, err)
	assert.Equal(t, []string{"Using graph 'Trace'"}, lines)
	assert.Equal(t, Session{Token: "S2", Graph: "Trace", Properties: "p"}, c.Session())

	_, err = c.Query(ctx, "SELECT * FROM Patient-(infected_by)-Patient", QueryOptions{})
	require.NoError(t, err)

	reqs := fc.recorded()
	require.Len(t, reqs, 3)

	use := reqs[1]
	assert.Equal(t, "use graph Trace", use.Body)
	assert.Equal(t, "JSESSIONID=abc123", use.Cookie["session"])
	assert.Equal(t, "3887cbd1d67b58ba6f88c50a069b679e20743984", use.Cookie["commitClient"])
	assert.True(t, strings.HasPrefix(use.Authorization, "Basic "))

	query := reqs[2]
	assert.Equal(t, "S2", query.Cookie["session"])
	assert.Equal(t, "Trace", query.Cookie["graph"])
	assert.Equal(t, "p", query.Cookie["properties"])
}

func TestQuery_CommandErrorCarriesOutput(t *testing.T) {
	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		writeLines(w, "Graph 'Nope' does not exist.", "__GSQL__RETURN__CODE__,1")
	})
	c := fc.client(t, Options{Commit: "x"})

	lines, err := c.Query(context.Background(), "use graph Nope", QueryOptions{})

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 1, cmdErr.Code)
	assert.Equal(t, []string{"Graph 'Nope' does not exist."}, lines)
}

func TestQuery_GraphOverrideAndAnswer(t *testing.T) {
	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		switch endpoint {
		case endpointFile:
			writeLines(w, "__GSQL__INTERACT__,CreateUserQb,user-key", "User created.")
		case endpointDialog:
			w.WriteHeader(http.StatusOK)
		}
	})
	c := fc.client(t, Options{Commit: "x"})

	lines, err := c.Query(context.Background(), "create user", QueryOptions{Graph: "Trace", Answer: "pw"})
	require.NoError(t, err)
	assert.Equal(t, []string{"User created."}, lines)

	reqs := fc.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, "Trace", reqs[0].Cookie["graph"])
	assert.Equal(t, endpointDialog, reqs[1].Endpoint)
	assert.Equal(t, "user-key,pw", reqs[1].Body)
}

func TestQuery_EmptyGraphKeepsActiveGraph(t *testing.T) {
	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		writeLines(w, "ok")
	})
	c := fc.client(t, Options{Commit: "x"})
	c.session.Graph = "Trace"

	_, err := c.Query(context.Background(), "ls", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Trace", fc.recorded()[0].Cookie["graph"])
}

func TestRequest_Unauthorized(t *testing.T) {
	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c := fc.client(t, Options{Commit: "x"})

	_, err := c.Version(context.Background())
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestRequest_UnexpectedStatus(t *testing.T) {
	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c := fc.client(t, Options{Commit: "x"})

	_, err := c.Help(context.Background())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, endpointHelp, statusErr.Endpoint)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestCatalog(t *testing.T) {
	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		assert.Equal(t, "ls", body)
		writeLines(w,
			"Vertex Types:",
			"  - VERTEX Patient(PRIMARY_ID id INT)",
			"Queries:",
			"  - listPatients_Infected_By(INT p)",
			"__GSQL__RETURN__CODE__,0",
		)
	})
	c := fc.client(t, Options{Commit: "x"})

	cat, err := c.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Patient"}, cat.Vertices)
	assert.Equal(t, []string{"listPatients_Infected_By"}, cat.Queries)
}

func secretConsole(t *testing.T, showSecret []string) *fakeConsole {
	return newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		switch {
		case body == "use graph Trace":
			writeLines(w, "Using graph 'Trace'", `__GSQL__COOKIES__,{"session":"S","graph":"Trace"}`)
		case body == "show secret":
			writeLines(w, showSecret...)
		case strings.HasPrefix(body, "create secret "):
			writeLines(w, "The secret: newsecret123 has been created for user \"tigergraph\".")
		default:
			t.Errorf("unexpected command %q", body)
		}
	})
}

func TestSecret_ReturnsExisting(t *testing.T) {
	fc := secretConsole(t, []string{
		"- Secret: other",
		"- Alias: o",
		"- GraphName: Other",
		"- Secret: mine",
		"- Alias: m",
		"- GraphName: Trace",
	})
	c := fc.client(t, Options{Commit: "x"})

	id, err := c.Secret(context.Background(), "Trace", "alias")
	require.NoError(t, err)
	assert.Equal(t, "mine", id)

	var bodies []string
	for _, r := range fc.recorded() {
		bodies = append(bodies, r.Body)
	}
	assert.Equal(t, []string{"use graph Trace", "show secret"}, bodies)
}

func TestSecret_CreatesWhenMissing(t *testing.T) {
	fc := secretConsole(t, nil)
	c := fc.client(t, Options{Commit: "x"})

	id, err := c.Secret(context.Background(), "Trace", "patienttrace")
	require.NoError(t, err)
	assert.Equal(t, "newsecret123", id)

	reqs := fc.recorded()
	assert.Equal(t, "create secret patienttrace", reqs[len(reqs)-1].Body)
}

func TestSecret_MissingWithoutAlias(t *testing.T) {
	fc := secretConsole(t, nil)
	c := fc.client(t, Options{Commit: "x"})

	_, err := c.Secret(context.Background(), "Trace", "")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestSecrets_SkipsUseWhenGraphActive(t *testing.T) {
	fc := secretConsole(t, []string{"- Secret: s", "- GraphName: Trace"})
	c := fc.client(t, Options{Commit: "x"})
	c.session.Graph = "Trace"

	reg, err := c.Secrets(context.Background(), "Trace")
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
	assert.Len(t, fc.recorded(), 1)
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	inc := filepath.Join(dir, "inc.gsql")
	main := filepath.Join(dir, "main.gsql")
	require.NoError(t, os.WriteFile(inc, []byte("ls\n"), 0o644))
	require.NoError(t, os.WriteFile(main, []byte("use graph Trace\n@"+inc+"\n"), 0o644))

	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		writeLines(w, "done")
	})
	c := fc.client(t, Options{Commit: "x"})

	lines, err := c.RunFile(context.Background(), main)
	require.NoError(t, err)
	assert.Equal(t, []string{"done"}, lines)

	reqs := fc.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, endpointFile, reqs[0].Endpoint)
	assert.Equal(t, "use graph Trace\nls\n\n", reqs[0].Body)
}

func TestRunFile_RecursiveIncludeSendsNothing(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.gsql")
	require.NoError(t, os.WriteFile(a, []byte("@"+a+"\n"), 0o644))

	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {})
	c := fc.client(t, Options{Commit: "x"})

	_, err := c.RunFile(context.Background(), a)
	var incErr *RecursiveIncludeError
	assert.True(t, errors.As(err, &incErr))
	assert.Empty(t, fc.recorded())
}

func TestRunMultiple(t *testing.T) {
	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		writeLines(w, "ok")
	})
	c := fc.client(t, Options{Commit: "x"})

	_, err := c.RunMultiple(context.Background(), []string{"use graph Trace", "ls"})
	require.NoError(t, err)
	assert.Equal(t, "use graph Trace\nls", fc.recorded()[0].Body)
}

func TestQuit_AbortEndpointFollowsVersion(t *testing.T) {
	cases := map[string]string{
		"":      "abortloadingprogress",
		"2.2.4": "abortloadingprogress",
		"2.3.0": "abortclientsession",
		"3.1.2": "abortclientsession",
	}
	for version, want := range cases {
		fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {})
		c := fc.client(t, Options{Version: version, Commit: "x"})

		require.NoError(t, c.Quit(context.Background()))
		reqs := fc.recorded()
		require.Len(t, reqs, 1)
		assert.Equal(t, want, reqs[0].Endpoint, "version %q", version)
		assert.Equal(t, want, reqs[0].Body)
	}
}

func TestAutoKeys(t *testing.T) {
	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		assert.Equal(t, endpointInfo, endpoint)
		assert.Equal(t, "autokeys", body)
		_, _ = w.Write([]byte("SELECT,FROM,WHERE\n"))
	})
	c := fc.client(t, Options{Commit: "x"})

	keys, err := c.AutoKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT", "FROM", "WHERE"}, keys)
}

func TestLogout_ClearsSession(t *testing.T) {
	fc := newFakeConsole(t, func(w http.ResponseWriter, r *http.Request, endpoint, body string) {
		writeLines(w, "ok")
	})
	c := fc.client(t, Options{Commit: "x"})
	c.session = Session{Token: "S", Graph: "G"}

	c.Logout()
	_, err := c.Query(context.Background(), "ls", QueryOptions{})
	require.NoError(t, err)

	cookie := fc.recorded()[0].Cookie
	assert.NotContains(t, cookie, "session")
	assert.NotContains(t, cookie, "graph")
}
