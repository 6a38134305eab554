package gsql

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTLSConsole(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loginOK(w)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func tlsOptions(srv *httptest.Server) Options {
	return Options{
		Host:   strings.TrimPrefix(srv.URL, "https://"),
		Commit: "x",
		Logger: discardLogger(),
	}
}

func TestTLS_VerifiesByDefault(t *testing.T) {
	cfg, err := tlsConfig(Options{UseTLS: true})
	require.NoError(t, err)
	assert.False(t, cfg.InsecureSkipVerify)

	srv := newTLSConsole(t)
	opts := tlsOptions(srv)
	opts.UseTLS = true
	c, err := NewClient(opts)
	require.NoError(t, err)

	err = c.Login(context.Background())
	require.Error(t, err)
	assert.Empty(t, c.Session().Token)
}

func TestTLS_InsecureOnlyWhenRequested(t *testing.T) {
	srv := newTLSConsole(t)
	opts := tlsOptions(srv)
	opts.UseTLS = true
	opts.InsecureSkipVerify = true
	c, err := NewClient(opts)
	require.NoError(t, err)

	require.NoError(t, c.Login(context.Background()))
	assert.Equal(t, "JSESSIONID=abc123", c.Session().Token)
}

func TestTLS_CustomCA(t *testing.T) {
	srv := newTLSConsole(t)
	caFile := filepath.Join(t.TempDir(), "ca.pem")
	block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	require.NoError(t, os.WriteFile(caFile, block, 0o600))

	opts := tlsOptions(srv)
	opts.CACertFile = caFile
	c, err := NewClient(opts)
	require.NoError(t, err)

	require.NoError(t, c.Login(context.Background()))
}

func TestTLS_BadCAFile(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(caFile, []byte("not a cert"), 0o600))

	_, err := NewClient(Options{Host: "localhost", CACertFile: caFile})
	assert.Error(t, err)
}

func TestTransport_DefaultPort(t *testing.T) {
	tr, err := newTransport(Options{Host: "10.0.0.5"})
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:14240", tr.baseURL)

	tr, err = newTransport(Options{Host: "10.0.0.5", GSPort: "443", UseTLS: true, InsecureSkipVerify: true})
	require.NoError(t, err)
	assert.Equal(t, "https://10.0.0.5:443", tr.baseURL)
}

func TestCookie_OmitsEmptyFields(t *testing.T) {
	raw, err := Session{Token: "S"}.cookie("").header()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, map[string]any{
		"fromGsqlClient":  true,
		"fromGraphStudio": true,
		"session":         "S",
	}, got)
}

func TestAbortEndpoint(t *testing.T) {
	assert.Equal(t, "abortloadingprogress", abortEndpoint(""))
	assert.Equal(t, "abortloadingprogress", abortEndpoint("not-a-version"))
	assert.Equal(t, "abortloadingprogress", abortEndpoint("2.2.0"))
	assert.Equal(t, "abortclientsession", abortEndpoint("v2.3.0"))
	assert.Equal(t, "abortclientsession", abortEndpoint("2.10.1"))
}
