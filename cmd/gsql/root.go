package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanshika/patienttrace/backend/internal/config"
	"github.com/vanshika/patienttrace/backend/internal/gsql"
	"github.com/vanshika/patienttrace/backend/internal/logging"
)

type rootOptions struct {
	host     string
	user     string
	password string
	graph    string
	port     string
	caCert   string
	tls      bool
	insecure bool
	version  string
	commit   string
	timeout  time.Duration
	logLevel string
}

// app carries the state shared by every subcommand.
type app struct {
	opts   rootOptions
	stdin  *os.File
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

func newRootCmd(stdin *os.File, out, errOut io.Writer) *cobra.Command {
	a := &app{stdin: stdin, out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:           "gsql",
		Short:         "Remote client for the TigerGraph GSQL console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.prepare(cmd)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	f := cmd.PersistentFlags()
	f.StringVar(&a.opts.host, "host", "", "server host, optionally host:port (env GRAPH_HOST)")
	f.StringVarP(&a.opts.user, "user", "u", "", "username (env GRAPH_USERNAME)")
	f.StringVarP(&a.opts.password, "password", "p", "", "password; prompted on a terminal when omitted")
	f.StringVarP(&a.opts.graph, "graph", "g", "", "graph to use (env GRAPH_NAME)")
	f.StringVar(&a.opts.port, "port", "", "GSQL server port (env GSQL_PORT)")
	f.StringVar(&a.opts.caCert, "cacert", "", "CA certificate file; implies --tls")
	f.BoolVar(&a.opts.tls, "tls", false, "connect over https")
	f.BoolVar(&a.opts.insecure, "insecure", false, "skip server certificate verification")
	f.StringVar(&a.opts.version, "version", "", "pin the client version instead of probing")
	f.StringVar(&a.opts.commit, "commit", "", "pin the client commit hash")
	f.DurationVar(&a.opts.timeout, "timeout", 0, "per request timeout")
	f.StringVar(&a.opts.logLevel, "log-level", "", "log level (env LOG_LEVEL)")

	cmd.AddCommand(
		newQueryCmd(a),
		newUseCmd(a),
		newCatalogCmd(a),
		newSecretCmd(a),
		newRunFileCmd(a),
		newRunCmd(a),
		newVersionCmd(a),
		newHelpCmd(a),
		newKeysCmd(a),
		newAbortCmd(a),
	)
	return cmd
}

// prepare fills unset flags from the environment and sets up logging.
func (a *app) prepare(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	fallback := func(name string, dst *string, value string) {
		if !flags.Changed(name) {
			*dst = value
		}
	}
	fallback("host", &a.opts.host, cfg.Graph.Host)
	fallback("user", &a.opts.user, cfg.Graph.Username)
	fallback("graph", &a.opts.graph, cfg.Graph.Name)
	fallback("port", &a.opts.port, cfg.Graph.GSQLPort)
	fallback("cacert", &a.opts.caCert, cfg.Graph.CACertFile)
	fallback("version", &a.opts.version, cfg.Graph.Version)
	fallback("commit", &a.opts.commit, cfg.Graph.Commit)
	fallback("log-level", &a.opts.logLevel, cfg.Logging.Level)
	if !flags.Changed("tls") {
		a.opts.tls = cfg.Graph.UseTLS
	}
	if !flags.Changed("insecure") {
		a.opts.insecure = cfg.Graph.InsecureSkipVerify
	}
	if !flags.Changed("timeout") {
		a.opts.timeout = cfg.Graph.Timeout
	}

	if !flags.Changed("password") {
		a.opts.password = os.Getenv("GRAPH_PASSWORD")
		if a.opts.password == "" && a.stdin != nil && term.IsTerminal(int(a.stdin.Fd())) {
			fmt.Fprint(a.errOut, "Password: ")
			pw, err := term.ReadPassword(int(a.stdin.Fd()))
			fmt.Fprintln(a.errOut)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			a.opts.password = string(pw)
		}
	}

	logCfg := cfg.Logging
	logCfg.Level = a.opts.logLevel
	a.logger = logging.NewWithWriter(logCfg, a.errOut)
	return nil
}

// liveOutput returns the writer command output streams to while it runs.
// Only a terminal gets the stream; otherwise output is printed on completion.
func (a *app) liveOutput() io.Writer {
	if f, ok := a.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return f
	}
	return nil
}

// connect builds a console client and logs in.
func (a *app) connect(ctx context.Context) (*gsql.Client, error) {
	client, err := gsql.NewClient(gsql.Options{
		Host:               a.opts.host,
		GSPort:             a.opts.port,
		Username:           a.opts.user,
		Password:           a.opts.password,
		UseTLS:             a.opts.tls,
		CACertFile:         a.opts.caCert,
		InsecureSkipVerify: a.opts.insecure,
		Version:            a.opts.version,
		Commit:             a.opts.commit,
		Timeout:            a.opts.timeout,
		Logger:             a.logger,
		Output:             a.liveOutput(),
	})
	if err != nil {
		return nil, err
	}
	if err := client.Login(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// printLines writes command output unless it was already streamed.
func (a *app) printLines(lines []string) {
	if a.liveOutput() != nil {
		return
	}
	for _, l := range lines {
		fmt.Fprintln(a.out, l)
	}
}
