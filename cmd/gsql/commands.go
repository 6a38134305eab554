package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vanshika/patienttrace/backend/internal/gsql"
)

func newQueryCmd(a *app) *cobra.Command {
	var answer string
	cmd := &cobra.Command{
		Use:   "query <statement>...",
		Short: "Run GSQL statements",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			lines, err := client.Query(cmd.Context(), strings.Join(args, " "), gsql.QueryOptions{
				Graph:  a.opts.graph,
				Answer: answer,
			})
			a.printLines(lines)
			return err
		},
	}
	cmd.Flags().StringVar(&answer, "answer", "", "answer sent to secret-style prompts")
	return cmd
}

func newUseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use <graph>",
		Short: "Switch to a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			lines, err := client.Use(cmd.Context(), args[0])
			a.printLines(lines)
			return err
		},
	}
}

func newCatalogCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List vertex types, edge types, graphs, jobs, queries and tuples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			if a.opts.graph != "" {
				if _, err := client.Use(cmd.Context(), a.opts.graph); err != nil {
					return err
				}
			}
			catalog, err := client.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			return writeCatalog(a, output, catalog)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func writeCatalog(a *app, format string, catalog gsql.Catalog) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(catalog); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func newSecretCmd(a *app) *cobra.Command {
	var create string
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Print a secret for --graph, creating one when --create is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.opts.graph == "" {
				return fmt.Errorf("--graph is required")
			}
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			secret, err := client.Secret(cmd.Context(), a.opts.graph, create)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, secret)
			return nil
		},
	}
	cmd.Flags().StringVar(&create, "create", "", "alias for a new secret when the graph has none")
	return cmd
}

func newRunFileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run-file <path>",
		Short: "Run a GSQL script, expanding @file includes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			lines, err := client.RunFile(cmd.Context(), args[0])
			a.printLines(lines)
			return err
		},
	}
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run <statement>...",
		Short: "Run each argument as one line of a script",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			lines, err := client.RunMultiple(cmd.Context(), args)
			a.printLines(lines)
			return err
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			lines, err := client.Version(cmd.Context())
			a.printLines(lines)
			return err
		},
	}
}

func newHelpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "server-help",
		Short: "Print the server's help text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			lines, err := client.Help(cmd.Context())
			a.printLines(lines)
			return err
		},
	}
}

func newKeysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the keywords the server offers for completion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			keys, err := client.AutoKeys(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(a.out, k)
			}
			return nil
		},
	}
}

func newAbortCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "abort",
		Short: "Abort the running client session on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			return client.Quit(cmd.Context())
		},
	}
}
