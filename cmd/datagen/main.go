package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanshika/patienttrace/backend/internal/generator"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "datagen: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := generator.DefaultConfig()
	var (
		outputDir   string
		writeStdout bool
	)

	cmd := &cobra.Command{
		Use:          "datagen",
		Short:        "Generate a synthetic contact-tracing dataset with GSQL and Cypher load scripts",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.InfectionChance = clampProbability(cfg.InfectionChance)
			cfg.ClusterChance = clampProbability(cfg.ClusterChance)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			dataset, err := generator.New(cfg).Generate(ctx)
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}

			if writeStdout {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(dataset)
			}

			if err := generator.WriteDataset(dataset, outputDir); err != nil {
				return fmt.Errorf("failed to write dataset: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d patients and %d infections into %s\n", len(dataset.Patients), len(dataset.Infections), outputDir)
			fmt.Fprintf(cmd.OutOrStdout(), "Load with: gsql --graph %s run-file %s/%s\n", dataset.Graph, outputDir, generator.SetupScript)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&cfg.NumPatients, "patients", cfg.NumPatients, "number of patients to generate")
	f.Int64Var(&cfg.FirstPatientID, "first-id", cfg.FirstPatientID, "id of the first generated patient")
	f.Float64Var(&cfg.InfectionChance, "infection-chance", cfg.InfectionChance, "probability that a patient has a known infector")
	f.Float64Var(&cfg.ClusterChance, "cluster-chance", cfg.ClusterChance, "probability of tracing an infection to an existing spreader")
	f.StringVar(&cfg.RootPatient, "root", cfg.RootPatient, "patient guaranteed to have infected someone")
	f.StringVar(&cfg.Graph, "graph", cfg.Graph, "graph name used in the GSQL scripts")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for deterministic generation")
	f.StringVar(&outputDir, "output-dir", "data", "directory to write the dataset and scripts")
	f.BoolVar(&writeStdout, "stdout", false, "write the dataset as JSON to stdout instead of files")
	return cmd
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
