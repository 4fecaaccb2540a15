package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"crashlens/adapters/dataload"
	"crashlens/adapters/stats/estimator"
	"crashlens/adapters/stats/factors"
	"crashlens/adapters/stats/marginals"
	"crashlens/domain/collision"
	"crashlens/domain/risk"
	"crashlens/internal/report"
	"crashlens/internal/testkit"
	"crashlens/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crashlens-cli",
		Short: "Collision risk analysis over a CSV/XLSX export",
	}

	rootCmd.AddCommand(
		newFactorsCmd(),
		newEstimateCmd(),
		newSummaryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// dataFlags are shared by all subcommands.
type dataFlags struct {
	file    string
	mapping string
}

func (f *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "collision CSV/XLSX export (synthetic demo data when omitted)")
	cmd.Flags().StringVar(&f.mapping, "mapping", "", "YAML column mapping file")
}

func (f *dataFlags) load() ([]collision.Record, ports.LoadReport, error) {
	var source ports.RecordSource
	if f.file == "" {
		source = testkit.Source{Config: testkit.DefaultConfig()}
	} else {
		mapping := dataload.DefaultMapping()
		if f.mapping != "" {
			var err error
			mapping, err = dataload.LoadMapping(f.mapping)
			if err != nil {
				return nil, ports.LoadReport{}, err
			}
		}
		source = dataload.NewDataReader(f.file, mapping)
	}
	return source.Load()
}

func newFactorsCmd() *cobra.Command {
	var flags dataFlags
	var topN int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "factors",
		Short: "Rank categorical factors by injury-rate association",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, _, err := flags.load()
			if err != nil {
				return err
			}
			params := risk.DefaultParams()
			if topN > 0 {
				params.TopN = topN
			}
			results := factors.Analyze(records, collision.Dimensions(), params)
			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(results)
			}
			stats := collision.ComputeStats(records)
			fmt.Print(report.BuildMarkdown(stats, results, nil))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&topN, "top", 0, "override the number of factors returned")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of markdown")
	return cmd
}

func newEstimateCmd() *cobra.Command {
	var flags dataFlags
	var selects []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate injury risk for a partial category selection",
		Example: `  crashlens-cli estimate --select borough=Bronx --select vehicleType=Motorcycle
  crashlens-cli estimate --file crashes.csv --select factor1="Alcohol Involvement" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, _, err := flags.load()
			if err != nil {
				return err
			}
			selection, err := parseSelection(selects)
			if err != nil {
				return err
			}

			params := risk.DefaultParams()
			set := marginals.Build(records, collision.Dimensions(), params)
			est, err := estimator.Estimate(selection, records, set, params)
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(est)
			}
			stats := collision.ComputeStats(records)
			fmt.Print(report.BuildMarkdown(stats, nil, &est))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringArrayVar(&selects, "select", nil, "dimension=value pair (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of markdown")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var flags dataFlags

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print dataset counts and the base injury rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, loadReport, err := flags.load()
			if err != nil {
				return err
			}
			stats := collision.ComputeStats(records)
			fmt.Printf("Source:        %s\n", loadReport.Path)
			fmt.Printf("Records:       %d (%d rows skipped)\n", stats.Total, loadReport.RowsSkipped)
			fmt.Printf("Injury crashes: %d\n", stats.Injured)
			fmt.Printf("Base rate:     %.2f%%\n", stats.BaseRate*100)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func parseSelection(pairs []string) (risk.Selection, error) {
	selection := make(risk.Selection, len(pairs))
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid --select %q: want dimension=value", pair)
		}
		dim, err := collision.ParseDimension(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		normalized, ok := collision.NormalizeFor(dim, value)
		if !ok {
			continue
		}
		selection[dim] = normalized
	}
	return selection, nil
}
