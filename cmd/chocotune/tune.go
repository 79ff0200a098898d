package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/chocotune/chocolate"
	"github.com/YuminosukeSato/chocotune/families"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
	"github.com/YuminosukeSato/chocotune/pkg/log"
	"github.com/YuminosukeSato/chocotune/tuning"
)

var tuneCmd = &cobra.Command{
	Use:   "tune <family>",
	Short: "Tune one model family and dump its artifacts",
	Long: `Tune one model family on a training CSV.

The fitted search is written to --output as tuned_<family>.gob and the
cross-validation table to --output-cv as cv_results_<family>.csv.

Examples:
  # Quick search (20 candidates, R²)
  tune ridge --train data/train_df.csv

  # Thorough search (200 candidates, negated MAPE) with a score plot
  tune svm_rbf --train data/train_df.csv --extended --plot

  # Settings from a file, metrics for the node_exporter textfile collector
  tune random_forest --train data/train_df.csv --config tune.yaml \
    --metrics-textfile /var/lib/node_exporter/chocotune.prom`,
	Args: cobra.ExactArgs(1),
	RunE: runTune,
}

func init() {
	f := tuneCmd.Flags()
	f.String("train", "", "training CSV with a header row (required)")
	f.String("output", "results/models", "directory for the fitted search")
	f.String("output-cv", "results/cv_scores", "directory for the cross-validation table")
	f.String("config", "", "YAML settings file")
	f.Bool("extended", false, "use the extended preset when no --config is given")
	f.String("variant", "standard", "preprocessor variant: standard or ordinal")
	f.Int("iter", 0, "number of candidates (overrides the preset)")
	f.Int("n-jobs", 0, "concurrent evaluations, 0 or less for every CPU (overrides the preset)")
	f.Bool("plot", false, "also write a PNG of the scores next to the table")
	f.String("metrics-textfile", "", "write Prometheus metrics to this file")
	_ = tuneCmd.MarkFlagRequired("train")

	rootCmd.AddCommand(tuneCmd)
}

// tuneConfig resolves the preset, the optional file and flag overrides, in
// that order.
func tuneConfig(cmd *cobra.Command) (tuning.Config, error) {
	f := cmd.Flags()
	cfg := tuning.SimpleConfig()
	if path, _ := f.GetString("config"); path != "" {
		loaded, err := tuning.LoadConfig(path)
		if err != nil {
			return tuning.Config{}, err
		}
		cfg = loaded
	} else if extended, _ := f.GetBool("extended"); extended {
		cfg = tuning.ExtendedConfig()
	}
	if f.Changed("iter") {
		cfg.SearchIter, _ = f.GetInt("iter")
	}
	if f.Changed("n-jobs") {
		cfg.NJobs, _ = f.GetInt("n-jobs")
	}
	if f.Changed("plot") {
		cfg.ScorePlot, _ = f.GetBool("plot")
	}
	if f.Changed("metrics-textfile") {
		cfg.MetricsTextfile, _ = f.GetString("metrics-textfile")
	}
	return cfg, cfg.Validate()
}

func runTune(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := tuneConfig(cmd)
	if err != nil {
		return err
	}
	variantName, _ := cmd.Flags().GetString("variant")
	variant, err := chocolate.ParseVariant(variantName)
	if err != nil {
		return err
	}
	family, err := families.Lookup(args[0],
		families.WithVariant(variant),
		families.WithSeed(cfg.RandomState),
	)
	if err != nil {
		return err
	}

	train, _ := cmd.Flags().GetString("train")
	output, _ := cmd.Flags().GetString("output")
	outputCV, _ := cmd.Flags().GetString("output-cv")

	logger := log.GetLoggerWithName("cmd").With("command", "tune")
	logger.Info("tuning", log.FamilyKey, family.Name(), log.PathKey, train, "variant", variant.String())

	h := tuning.NewHarness(family, tuning.WithConfig(cfg))
	res, err := h.TuneAndDumpContext(ctx, train, output, outputCV)
	if err != nil {
		return scigoErrors.Wrapf(err, "tune %s", family.Name())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "family:     %s\n", res.Family)
	fmt.Fprintf(out, "run:        %s\n", res.RunID)
	fmt.Fprintf(out, "best %s: %g\n", res.Search.Scoring, res.Search.BestScore)
	fmt.Fprintf(out, "params:     %s\n", formatParams(res.Search.BestParams))
	fmt.Fprintf(out, "model:      %s\n", res.TunedPath)
	fmt.Fprintf(out, "cv results: %s\n", res.CVPath)
	if res.PlotPath != "" {
		fmt.Fprintf(out, "plot:       %s\n", res.PlotPath)
	}
	return nil
}
