package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/chocotune/tuning"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <artifact>",
	Short: "Print the best candidate and the leading ranks of a dumped search",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().Int("top", 5, "number of ranked candidates to print")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	search, err := tuning.LoadArtifact(args[0])
	if err != nil {
		return err
	}
	top, _ := cmd.Flags().GetInt("top")
	out := cmd.OutOrStdout()
	if search.Estimator != nil {
		fmt.Fprintf(out, "estimator:  %s\n", search.Estimator.EstimatorName)
	}
	fmt.Fprintf(out, "scoring:    %s\n", search.Scoring)
	fmt.Fprintf(out, "best score: %g\n", search.BestScore)
	fmt.Fprintf(out, "params:     %s\n", formatParams(search.BestParams))
	if search.CVResults == nil {
		return nil
	}
	fmt.Fprintf(out, "candidates: %d, folds: %d\n", search.CVResults.Len(), search.CVResults.NSplits())
	for i, c := range search.CVResults.ByRank() {
		if i >= top {
			break
		}
		fmt.Fprintf(out, "%4d  %10.4f ± %-8.4f %s\n",
			search.CVResults.RankTestScore[c],
			search.CVResults.MeanTestScore[c],
			search.CVResults.StdTestScore[c],
			formatParams(search.CVResults.Params[c]))
	}
	return nil
}

// formatParams prints params as sorted key=value pairs.
func formatParams(params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, params[k])
	}
	return strings.Join(parts, " ")
}
