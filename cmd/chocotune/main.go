// Command chocotune tunes regression models that predict chocolate bar
// ratings and writes the fitted searches and their cross-validation tables.
package main

import (
	"os"

	"github.com/spf13/cobra"

	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
	"github.com/YuminosukeSato/chocotune/pkg/log"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "chocotune",
	Short: "Hyperparameter search for chocolate rating regressors",
	Long: `Fits the chocolate ratings preprocessor with one of several regressors,
runs a randomized cross-validated search over its hyperparameters and the
text vocabulary size, and dumps the fitted search and a ranked results table.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := log.SetupLogger(logLevel, cmd.ErrOrStderr()); err != nil {
			return scigoErrors.Wrap(err, "init logger")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
