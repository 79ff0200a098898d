package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/chocotune/families"
	"github.com/YuminosukeSato/chocotune/tuning"
)

var familiesCmd = &cobra.Command{
	Use:   "families",
	Short: "List the model families and their artifact names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		for _, name := range families.Names() {
			f, err := families.Lookup(name)
			if err != nil {
				return err
			}
			tuned, cv := tuning.DefaultTunedFileName, tuning.DefaultCVFileName
			if namer, ok := f.(tuning.ArtifactNamer); ok {
				tuned, cv = namer.ArtifactNames()
			}
			fmt.Fprintf(out, "%-14s %-26s %s\n", name, tuned, cv)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(familiesCmd)
}
