package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCmd(open storeOpener) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:           "blobctl",
		Short:         "Administer a blobdrop deployment: api keys, link prefix and blob storage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")

	cmd.AddCommand(
		newKeysCmd(open, &jsonOutput),
		newPrefixCmd(open, &jsonOutput),
		newAdminCmd(open, &jsonOutput),
	)
	return cmd
}

func writeJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func writePlain(cmd *cobra.Command, format string, args ...any) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), format, args...)
	return err
}
