package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newPrefixCmd(open storeOpener, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefix",
		Short: "Show or change the url prefix of download links",
	}
	cmd.AddCommand(newPrefixShowCmd(open, jsonOutput), newPrefixSetCmd(open, jsonOutput))
	return cmd
}

func newPrefixShowCmd(open storeOpener, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the prefix new uploads are linked under",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), open, func(s *stores) error {
				prefix, ok, err := s.meta.URLPrefix(cmd.Context())
				if err != nil {
					return err
				}
				if !ok {
					prefix = s.defaultPrefix
				}
				if *jsonOutput {
					return writeJSON(cmd, map[string]any{"url_prefix": prefix, "default": !ok})
				}
				if !ok {
					return writePlain(cmd, "%s (default)\n", prefix)
				}
				return writePlain(cmd, "%s\n", prefix)
			})
		},
	}
}

func newPrefixSetCmd(open storeOpener, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "set <url>",
		Short: "Store the prefix in the config record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix, err := parsePrefix(args[0])
			if err != nil {
				return err
			}
			return withStores(cmd.Context(), open, func(s *stores) error {
				if err := s.meta.SetURLPrefix(cmd.Context(), prefix); err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(cmd, map[string]string{"url_prefix": prefix})
				}
				return writePlain(cmd, "%s\n", prefix)
			})
		},
	}
}

func parsePrefix(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("prefix must be an absolute http(s) url, got %q", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}
