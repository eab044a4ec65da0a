package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

const generatedKeyBytes = 32

func newKeysCmd(open storeOpener, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage upload api keys",
	}
	cmd.AddCommand(newKeysAddCmd(open, jsonOutput), newKeysRevokeCmd(open, jsonOutput))
	return cmd
}

func newKeysAddCmd(open storeOpener, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "add [key]",
		Short: "Provision an api key, generating one when none is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = strings.TrimSpace(args[0])
				if key == "" {
					return errors.New("key cannot be blank")
				}
			} else {
				generated, err := generateKey()
				if err != nil {
					return err
				}
				key = generated
			}

			return withStores(cmd.Context(), open, func(s *stores) error {
				if err := s.meta.AddKey(cmd.Context(), key); err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(cmd, map[string]string{"key": key})
				}
				return writePlain(cmd, "%s\n", key)
			})
		},
	}
}

func newKeysRevokeCmd(open storeOpener, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <key>",
		Short: "Remove an api key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), open, func(s *stores) error {
				revoked, err := s.meta.RevokeKey(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !revoked {
					return errors.New("key not found")
				}
				if *jsonOutput {
					return writeJSON(cmd, map[string]bool{"revoked": true})
				}
				return writePlain(cmd, "revoked\n")
			})
		},
	}
}

func generateKey() (string, error) {
	buf := make([]byte, generatedKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
