package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ochairo/sqlitefetch/internal/domain-adapters/gateways"
	"github.com/ochairo/sqlitefetch/internal/domain/entities"
)

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file> <sha3-256>",
		Short: "Check a local file against a SHA3-256 hex digest",
		Example: `  sqlitefetch verify ~/Downloads/sqlite-tools-linux-x64-3450100.zip \
    4f0e0a5d7b1f3c...`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, opts)

			filePath, expected := args[0], args[1]
			verifier := gateways.NewChecksumVerifier(cfg.ChunkSize)

			result, err := verifier.Verify(cmd.Context(), filePath, expected)
			if err != nil {
				return err
			}
			if !result.Matched {
				return &entities.IntegrityError{Expected: result.Expected, Actual: result.Actual}
			}

			logger.Debug("checksum verified")
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Checksum verified: %s\n", result.Actual)
			return nil
		},
	}
}
