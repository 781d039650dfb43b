package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInspectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show what would be downloaded, without downloading it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, opts)

			extractor, downloader := newGateways(cfg, logger, nil)
			ref, err := extractor.FetchAndExtract(cmd.Context(), cfg.PageURL)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "filename: %s\n", ref.Filename)
			fmt.Fprintf(out, "sha3-256: %s\n", ref.ExpectedHash)
			fmt.Fprintf(out, "url:      %s\n", downloader.ResolveURL(cfg.URLTemplate, ref.Filename))
			return nil
		},
	}
}
