package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/telaro/tariffa/internal/cli"
	"github.com/telaro/tariffa/internal/transfer"
)

func fetchCmd() *cobra.Command {
	var (
		pattern     string
		dest        string
		downloadAll bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download feed files from the carrier drop",
		Long: `Connect to the configured FTP drop and download the feed files whose
names match the fetch pattern into the input directory.

Patterns support glob wildcards and strftime date tokens, so
"RIV_*_MESE_%m_*.CDR" fetches the current month's files.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			if settings.FTP.Host == "" {
				return fmt.Errorf("no FTP host configured, set ftp.host or FTP_HOST")
			}

			if dest == "" {
				dest = settings.Paths.InputDir
			}

			pat := settings.FetchPattern()
			if cmd.Flags().Changed("pattern") {
				pat = pattern
			}
			if downloadAll {
				pat = ""
			}

			src := transfer.NewFTPSource(settings.FTPConfig())
			files, err := transfer.FetchMatching(ctx, src, pat, dest)
			if err != nil {
				return fmt.Errorf("fetch failed: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s Downloaded %d file(s) to %s", cli.FetchIcon, len(files), dest)))
			for _, f := range files {
				fmt.Printf("  %s\n", filepath.Base(f))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "Override the configured fetch pattern")
	cmd.Flags().StringVar(&dest, "dest", "", "Destination directory (default the input directory)")
	cmd.Flags().BoolVar(&downloadAll, "all", false, "Download every file regardless of pattern")

	return cmd
}
