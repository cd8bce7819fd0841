package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/handiism/musicweb/internal/config"
	"github.com/handiism/musicweb/internal/encode"
)

func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether the external tools a build needs are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			statuses, err := preflight(cfg)

			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				state := "ok"
				switch {
				case !s.Available && s.Optional:
					state = "unused"
				case !s.Available:
					state = "missing"
				}
				rows = append(rows, []string{s.Name, s.Command, state, s.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Tool", "Command", "Status", "Detail"},
				rows,
				nil,
			))
			return err
		},
	}
}

// preflight checks the binaries the configured catalog needs and returns
// an error naming every missing one.
func preflight(cfg *config.Config) ([]encode.Status, error) {
	cat, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	statuses := encode.CheckBinaries(encode.Requirements(cfg.Tools.FFmpeg, cfg.Tools.Zip, cat.NeedsTranscoder()))
	if missing := encode.Missing(statuses); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = fmt.Sprintf("%s (%s)", m.Name, m.Detail)
		}
		return statuses, fmt.Errorf("required tools missing: %v", names)
	}
	return statuses, nil
}
