package main

import (
	"io"
	"os"

	"condensing_unit/internal/config"
	"condensing_unit/internal/logger"
	"condensing_unit/internal/replay"

	"github.com/spf13/cobra"
)

func newReplayCmd() *cobra.Command {
	var (
		scriptPath string
		outPath    string
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Run a YAML input script through a fresh controller and print one JSON record per tick",
		Long: `replay feeds scripted input frames to the controller with no clock, storage or
network attached. Identical scripts always print identical records. Steps may
carry expectations; any failed expectation makes the command exit non-zero
after all records are written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configDir, ".")
			if err != nil {
				return err
			}
			script, err := replay.LoadScript(scriptPath)
			if err != nil {
				return err
			}

			log := logger.NewNop()
			if verbose {
				log = logger.New(logger.DebugLevel, cfg.Log.Encoding)
			}

			var out io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				out = f
			}

			records, runErr := replay.Run(cmd.Context(), script, cfg.Control.Control(), log)
			if err := replay.WriteRecords(out, records); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "replay script (YAML)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write records to this file instead of stdout")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every cycle to stdout")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}
