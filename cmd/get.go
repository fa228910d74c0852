package cmd

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tanq16/symfetch/internal/output"
	"github.com/tanq16/symfetch/internal/utils"
)

func newGetCmd(flags *flagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [URL] [--output OUTPUT_PATH]",
		Short: "Download a single file by absolute URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}
			// --output names the file here; without it the resolved name is used
			outputPath := ""
			if cmd.Flags().Changed("output") {
				outputPath = flags.output
			}
			return runGet(cmd, cfg, flags.debug, args[0], outputPath)
		},
	}
	return cmd
}

func runGet(cmd *cobra.Command, cfg utils.RunConfig, debug bool, rawURL, outputPath string) error {
	ctx := cmd.Context()
	s, err := newSession(ctx, cfg, debug)
	if err != nil {
		return err
	}
	var out *utils.Outcome
	var dlErr error
	s.startDisplay()
	err = s.pool.Submit(ctx, func() {
		out, dlErr = s.downloader.Download(ctx, uuid.NewString(), rawURL, outputPath)
	})
	s.pool.Wait()
	s.stopDisplay()
	if err != nil {
		return err
	}
	if dlErr != nil {
		return dlErr
	}
	output.PrintSuccess("file saved to: " + out.Path)
	return nil
}
