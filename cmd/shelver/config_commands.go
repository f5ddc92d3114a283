package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shelver/internal/config"
)

func newConfigCommand(cmdCtx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(cmdCtx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the paths section, then run 'shelver mapping init' to seed the code mappings.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}

func newConfigShowCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "show",
		Short:       "Display the effective configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var flagPath string
			if cmdCtx.configFlag != nil {
				flagPath = strings.TrimSpace(*cmdCtx.configFlag)
			}
			cfg, path, exists, err := config.Load(flagPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file does not exist; showing defaults")
			}

			rows := [][]string{
				{"paths.source_dir", cfg.Paths.SourceDir},
				{"paths.archive_dir", cfg.Paths.ArchiveDir},
				{"paths.log_dir", cfg.Paths.LogDir},
				{"paths.category_map", cfg.Paths.CategoryMap},
				{"paths.activity_map", cfg.Paths.ActivityMap},
				{"transfer.min_size_mb", fmt.Sprintf("%d", cfg.Transfer.MinSizeMB)},
				{"transfer.verify_checksum", fmt.Sprintf("%t", cfg.Transfer.VerifyChecksum)},
				{"transfer.max_attempts", fmt.Sprintf("%d", cfg.Transfer.MaxAttempts)},
				{"transfer.stability_interval_seconds", fmt.Sprintf("%d", cfg.Transfer.StabilityIntervalSecs)},
				{"transfer.max_observation_seconds", fmt.Sprintf("%d", cfg.Transfer.MaxObservationSecs)},
				{"transfer.backoff_base_ms", fmt.Sprintf("%d", cfg.Transfer.BackoffBaseMillis)},
				{"workers.count", fmt.Sprintf("%d", cfg.Workers.Count)},
				{"journal.enabled", fmt.Sprintf("%t", cfg.Journal.Enabled)},
				{"journal.path", cfg.Journal.Path},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
	return cmd
}
