package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelver/internal/mapping"
)

func newMappingCommand(cmdCtx *commandContext) *cobra.Command {
	mappingCmd := &cobra.Command{
		Use:   "mapping",
		Short: "Code mapping utilities",
	}

	mappingCmd.AddCommand(newMappingInitCommand(cmdCtx))
	mappingCmd.AddCommand(newMappingShowCommand(cmdCtx))

	return mappingCmd
}

func newMappingInitCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write starter category and activity mapping files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if err := mapping.WriteSamples(cfg.Paths.CategoryMap, cfg.Paths.ActivityMap); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Category mapping: %s\n", cfg.Paths.CategoryMap)
			fmt.Fprintf(out, "Activity mapping: %s\n", cfg.Paths.ActivityMap)
			fmt.Fprintln(out, "Existing files were left untouched; edit them to add your codes.")
			return nil
		},
	}
}

func newMappingShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the configured code mappings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			categories, err := mapping.Load("category", cfg.Paths.CategoryMap)
			if err != nil {
				return err
			}
			activities, err := mapping.Load("activity", cfg.Paths.ActivityMap)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, m := range []*mapping.Mapping{categories, activities} {
				rows := make([][]string, 0, m.Len())
				for _, code := range m.Codes() {
					folder, _ := m.Resolve(code)
					rows = append(rows, []string{code, folder})
				}
				fmt.Fprintf(out, "%s codes (%d)\n", m.Kind(), m.Len())
				fmt.Fprintln(out, renderTable([]string{"Code", "Folder"}, rows, []columnAlignment{alignLeft, alignLeft}))
			}
			return nil
		},
	}
}
