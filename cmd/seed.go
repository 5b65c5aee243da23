package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"comps-scraper/config"
	"comps-scraper/seed"
	"comps-scraper/services"
	"comps-scraper/storage"
	"comps-scraper/utils"
)

func newSeedCmd() *cobra.Command {
	var set string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a fixed set of test comps",
		Long: `Inserts one of the built-in comp sets through the configured storage driver,
one record at a time. Only storage credentials are required.

Sets: ` + strings.Join(seed.Sets(), ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			listings, err := seed.Load(set)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := storage.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			logger := utils.NewLoggerTo(cmd.ErrOrStderr())
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				logger.Warn("[seed] %v, using info", err)
			}
			pipeline := services.NewPipeline(store, nil, logger)
			defer pipeline.Close()

			fmt.Fprintf(out, "Adding %d test comps to %s...\n\n", len(listings), cfg.Table)

			added := 0
			for i, l := range listings {
				fmt.Fprintf(out, "[%d/%d] Adding: %s\n", i+1, len(listings), l.Title)
				if err := pipeline.Process(cmd.Context(), l); err != nil {
					fmt.Fprintf(out, "  ✗ Error: %v\n", err)
					continue
				}
				added++
				fmt.Fprintf(out, "  ✓ Success - ID: %d\n", l.ID)
			}

			fmt.Fprintf(out, "\n✓ Added %d/%d test comps\n", added, len(listings))
			return nil
		},
	}

	cmd.Flags().StringVar(&set, "set", "ui", "Comp set to insert: "+strings.Join(seed.Sets(), ", "))

	return cmd
}
