package cmd

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comps",
		Short: "Scrape sold clothing listings from eBay, Poshmark and Mercari",
		Long: `comps collects recently sold clothing listings ("comps") from resale
marketplaces, scores them against a reference item with a language model and
stores them for the pricing app.

Configuration comes from the environment, an optional .env file and an
optional YAML file named by COMPS_CONFIG.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newSeedCmd())

	return cmd
}
