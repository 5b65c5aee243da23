package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"comps-scraper/models"
	"comps-scraper/utils"
)

// launchFunc runs one spider process with the given crawl arguments.
type launchFunc func(ctx context.Context, spider string, args []string) error

func newRunCmd() *cobra.Command {
	return newRunCmdWith(execCrawl)
}

func newRunCmdWith(launch launchFunc) *cobra.Command {
	var (
		spider   string
		query    string
		features string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one or all marketplace spiders",
		Long: `Runs each selected spider as its own crawl process, one after another.
A spider that fails is logged and the next one still runs.`,
		Example: `  # Search eBay for a query
  comps run --spider ebay --query "Nike Hoodie Size L"

  # Search every marketplace for comps of a reference item
  comps run --spider all --features '{"category":"hoodie","brand_clean":"Nike","size_normalized":"L"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(spiderNames(), spider) {
				return fmt.Errorf("invalid --spider %q (choose from %s)", spider, strings.Join(spiderNames(), ", "))
			}

			out := cmd.OutOrStdout()
			item, err := parseFeatures(features)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				return nil
			}

			spiders := []string{spider}
			if spider == spiderAll {
				spiders = spiderNames()[:len(models.Marketplaces)]
			}

			logger := utils.NewLoggerTo(out)
			for _, name := range spiders {
				printRun(out, name, query, item)

				crawlArgs := []string{}
				if query != "" {
					crawlArgs = append(crawlArgs, "--query", query)
				}
				if item != nil {
					b, _ := json.Marshal(item)
					crawlArgs = append(crawlArgs, "--features", string(b))
				}

				if err := launch(cmd.Context(), name, crawlArgs); err != nil {
					logger.Error("[run] Spider %s failed: %v", name, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&spider, "spider", "", "Spider to run: "+strings.Join(spiderNames(), ", "))
	cmd.Flags().StringVar(&query, "query", "", "Search query string")
	cmd.Flags().StringVar(&features, "features", "", "JSON object of item features for AI matching")
	_ = cmd.MarkFlagRequired("spider")
	_ = cmd.RegisterFlagCompletionFunc("spider", cobra.FixedCompletions(spiderNames(), cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func printRun(out io.Writer, spider, query string, item models.Features) {
	fmt.Fprintf(out, "Running spider: %s\n", spider)
	fmt.Fprintf(out, "Query: %s\n", query)
	if item == nil {
		fmt.Fprintln(out, "Features: none")
	} else {
		fmt.Fprintf(out, "Features: %v\n", map[string]any(item))
	}
}

// execCrawl re-executes this binary as `crawl <spider>`, sharing stdout and stderr.
func execCrawl(ctx context.Context, spider string, args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	c := exec.CommandContext(ctx, exe, append([]string{"crawl", spider}, args...)...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	c.Env = os.Environ()
	return c.Run()
}
