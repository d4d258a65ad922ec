package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/s0up4200/cratedigger/filter"
)

var (
	searchFilter string
	searchAll    bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Run a search on every qBittorrent client",
	Long: `Run a search plugin query on every configured qBittorrent client and print the
merged results. Results go through search.filter unless --all or --filter is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchFilter, "filter", "f", "", "filter expression (overrides search.filter)")
	searchCmd.Flags().BoolVar(&searchAll, "all", false, "show unfiltered results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	expr := cfg.Search.Filter
	if searchFilter != "" {
		expr = searchFilter
	}
	if searchAll {
		expr = ""
	}
	f, err := filter.CompileFilter(expr)
	if err != nil {
		return fmt.Errorf("invalid filter expression: %w", err)
	}

	pool, err := connectPool(ctx)
	if err != nil {
		return err
	}

	logger.Info().Str("query", args[0]).Str("filter", expr).Msg("Searching")

	results, err := pool.Search(ctx, args[0])
	if err != nil {
		return err
	}
	kept := filter.Apply(f, results)

	if len(kept) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	rows := make([][]string, 0, len(kept))
	for _, r := range kept {
		size := "?"
		if mb := r.SizeMB(); mb >= 0 {
			size = fmt.Sprintf("%.0f MB", mb)
		}
		rows = append(rows, []string{
			r.Name,
			size,
			strconv.Itoa(r.Seeders),
			strconv.Itoa(r.Leechers),
			r.Client,
		})
	}

	fmt.Println(renderTable(
		[]string{"Name", "Size", "Seeders", "Leechers", "Client"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
	fmt.Printf("%d of %d results shown\n", len(kept), len(results))
	return nil
}
