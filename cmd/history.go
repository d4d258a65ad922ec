package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/cratedigger/history"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [term]",
	Short: "List torrents added by earlier runs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of records")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled (history.enabled: false)")
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	var records []history.Record
	if len(args) == 1 {
		records, err = store.Search(cmd.Context(), args[0], historyLimit)
	} else {
		records, err = store.Recent(cmd.Context(), historyLimit)
	}
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Printf("No history yet in %s.\n", store.Path())
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		name := r.Name
		if r.DryRun {
			name += " [dry run]"
		}
		rows = append(rows, []string{
			r.CreatedAt.Local().Format(time.DateTime),
			name,
			r.Category,
			r.Client,
			r.Query,
		})
	}
	fmt.Println(renderTable(
		[]string{"Added", "Name", "Category", "Client", "Query"},
		rows,
		nil,
	))
	return nil
}
