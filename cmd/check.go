package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <artist> [album]",
	Short: "Check whether Plex already has albums by an artist",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	client, err := newPlexClient()
	if err != nil {
		return err
	}

	var title string
	if len(args) > 1 {
		title = args[1]
	}

	albums, err := client.FindAlbums(cmd.Context(), args[0], title)
	if err != nil {
		return err
	}
	if len(albums) == 0 {
		fmt.Println("No matching albums in the library.")
		return nil
	}

	rows := make([][]string, 0, len(albums))
	for _, a := range albums {
		year := ""
		if a.Year > 0 {
			year = strconv.Itoa(a.Year)
		}
		rows = append(rows, []string{a.Artist(), a.Title, year, a.RatingKey})
	}
	fmt.Println(renderTable(
		[]string{"Artist", "Album", "Year", "Key"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	))
	return nil
}
