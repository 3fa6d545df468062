package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <short-code>",
	Short: "Show click statistics for a short code.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := doRequest("GET", "/api/v1/shorten/"+args[0]+"/stats", nil)
		if err != nil {
			return err
		}

		var data struct {
			ShortCode    string     `json:"short_code"`
			URL          string     `json:"url"`
			ClickCount   int64      `json:"click_count"`
			CreatedAt    time.Time  `json:"created_at"`
			LastAccessed *time.Time `json:"last_accessed"`
		}
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return err
		}

		fmt.Printf("Short code:    %s\n", data.ShortCode)
		fmt.Printf("Target:        %s\n", data.URL)
		fmt.Printf("Clicks:        %d\n", data.ClickCount)
		fmt.Printf("Created at:    %s\n", data.CreatedAt.Format(time.RFC3339))
		if data.LastAccessed != nil {
			fmt.Printf("Last accessed: %s\n", data.LastAccessed.Format(time.RFC3339))
		} else {
			fmt.Println("Last accessed: never")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
