package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Shorten a URL.",
	Long: `Shorten a URL, optionally under a custom alias and with an expiry time.

Example:
  shortloopctl create --url="https://example.com/some/long/path" --alias=docs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		originalURL, _ := cmd.Flags().GetString("url")
		alias, _ := cmd.Flags().GetString("alias")
		expires, _ := cmd.Flags().GetString("expires")

		payload := map[string]any{"url": originalURL}
		if alias != "" {
			payload["custom_alias"] = alias
		}
		if expires != "" {
			expiresAt, err := time.Parse(time.RFC3339, expires)
			if err != nil {
				return fmt.Errorf("invalid --expires value, want RFC3339: %w", err)
			}
			payload["expires_at"] = expiresAt
		}

		body, err := json.Marshal(payload)
		if err != nil {
			return err
		}

		resp, err := doRequest("POST", "/api/v1/shorten", bytes.NewReader(body))
		if err != nil {
			return err
		}

		var data struct {
			ShortCode string     `json:"short_code"`
			ShortURL  string     `json:"short_url"`
			URL       string     `json:"url"`
			CreatedAt time.Time  `json:"created_at"`
			ExpiresAt *time.Time `json:"expires_at"`
		}
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return err
		}

		fmt.Printf("Short code: %s\n", data.ShortCode)
		fmt.Printf("Short URL:  %s\n", data.ShortURL)
		fmt.Printf("Target:     %s\n", data.URL)
		fmt.Printf("Created at: %s\n", data.CreatedAt.Format(time.RFC3339))
		if data.ExpiresAt != nil {
			fmt.Printf("Expires at: %s\n", data.ExpiresAt.Format(time.RFC3339))
		}

		return nil
	},
}

func init() {
	createCmd.Flags().StringP("url", "u", "", "URL to shorten")
	createCmd.Flags().StringP("alias", "a", "", "custom alias for the short code")
	createCmd.Flags().StringP("expires", "e", "", "expiry time in RFC3339 format")
	createCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(createCmd)
}
