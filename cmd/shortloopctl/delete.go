package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <short-code>",
	Short: "Deactivate a short code.",
	Long: `Deactivate a short code. The record is kept for accounting, but the
code stops resolving and cannot be reactivated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := doRequest("DELETE", "/api/v1/shorten/"+args[0], nil)
		if err != nil {
			return err
		}

		fmt.Println(resp.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
