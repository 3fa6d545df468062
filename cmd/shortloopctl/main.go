// Command shortloopctl is a small admin client for the shortloop HTTP API.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:          "shortloopctl",
	Short:        "Admin client for the shortloop URL shortening service.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s",
		"http://localhost:8080", "base URL of the shortloop server")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// apiResponse mirrors the envelope returned by every API endpoint.
type apiResponse struct {
	Status  string          `json:"status"`
	Code    string          `json:"code,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func doRequest(method, path string, body io.Reader) (*apiResponse, error) {
	req, err := http.NewRequest(method, serverURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode server response: %w", err)
	}

	if out.Status != "success" {
		if out.Code != "" {
			return nil, fmt.Errorf("%s (%s)", out.Message, out.Code)
		}
		return nil, fmt.Errorf("%s", out.Message)
	}

	return &out, nil
}
