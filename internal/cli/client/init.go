package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func InitCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure the yojana CLI",
		Long:  "Writes the API base URL to the global config file and checks that the server is reachable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runInit(apiURL, outputJSON)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL (default: http://localhost:8080)")

	return cmd
}

func runInit(apiURL string, outputJSON bool) error {
	_ = godotenv.Load()
	if apiURL == "" {
		apiURL = os.Getenv(envAPIURL)
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	if err := SaveGlobalConfig(&GlobalConfig{APIURL: apiURL}); err != nil {
		return err
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	api, err := NewAPIClientWithConfig(apiURL)
	if err != nil {
		return err
	}

	reachable := true
	var serverStatus string
	if resp, err := api.Get("/health"); err != nil {
		reachable = false
	} else {
		var health HealthAPIResponse
		if err := json.Unmarshal(resp.Data, &health); err == nil {
			serverStatus = health.Status
		}
	}

	if outputJSON {
		result := map[string]interface{}{
			"success":   true,
			"api_url":   apiURL,
			"config":    configPath,
			"reachable": reachable,
		}
		if serverStatus != "" {
			result["server_status"] = serverStatus
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("API URL: %s\n", apiURL)
	fmt.Printf("Config saved to %s\n", configPath)
	if reachable {
		fmt.Printf("Server status: %s\n", serverStatus)
	} else {
		fmt.Println("Warning: server is not reachable (start it with 'yojanad serve')")
	}

	return nil
}
