package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/meeting-assistant/internal/client"
)

const defaultServerURL = "http://localhost:8401"

func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("server", "", "server URL (env MEETCTL_SERVER, default "+defaultServerURL+")")
	cmd.PersistentFlags().Duration("http-timeout", 60*time.Second, "timeout of a single HTTP request")
}

// serverURL resolves the server: flag > MEETCTL_SERVER > BACKEND_API_URL:APP_PORT_BACKEND > default
func serverURL(cmd *cobra.Command, getenv func(string) string) string {
	if v, _ := cmd.Flags().GetString("server"); v != "" {
		return v
	}
	if v := getenv("MEETCTL_SERVER"); v != "" {
		return v
	}
	if host, port := getenv("BACKEND_API_URL"), getenv("APP_PORT_BACKEND"); host != "" && port != "" {
		host = strings.Trim(host, "/")
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		return fmt.Sprintf("%s:%s", host, port)
	}
	return defaultServerURL
}

func newClient(cmd *cobra.Command) *client.Client {
	timeout, _ := cmd.Flags().GetDuration("http-timeout")
	return client.New(serverURL(cmd, os.Getenv), timeout)
}

// parseNames turns repeated "Speaker 0=Alice" flags into a label mapping
func parseNames(pairs []string) (map[string]string, error) {
	names := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		label, name, ok := strings.Cut(pair, "=")
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			return nil, fmt.Errorf("invalid --name %q, expected \"Speaker 0=Alice\"", pair)
		}
		names[label] = strings.TrimSpace(name)
	}
	return names, nil
}
