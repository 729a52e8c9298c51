package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "meetctl",
		Short:         "meetctl - command line client for the meeting transcription server",
		Long:          "Submits recordings, waits for speaker-segmented transcripts and generates meeting minutes.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(newTranscribeCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newSpeakersCmd())
	rootCmd.AddCommand(newMinutesCmd())
	rootCmd.AddCommand(newDriveAuthCmd())
	return rootCmd
}
