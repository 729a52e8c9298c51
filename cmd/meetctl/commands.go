package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/meeting-assistant/internal/client"
	"github.com/codebuildervaibhav/meeting-assistant/internal/config"
	"github.com/codebuildervaibhav/meeting-assistant/internal/minutes"
	"github.com/codebuildervaibhav/meeting-assistant/internal/storage"
	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

func newTranscribeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Upload a recording and optionally wait for its transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := newClient(cmd)
			resp, err := api.Submit(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			wait, _ := cmd.Flags().GetBool("wait")
			if !wait {
				fmt.Fprintln(cmd.OutOrStdout(), resp.TaskID)
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Task %s submitted, waiting for transcription...\n", resp.TaskID)
			return waitAndPrint(cmd, api, resp.TaskID)
		},
	}
	c.Flags().Bool("wait", false, "poll until the transcription finishes and print it")
	c.Flags().Duration("interval", client.DefaultPollInterval, "polling interval")
	c.Flags().Duration("max-wait", client.DefaultPollTimeout, "give up polling after this long")
	return c
}

func waitAndPrint(cmd *cobra.Command, api *client.Client, taskID string) error {
	interval, _ := cmd.Flags().GetDuration("interval")
	maxWait, _ := cmd.Flags().GetDuration("max-wait")

	status, err := api.Wait(cmd.Context(), taskID, interval, maxWait)
	if errors.Is(err, client.ErrPollTimeout) {
		return fmt.Errorf("transcription timed out, check the server or try 'meetctl status %s' later", taskID)
	}
	if err != nil {
		return err
	}
	return printStatus(cmd, status)
}

func printStatus(cmd *cobra.Command, status client.StatusResponse) error {
	switch status.Status {
	case types.StatusCompleted:
		if status.Transcription != nil {
			fmt.Fprintln(cmd.OutOrStdout(), *status.Transcription)
		}
		return nil
	case types.StatusFailed:
		detail := "Unknown transcription error"
		if status.Error != nil {
			detail = *status.Error
		}
		return fmt.Errorf("transcription failed: %s", detail)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", status.Status)
		return nil
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the task status, and the transcript once completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := newClient(cmd).Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printStatus(cmd, status)
		},
	}
}

func completedTranscript(cmd *cobra.Command, api *client.Client, taskID string) (string, error) {
	status, err := api.Status(cmd.Context(), taskID)
	if err != nil {
		return "", err
	}
	if status.Status != types.StatusCompleted || status.Transcription == nil {
		return "", fmt.Errorf("task %s is %s, not COMPLETED", taskID, status.Status)
	}
	return *status.Transcription, nil
}

func newSpeakersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "speakers <task-id>",
		Short: "List the speaker labels found in a completed transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transcript, err := completedTranscript(cmd, newClient(cmd), args[0])
			if err != nil {
				return err
			}
			for _, label := range minutes.SpeakerLabels(transcript) {
				fmt.Fprintln(cmd.OutOrStdout(), label)
			}
			return nil
		},
	}
}

func newMinutesCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "minutes <task-id>",
		Short: "Generate meeting minutes from a completed transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := newClient(cmd)
			transcript, err := completedTranscript(cmd, api, args[0])
			if err != nil {
				return err
			}

			pairs, _ := cmd.Flags().GetStringArray("name")
			names, err := parseNames(pairs)
			if err != nil {
				return err
			}

			var info minutes.MeetingInfo
			info.Topic, _ = cmd.Flags().GetString("topic")
			info.Date, _ = cmd.Flags().GetString("date")
			info.Time, _ = cmd.Flags().GetString("time")
			info.Location, _ = cmd.Flags().GetString("location")

			res, err := api.Minutes(cmd.Context(), minutes.Request{
				Transcription: transcript,
				SpeakerNames:  names,
				Meeting:       info,
			})
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("output")
			switch out {
			case "":
				fmt.Fprintln(cmd.OutOrStdout(), res.Minutes)
				return nil
			case ".":
				out = res.Filename
			}
			if err := os.WriteFile(out, []byte(res.Minutes), 0644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Meeting minutes written to %s\n", out)
			return nil
		},
	}
	c.Flags().String("topic", "", "meeting topic")
	c.Flags().String("date", time.Now().Format("2006-01-02"), "meeting date (YYYY-MM-DD)")
	c.Flags().String("time", time.Now().Format("15:04"), "meeting time (HH:MM)")
	c.Flags().String("location", "", "meeting location")
	c.Flags().StringArray("name", nil, `speaker display name, e.g. --name "Speaker 0=Alice" (repeatable)`)
	c.Flags().StringP("output", "o", "", "write the minutes to this file; '.' uses the suggested file name")
	return c
}

func newDriveAuthCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "drive-auth",
		Short: "Authorize Google Drive uploads and store the OAuth token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if err := storage.AuthorizeDrive(cmd.Context(),
				cfg.GoogleDrive.CredentialsFile,
				cfg.GoogleDrive.TokenFile,
				cmd.InOrStdin(), cmd.OutOrStdout(),
			); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", cfg.GoogleDrive.TokenFile)
			return nil
		},
	}
	c.Flags().String("config", "config/config.yaml", "server configuration file")
	return c
}
