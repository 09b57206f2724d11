package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/audiolibrelab/mictape/internal/audio"
	"github.com/audiolibrelab/mictape/internal/service"

	"github.com/spf13/cobra"
)

var (
	recordFadeOut bool
	recordOutput  string
)

var recordCmd = &cobra.Command{
	Use:   "record [title]",
	Short: "Record from the configured capture device",
	Long: `Record from the configured capture device into the output directory.
The title becomes the output filename and the ID3 title tag.
Press Ctrl+C to stop; with --fade the recording fades out instead of
cutting off.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := args[0]

		if recordOutput != "" {
			cfg.Output.Directory = recordOutput
		}

		backend, err := audio.NewMalgoBackend()
		if err != nil {
			return fmt.Errorf("failed to initialize audio backend: %w", err)
		}
		defer backend.Close()

		svc := service.New(cfg, backend)

		if err := svc.StartRecording(title); err != nil {
			return err
		}

		slog.Info("Recording... Press Ctrl+C to stop", "fade_out", recordFadeOut)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		done := svc.Done()
		select {
		case <-sigChan:
			slog.Info("Stopping recording...")
			svc.StopRecording(recordFadeOut)
			<-done
		case <-done:
			// Device error ended the recording on its own.
			slog.Warn("recording ended by the capture device")
		}

		return nil
	},
}

func init() {
	recordCmd.Flags().BoolVarP(&recordFadeOut, "fade", "f", false, "fade the recording out instead of stopping immediately")
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "", "output directory (overrides config)")
}
