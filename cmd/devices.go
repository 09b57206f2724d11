package cmd

import (
	"fmt"

	"github.com/audiolibrelab/mictape/internal/audio"

	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available capture devices",
	Long:  `List all capture devices currently reported by the host audio API, with the index to use as audio.device_index.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := audio.NewMalgoBackend()
		if err != nil {
			return fmt.Errorf("failed to initialize audio backend: %w", err)
		}
		defer backend.Close()

		devices, err := backend.Devices()
		if err != nil {
			return fmt.Errorf("failed to list capture devices: %w", err)
		}

		if len(devices) == 0 {
			fmt.Println("No capture devices found.")
			return nil
		}

		fmt.Printf("Capture devices (%d found):\n", len(devices))
		for _, d := range devices {
			fmt.Printf("  %d. %s\n", d.Index, d.Name)
		}

		return nil
	},
}
