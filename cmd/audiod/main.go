// Command audiod runs the call audio coordinator.
//
// Usage:
//
//	audiod serve              run the HTTP/websocket service
//	audiod replay -f s.yaml   run a scenario against recorded hardware
//	audiod token --role user  mint an access token for local testing
//
// Configuration comes from the environment; see internal/config.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "audiod",
	Short: "Call audio focus, mode and route coordinator",
	Long: `audiod coordinates audio focus, audio mode and the physical audio route
for the calls tracked by a telephony stack.

Examples:
  # Run the service with a device profile
  AUDIO_DEVICE_PROFILE=device.ini JWT_SECRET=dev audiod serve

  # Replay a scenario and print every hardware command
  audiod replay -f scenarios/incoming.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
