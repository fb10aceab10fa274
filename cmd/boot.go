package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"wellkernel/config"
)

var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Generate a default boot configuration",
	Long:  `Generate a default boot configuration (domain schedule and thread specs) to stdout.`,
	Args:  cobra.NoArgs,
	RunE:  runBoot,
}

func init() {
	rootCmd.AddCommand(bootCmd)
}

func runBoot(cmd *cobra.Command, args []string) error {
	boot := config.DefaultBoot()

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(boot)
}
