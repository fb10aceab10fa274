package cmd

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"wellkernel/config"
	"wellkernel/kernel"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Output the kernel's scheduler/object-table state",
	Long:  `Boot the kernel from the configured boot file and dump its state snapshot as JSON.`,
	Args:  cobra.NoArgs,
	RunE:  runState,
}

func init() {
	rootCmd.AddCommand(stateCmd)
}

func runState(cmd *cobra.Command, args []string) error {
	boot, err := config.LoadBoot(GetBootPath())
	if errors.Is(err, os.ErrNotExist) && globalBoot == "" {
		boot = config.DefaultBoot()
	} else if err != nil {
		return err
	}

	k, err := kernel.New(boot)
	if err != nil {
		return err
	}

	snap := k.Snapshot()

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snap)
}
