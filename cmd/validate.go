package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smazurov/audiohal/pkg/coreaudio/simhal"
)

// CreateValidateFixtureCmd creates the validate-fixture command.
func CreateValidateFixtureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-fixture [path]",
		Short: "Check a device fixture file",
		Long:  `Parses a TOML device fixture and checks every device the simulated HAL would build from it.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := simhal.LoadFixture(args[0])
			if err != nil {
				return err
			}
			if _, err := simhal.NewWithFixture(f); err != nil {
				return fmt.Errorf("build HAL: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, d := range f.Devices {
				fmt.Fprintf(out, "ok  %s (%s): %d in, %d out\n", d.UID, d.Name, d.InputChannels, d.OutputChannels)
			}
			fmt.Fprintf(out, "%d devices valid\n", len(f.Devices))
			return nil
		},
	}
}
