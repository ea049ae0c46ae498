package cmd

import (
	"fmt"
	"os"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

// portEnv names the SPI port the integration tests open, empty picks the
// first one periph registers.
const portEnv = "ADXL345_SPI_PORT"

func TestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run unit tests, hardware is replaced by the simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Test(); err != nil {
				return fmt.Errorf("unit tests failed: %w", err)
			}
			return nil
		},
	}
}

func LintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Run linters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Lint(); err != nil {
				return fmt.Errorf("lint failed: %w", err)
			}
			return nil
		},
	}
}

func IntegrationTestCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "integration-test",
		Short: "Run integration tests against a wired ADXL345 lying at rest",
		Long: "Runs the integration tagged tests on the target board. The device must be " +
			"wired to the given SPI port and lie still, the tests check for 1g of gravity.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				if err := os.Setenv(portEnv, port); err != nil {
					return fmt.Errorf("could not set %s: %w", portEnv, err)
				}
			}
			cmd.Printf("testing on spi port %q\n", os.Getenv(portEnv))
			if err := test.Integ(); err != nil {
				return fmt.Errorf("integration tests failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", os.Getenv(portEnv), "SPI port of the device, e.g. /dev/spidev0.0 or SPI0.0")
	return cmd
}
