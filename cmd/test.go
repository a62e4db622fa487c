package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metacore/nftup/pkg/config"
	"github.com/metacore/nftup/pkg/ui"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that the pinning service accepts the configured credentials",
	Args:  cobra.NoArgs,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	if appConfig.Pinner == config.PinnerCar {
		fmt.Println(ui.FormatInfo("Offline mode: CAR archives are written to " + appWorkspace.Resolve(appConfig.Car.OutputDir)))
	}

	if err := authenticate(cmd.Context()); err != nil {
		return err
	}

	fmt.Println(ui.FormatSuccess(appConfig.Pinner + " authentication successful!"))
	return nil
}
