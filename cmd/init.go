package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metacore/nftup/pkg/config"
	"github.com/metacore/nftup/pkg/ui"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the working directory layout",
	Long: `Create the directories nftup reads from and writes to, and a default
nftup.yaml if none exists:
  - assets/batch_images/ : Collection images named by token id (1.png, 2.png, ...)
  - assets/image/        : The image for single mode
  - output/              : Run results`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	fmt.Println(ui.FormatInfo("Initializing nftup workspace..."))
	fmt.Println()

	if err := appWorkspace.Initialize(); err != nil {
		fmt.Println(ui.FormatError("Failed to initialize workspace"))
		return err
	}

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		if err := config.DefaultConfig().Save(cfgFile); err != nil {
			// Config is optional
			fmt.Println(ui.FormatWarning("Failed to create default config: " + err.Error()))
		} else {
			fmt.Println(ui.FormatSuccess("Default config (" + cfgFile + ") created"))
		}
	} else {
		fmt.Println(ui.FormatMuted("Config already exists: " + cfgFile))
	}

	fmt.Println(ui.FormatSuccess("Workspace initialized successfully!"))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Location", appWorkspace.RootPath))
	fmt.Println()
	fmt.Println(ui.FormatInfo("Next steps:"))
	fmt.Println(ui.FormatMuted("  1. Put PINATA_API_KEY and PINATA_SECRET_KEY in .env"))
	fmt.Println(ui.FormatMuted("  2. Check credentials: nftup test"))
	fmt.Println(ui.FormatMuted("  3. Upload the collection: nftup batch"))

	return nil
}
