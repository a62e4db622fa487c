package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metacore/nftup/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long: `Print the configuration after applying nftup.yaml, the .env file and the
environment. Credentials are masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := appConfig.Masked().Marshal()
		if err != nil {
			return err
		}

		suffix, warnings := appConfig.Resolve()
		for _, w := range warnings {
			fmt.Println(ui.FormatWarning(w))
		}

		fmt.Println(ui.FormatInfo("Config file: " + cfgFile))
		fmt.Println(ui.RenderKeyValue("Effective metadata suffix", fmt.Sprintf("%q", suffix)))
		fmt.Println()
		fmt.Print(string(data))
		return nil
	},
}
