package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metacore/nftup/pkg/ui"
)

// queueCmd represents the queue command
var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Check pin queue status (not implemented yet)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(ui.FormatWarning("This command is not implemented yet"))
	},
}
