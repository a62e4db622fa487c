package cmd

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/spf13/cobra"

	"github.com/metacore/nftup/pkg/ui"
)

// pinCmd represents the pin command
var pinCmd = &cobra.Command{
	Use:   "pin <cid>",
	Short: "Pin existing content by CID (not implemented yet)",
	Args:  cobra.ExactArgs(1),
	RunE:  runPin,
}

func runPin(cmd *cobra.Command, args []string) error {
	c, err := cid.Decode(args[0])
	if err != nil {
		return fmt.Errorf("invalid CID %q: %w", args[0], err)
	}

	fmt.Println(ui.RenderKeyValue("CID", c.String()))
	fmt.Println(ui.RenderKeyValue("Version", fmt.Sprintf("v%d", c.Version())))
	fmt.Println(ui.FormatWarning("This command is not implemented yet"))
	return nil
}
