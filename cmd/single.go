package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/metacore/nftup/internal/core/services"
	"github.com/metacore/nftup/pkg/ui"
)

var (
	singleTokenID uint64
	singleCopy    bool
)

// singleCmd represents the single command
var singleCmd = &cobra.Command{
	Use:   "single",
	Short: "Upload one image and its metadata",
	Long: `Upload the first image in assets/image, generate a metadata record that
points at the image CID, upload that record and save the results under
output/single-upload-<timestamp>/.`,
	Args: cobra.NoArgs,
	RunE: runSingle,
}

func init() {
	singleCmd.Flags().Uint64Var(&singleTokenID, "token-id", services.DefaultTokenID, "Token ID for the NFT")
	singleCmd.Flags().BoolVar(&singleCopy, "copy", false, "Copy the token URI to the clipboard")
}

func runSingle(cmd *cobra.Command, args []string) error {
	fmt.Println(ui.FormatUpload("Starting single file upload (" + appConfig.Pinner + ")..."))

	var req services.SingleRequest
	if cmd.Flags().Changed("token-id") {
		id := singleTokenID
		req.TokenID = &id
	}

	resp, err := singleService.Execute(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("single file processing failed: %w", err)
	}

	r := resp.Record
	summary := ui.Summary{Title: "Single File Processed"}
	summary.AddRow("Run ID", r.RunID)
	summary.AddRow("Image", resp.ImagePath)
	if r.TokenID != nil {
		summary.AddRow("Token ID", strconv.FormatUint(*r.TokenID, 10))
	}
	summary.AddRow("Results", resp.RunDir)
	summary.Links = []string{gatewayLink(r.ImageCID), gatewayLink(r.MetadataCID)}

	fmt.Println()
	fmt.Println(ui.FormatStage("image", stageWidth, r.ImageCID))
	fmt.Println(ui.FormatStage("metadata", stageWidth, r.MetadataCID))
	fmt.Println()
	fmt.Println(ui.FormatSuccess("Single file process completed"))
	fmt.Println()
	fmt.Print(summary.Render())
	fmt.Println()
	fmt.Println(ui.FormatInfo("Set the token URI in the contract to: " + ui.FormatURI(resp.TokenURI())))

	if singleCopy {
		copyToClipboard(resp.TokenURI(), "Token URI")
	}
	return nil
}
