package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/metacore/nftup/internal/core/services"
	"github.com/metacore/nftup/pkg/ui"
)

// Width of the stage name column in completion lines
const stageWidth = 17

var (
	batchBothVersions bool
	batchCopy         bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Upload the image collection and its metadata",
	Long: `Upload every image in assets/batch_images as one IPFS folder, generate a
metadata file per image pointing at it, upload the metadata folder and save
the results under output/batch-upload-<timestamp>/.

Image filenames must be token ids: 1.png, 2.png, ...`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().BoolVar(&batchBothVersions, "both-versions", false, "Upload metadata both with and without the .json suffix")
	batchCmd.Flags().BoolVar(&batchCopy, "copy", false, "Copy the contract base URI to the clipboard")
}

func runBatch(cmd *cobra.Command, args []string) error {
	fmt.Println(ui.FormatUpload("Starting batch NFT collection upload (" + appConfig.Pinner + ")..."))

	resp, err := batchService.Execute(cmd.Context(), services.BatchRequest{BothVersions: batchBothVersions})
	if err != nil {
		return fmt.Errorf("batch processing failed: %w", err)
	}

	printBatchSummary(resp)

	if batchCopy {
		copyBaseURI(resp)
	}
	return nil
}

func printBatchSummary(resp *services.BatchResponse) {
	r := resp.Record

	summary := ui.Summary{Title: "Batch Collection Processed"}
	summary.AddRow("Run ID", r.RunID)
	summary.AddRow("Total files", strconv.Itoa(r.TotalFiles))
	summary.AddRow("Results", resp.RunDir)
	summary.Links = []string{gatewayLink(r.ImagesCID) + "/"}

	fmt.Println()
	fmt.Println(ui.FormatStage("images", stageWidth, r.ImagesCID))
	if r.MetadataWithSuffixCID != "" {
		fmt.Println(ui.FormatStage("metadata (suffix)", stageWidth, r.MetadataWithSuffixCID))
	}
	if r.MetadataWithoutSuffixCID != "" {
		fmt.Println(ui.FormatStage("metadata", stageWidth, r.MetadataWithoutSuffixCID))
	}
	fmt.Println()
	fmt.Println(ui.FormatSuccess("Batch process completed"))
	fmt.Println()
	fmt.Print(summary.Render())

	uris := resp.BaseURIs()
	table := ui.NewTable([]ui.TableColumn{
		{Header: "METADATA"},
		{Header: "BASE URI"},
	})
	for _, variant := range []string{"with-suffix", "without-suffix"} {
		if uri, ok := uris[variant]; ok {
			table.AddRow([]string{variant, uri})
		}
	}
	fmt.Println()
	fmt.Println(ui.FormatInfo("Set the contract base URI to:"))
	fmt.Print(table.Render())
	fmt.Println(ui.FormatMuted("README: " + filepath.Join(resp.RunDir, services.ReadmeFileName)))
}

// copyBaseURI prefers the unsuffixed base URI, which is what most contracts expect
func copyBaseURI(resp *services.BatchResponse) {
	uris := resp.BaseURIs()
	uri, ok := uris["without-suffix"]
	if !ok {
		uri = uris["with-suffix"]
	}
	copyToClipboard(uri, "Base URI")
}
