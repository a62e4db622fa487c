package cmd

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/metacore/nftup/pkg/ui"
)

// gatewayLink returns the HTTP gateway URL for cid
func gatewayLink(cid string) string {
	gateway := appConfig.GatewayURL
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return gateway + cid
}

// copyToClipboard copies text, warning instead of failing when no clipboard is available
func copyToClipboard(text, label string) {
	if text == "" {
		return
	}
	if clipboard.Unsupported {
		fmt.Println(ui.FormatWarning("Clipboard not available on this system"))
		return
	}
	if err := clipboard.WriteAll(text); err != nil {
		fmt.Println(ui.FormatWarning("Failed to copy to clipboard: " + err.Error()))
		return
	}
	fmt.Println(ui.FormatSuccess(label + " copied to clipboard"))
}
