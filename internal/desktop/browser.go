package desktop

import (
	"io"

	"github.com/pkg/browser"
)

// openURL is swapped in tests.
var openURL = browser.OpenURL

func init() {
	// The opener's own chatter (xdg-open warnings) stays off the launcher's output.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// OpenBrowser opens url with the platform's default handler.
func OpenBrowser(url string) error { return openURL(url) }
