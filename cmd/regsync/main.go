// Command regsync imports the data protection public register into
// PostgreSQL and serves it over REST, MCP and the command line.
package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/regsync/internal/core"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errorText(err))
		os.Exit(1)
	}
}

// errorText returns the user message for errors core knows how to map.
// Anything else, such as config and usage errors, is shown as is.
func errorText(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}
