// ABOUTME: Entry point for the workly CLI and MCP server
// ABOUTME: Runs the cobra command tree and exits non-zero on error
package main

import (
	"fmt"
	"os"

	"github.com/harperreed/workly/cli"
)

const version = "0.1.0"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
