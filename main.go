// Package main is the entry point for the finbridge CLI, which hands financial
// analysis requests to the local analysis engine through a file-exchange bridge.
package main

import (
	"finbridge/cli/cmd"
)

func main() {
	cmd.Execute()
}
