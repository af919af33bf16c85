// The main package for the hotstar-crawler executable.
package main

import (
	"github.com/streamcat/hotstar-crawler/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
