// Command modelsetup discovers models installed by ollama and writes the
// models.json manifest used by the chat client when no model path is given.
package main

import (
	"fmt"
	"os"

	"modelsetup/internal/discover"
)

func main() {
	root := buildRootCmd(os.Stdout)
	if err := root.Execute(); err != nil {
		if !alreadyReported(err) {
			fmt.Fprintln(os.Stdout, "error:", err.Error())
		}
		os.Exit(1)
	}
}

// alreadyReported is true for errors the pipeline has logged itself.
func alreadyReported(err error) bool {
	return discover.IsNoModels(err) || discover.IsNoResolvedModels(err)
}
