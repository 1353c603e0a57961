package main

import (
	"embed"
	"os"

	"github.com/msalah0e/ontoview/cmd"
)

//go:embed sample/*.owl
var sampleFS embed.FS

func main() {
	cmd.SetSampleFS(sampleFS)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
