// Command cocoprune removes categories and their annotations from a
// COCO-format annotation file.
package main

import (
	"os"

	"github.com/Iron-Ham/cocoprune/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
