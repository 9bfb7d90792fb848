package main

import (
	"fmt"

	"github.com/loganross/coffer/internal/models"
)

func cliProgress(vault string) func(models.Progress) {
	return func(p models.Progress) {
		if jsonOutput {
			return
		}
		fmt.Printf("\r%s: %d/%d %s", vault, p.FilesDone, p.Total, p.CurrentRel)
		if p.FilesDone == p.Total {
			fmt.Println()
		}
	}
}
