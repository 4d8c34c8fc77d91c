package main

import (
	"os"

	"github.com/hrglue/sharepoint-list-sync/cmd/sharepoint-list-sync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
