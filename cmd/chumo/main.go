package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersion(version, commit, date)
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
