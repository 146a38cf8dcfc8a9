package main

import (
	"os"

	"stop_guard/cmd/stop_guard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
