package main

import (
	"os"

	"facility-intake-backend/internal/recovercli"
)

func main() {
	if err := recovercli.Execute(); err != nil {
		os.Exit(1)
	}
}
