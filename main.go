package main

import (
	"os"

	"github.com/mindspark-app/mindspark/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
