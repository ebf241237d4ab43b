package main

import (
	"os"

	"github.com/yilmaz/voxa/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
