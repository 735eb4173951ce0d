package main

import (
	"os"

	"github.com/getcharzp/go-ppocr/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
