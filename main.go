package main

import (
	"os"

	"github.com/scan-io-git/scanio-correlator/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
