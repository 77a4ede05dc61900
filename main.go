package main

import (
	"os"

	"github.com/scan-io-git/ghss/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
