package main

import (
	"os"

	"github.com/repotriage/repotriage/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
