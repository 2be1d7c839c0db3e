package main

import (
	"os"

	"moviebook-cli/cmd"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(cmd.Execute(version, commit))
}
