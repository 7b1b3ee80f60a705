package main

import (
	_ "time/tzdata"

	"github.com/printwatch/printwatch/cli"
)

func main() {
	var rootCmd cli.RootCmd
	rootCmd.Main()
}
