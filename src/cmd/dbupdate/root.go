package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var preamble = `dbupdate ` + Version + `
dbupdate is the database updater core of a music library service: it keeps
an in-memory directory tree synchronized with a music directory on disk,
decoding tags and enumerating archive contents as it goes.

dbupdate comes with ABSOLUTELY NO WARRANTY. This is free software, and you
are welcome to redistribute it under certain conditions.`

var rootCmd = &cobra.Command{
	Use:     "dbupdate",
	Short:   "dbupdate music library updater",
	Long:    preamble,
	Version: Version,
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
}
