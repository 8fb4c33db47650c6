package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/termscript/termscript"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of termscript",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("termscript version %s\n", termscript.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
