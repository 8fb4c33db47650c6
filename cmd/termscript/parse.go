package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [script]...",
	Short: "Parse scripts and print their directives",
	Long:  `Loads each script, expands includes and prints the resulting directives in canonical form without running anything.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runParse(cmd, args); err != nil {
			fail(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	srv, err := newService(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	for _, location := range args {
		name := scriptName(location)
		info("Parse " + name)
		script, err := srv.LoadScript(ctx, location)
		if err != nil {
			return err
		}
		for _, directive := range script.Directives {
			fmt.Println(directive.String())
		}
		success("   Ok " + name)
	}
	return nil
}
