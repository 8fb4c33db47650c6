package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/termscript/termscript"
	"github.com/termscript/termscript/service/runner"
)

var runCmd = &cobra.Command{
	Use:   "run [script]...",
	Short: "Run scripts",
	Long:  `Runs each script in a pseudo-terminal, driving it directive by directive. Setup and teardown scripts always run in sequence; teardown only runs when everything before it succeeded.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRun(cmd, args); err != nil {
			fail(err)
		}
	},
}

func init() {
	flags := runCmd.Flags()
	flags.StringSliceP("setup", "s", nil, "Scripts to run beforehand in sequence")
	flags.StringSlice("teardown", nil, "Scripts to run afterwards in sequence")
	flags.BoolP("parallel", "p", false, "Run scripts in parallel")
	flags.IntP("timeout", "t", 5000, "Expect timeout in milliseconds")
	flags.BoolP("echo", "e", false, "Echo terminal output to stdout")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	setup, _ := flags.GetStringSlice("setup")
	teardown, _ := flags.GetStringSlice("teardown")
	parallel, _ := flags.GetBool("parallel")

	var options []runner.Option
	if flags.Changed("timeout") {
		timeout, _ := flags.GetInt("timeout")
		options = append(options, runner.WithTimeout(time.Duration(timeout)*time.Millisecond))
	}
	if echo, _ := flags.GetBool("echo"); echo {
		options = append(options, runner.WithEcho(os.Stdout))
	}

	srv, err := newService(cmd)
	if err != nil {
		return err
	}
	ctx := srv.NewContext(cmd.Context())

	all := concat(setup, args, teardown)
	if err := checkScripts(ctx, srv, all); err != nil {
		return err
	}

	if err := runGroup(ctx, srv, setup, 1, options); err != nil {
		return err
	}
	width := 1
	if parallel {
		width = len(args)
	}
	if err := runGroup(ctx, srv, args, width, options); err != nil {
		return err
	}
	return runGroup(ctx, srv, teardown, 1, options)
}

// runGroup executes one group of scripts and reports each outcome. The first
// failure aborts the remainder of the group and everything after it.
func runGroup(ctx context.Context, srv *termscript.Service, locations []string, parallel int, options []runner.Option) error {
	if len(locations) == 0 {
		return nil
	}
	if parallel <= 1 {
		for _, location := range locations {
			name := scriptName(location)
			info("Run " + name)
			result := srv.RunScript(ctx, location, options...)
			if !result.Completed() {
				printBuffer(result)
				return result.Err()
			}
			success(" Ok " + name)
		}
		return nil
	}
	for _, location := range locations {
		info("Run " + scriptName(location))
	}
	results := srv.RunScripts(ctx, locations, parallel, options...)
	var failed int
	for _, result := range results {
		if result.Completed() {
			success(" Ok " + scriptName(result.Script))
			continue
		}
		failed++
		printError(result.Err().Error())
		printBuffer(result)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(results))
	}
	return nil
}

// concat joins script groups in execution order.
func concat(groups ...[]string) []string {
	var all []string
	for _, group := range groups {
		all = append(all, group...)
	}
	return all
}
