package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/termscript/termscript"
	"github.com/termscript/termscript/service/runner"
	"github.com/termscript/termscript/service/session"
)

var recordCmd = &cobra.Command{
	Use:     "record [dir] [script]...",
	Aliases: []string{"rec"},
	Short:   "Record scripts as asciicasts",
	Long:    `Runs each script inside a recorded shell and writes an asciicast v2 file per script into the destination directory. Existing recordings are never replaced unless --overwrite is set.`,
	Args:    cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRecord(cmd, args); err != nil {
			fail(err)
		}
	},
}

func init() {
	flags := recordCmd.Flags()
	flags.StringSliceP("setup", "s", nil, "Scripts to record beforehand in sequence")
	flags.StringSlice("teardown", nil, "Scripts to record afterwards in sequence")
	flags.BoolP("parallel", "p", false, "Record scripts in parallel")
	flags.IntP("timeout", "t", 5000, "Expect timeout in milliseconds")
	flags.BoolP("echo", "e", false, "Echo terminal output to stdout")
	flags.BoolP("overwrite", "o", false, "Overwrite existing recordings")
	flags.IntP("delay", "d", 75, "Delay between typed keystrokes in milliseconds")
	flags.Float64("deviation", 15.0, "Standard deviation of the typing jitter")
	flags.String("prompt", session.DefaultPrompt, "Prompt presented by the recorded shell")
	flags.String("shell", runner.DefaultShell, "Shell command hosting the recording")
	flags.Bool("type-pragma", false, "Type the pragma command line keystroke by keystroke")
	flags.Int("trim-lines", runner.DefaultTrimLines, "Output events to trim from the end of each recording")
	flags.Int("cols", session.DefaultCols, "Terminal width in columns")
	flags.Int("rows", session.DefaultRows, "Terminal height in rows")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	destDir, locations := args[0], args[1:]
	flags := cmd.Flags()
	setup, _ := flags.GetStringSlice("setup")
	teardown, _ := flags.GetStringSlice("teardown")
	parallel, _ := flags.GetBool("parallel")
	overwrite, _ := flags.GetBool("overwrite")
	options := recordOptions(flags)

	srv, err := newService(cmd)
	if err != nil {
		return err
	}
	ctx := srv.NewContext(cmd.Context())

	all := concat(setup, locations, teardown)
	if err := checkScripts(ctx, srv, all); err != nil {
		return err
	}
	if err := srv.Runtime().CheckRecordings(ctx, all, destDir, overwrite); err != nil {
		return err
	}

	if err := recordGroup(ctx, srv, setup, destDir, 1, overwrite, options); err != nil {
		return err
	}
	width := 1
	if parallel {
		width = len(locations)
	}
	if err := recordGroup(ctx, srv, locations, destDir, width, overwrite, options); err != nil {
		return err
	}
	return recordGroup(ctx, srv, teardown, destDir, 1, overwrite, options)
}

// recordOptions translates record flags into runner options. Flags left at
// their default are skipped so configuration file settings keep applying.
func recordOptions(flags *pflag.FlagSet) []runner.Option {
	var options []runner.Option
	if flags.Changed("timeout") {
		timeout, _ := flags.GetInt("timeout")
		options = append(options, runner.WithTimeout(time.Duration(timeout)*time.Millisecond))
	}
	if flags.Changed("delay") || flags.Changed("deviation") {
		delay, _ := flags.GetInt("delay")
		deviation, _ := flags.GetFloat64("deviation")
		options = append(options, runner.WithTyping(time.Duration(delay)*time.Millisecond, deviation))
	}
	if flags.Changed("prompt") {
		prompt, _ := flags.GetString("prompt")
		options = append(options, runner.WithPrompt(prompt))
	}
	if flags.Changed("shell") {
		shell, _ := flags.GetString("shell")
		options = append(options, runner.WithShell(shell))
	}
	if typePragma, _ := flags.GetBool("type-pragma"); typePragma {
		options = append(options, runner.WithTypePragma())
	}
	if flags.Changed("trim-lines") {
		trim, _ := flags.GetInt("trim-lines")
		options = append(options, runner.WithTrimLines(trim))
	}
	if flags.Changed("cols") || flags.Changed("rows") {
		cols, _ := flags.GetInt("cols")
		rows, _ := flags.GetInt("rows")
		options = append(options, runner.WithSize(cols, rows))
	}
	if echo, _ := flags.GetBool("echo"); echo {
		options = append(options, runner.WithEcho(os.Stdout))
	}
	return options
}

// recordGroup records one group of scripts and reports each outcome. The
// first failure aborts the remainder of the group and everything after it.
func recordGroup(ctx context.Context, srv *termscript.Service, locations []string, destDir string, parallel int, overwrite bool, options []runner.Option) error {
	if len(locations) == 0 {
		return nil
	}
	if parallel <= 1 {
		for _, location := range locations {
			name := scriptName(location)
			info("Rec " + name)
			results, err := srv.RecordScripts(ctx, []string{location}, destDir, 1, overwrite, options...)
			if err != nil {
				return err
			}
			if !results[0].Completed() {
				printBuffer(results[0])
				return results[0].Err()
			}
			success(" Ok " + name)
		}
		return nil
	}
	for _, location := range locations {
		info("Rec " + scriptName(location))
	}
	results, err := srv.RecordScripts(ctx, locations, destDir, parallel, overwrite, options...)
	if err != nil {
		return err
	}
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
		return fmt.Errorf("%d of %d recordings failed", failed, len(results))
	}
	return nil
}
