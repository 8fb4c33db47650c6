package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/termscript/termscript"
	"github.com/termscript/termscript/service/runner"
)

const tick = "✓"

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

var rootCmd = &cobra.Command{
	Use:   "termscript",
	Short: "Termscript drives interactive terminal sessions from annotated shell scripts",
	Long: `Termscript executes plain shell scripts annotated with #$ directives
(sendline, expect, regex, sleep, ...) against a real pseudo-terminal, and can
record every run as an asciicast for playback with asciinema.`,
	Version: termscript.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Engine configuration file (YAML)")
	rootCmd.PersistentFlags().String("trace", "", "Write OpenTelemetry spans to this file, '-' for stdout")
}

// newService builds the engine from the persistent flags plus any extra
// options.
func newService(cmd *cobra.Command, extra ...termscript.Option) (*termscript.Service, error) {
	var options []termscript.Option
	if configURL, _ := cmd.Flags().GetString("config"); configURL != "" {
		config, err := termscript.LoadConfig(cmd.Context(), configURL)
		if err != nil {
			return nil, err
		}
		options = append(options, termscript.WithConfig(config))
	}
	if trace, _ := cmd.Flags().GetString("trace"); trace != "" {
		if trace == "-" {
			trace = ""
		}
		options = append(options, termscript.WithTracing("termscript", termscript.Version, trace))
	}
	options = append(options, extra...)
	return termscript.New(options...), nil
}

// checkScripts loads every script up front so a suite with a broken or
// missing member fails before anything runs.
func checkScripts(ctx context.Context, srv *termscript.Service, locations []string) error {
	for _, location := range locations {
		if _, err := srv.LoadScript(ctx, location); err != nil {
			return err
		}
	}
	return nil
}

// fail prints an error message and terminates with a non-zero exit code.
func fail(err error) {
	printError(err.Error())
	os.Exit(1)
}

func success(msg string) {
	fmt.Println(successStyle.Render(msg + " " + tick))
}

func info(msg string) {
	fmt.Println(infoStyle.Render(msg))
}

func printError(msg string) {
	fmt.Println(errorStyle.Render("Err") + " " + msg)
}

// printBuffer shows the terminal output retained at failure time, so an
// unmatched expect can be debugged without re-running interactively.
func printBuffer(result *runner.Result) {
	if result == nil || result.Buffer == "" {
		return
	}
	fmt.Println(infoStyle.Render("Last output:"))
	fmt.Println(strings.TrimRight(result.Buffer, "\r\n"))
}

func scriptName(location string) string {
	return path.Base(location)
}
