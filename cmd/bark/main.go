package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kylerbrown/bark/config"
)

type app struct {
	args   []string
	stdout io.Writer
	stderr io.Writer
	config config.Config
}

type command interface {
	Name() string
	Help() string
	Register(*flag.FlagSet)
	Run(c config.Config, args []string) error
}

var (
	successExitCode = 0
	errorExitCode   = 1
)

func commands() []command {
	return []command{
		&downsampleCommand{},
		&selectCommand{},
		&diffCommand{},
		&joinCommand{},
		&filterCommand{},
		&concatCommand{},
		&resampleCommand{},
		&fromWavCommand{},
		&toWavCommand{},
		&entryCommand{},
	}
}

func (a *app) run() int {
	cmdName, args := parseArgs(a.args)
	if cmdName == "" {
		a.printUsage()
		return errorExitCode
	}

	for _, cmd := range commands() {
		if cmd.Name() != cmdName {
			continue
		}
		flags := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		flags.SetOutput(a.stderr)
		cmd.Register(flags)
		if err := flags.Parse(args); err != nil {
			return errorExitCode
		}
		var options []config.Option
		if path := os.Getenv("BARK_CONFIG"); path != "" {
			options = append(options, config.WithConfigFile(path))
		}
		c, err := config.Load(options...)
		if err != nil {
			fmt.Fprintf(a.stderr, "Configuration failed: %v\n", err)
			return errorExitCode
		}
		if err := cmd.Run(c, flags.Args()); err != nil {
			fmt.Fprintf(a.stderr, "Command %s failed: %v\n", cmdName, err)
			return errorExitCode
		}
		return successExitCode
	}

	fmt.Fprintf(a.stderr, "Unknown command: %s\n", cmdName)
	a.printUsage()
	return errorExitCode
}

func main() {
	a := app{
		args:   os.Args,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	os.Exit(a.run())
}

func parseArgs(args []string) (string, []string) {
	if len(args) < 2 {
		return "", nil
	}
	return args[1], args[2:]
}

func (a *app) printUsage() {
	fmt.Fprintln(a.stdout, "Bark processes sampled datasets")
	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, "Usage: bark <command> [flags] <inputs>")
	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, "Commands:")
	for _, cmd := range commands() {
		fmt.Fprintf(a.stdout, "\t%s\t%s\n", cmd.Name(), cmd.Help())
	}
}
