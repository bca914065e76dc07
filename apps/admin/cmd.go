package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/absences/core/tracker"
	"github.com/trezcool/absences/services/importer"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp        = errors.New("help provided")
	errAborted     = errors.New("aborted")
	errNotTerminal = errors.New("not a terminal, use -yes to confirm")
)

type commandLine struct {
	db   *sqlx.DB // nil with the memory engine
	trk  *tracker.Tracker
	in   io.Reader
	inFd int
	out  io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                 - run a goose migration command (up, down, status, version...)")
	fmt.Fprintln(cli.out, "  import -file FILE                      - import students from a .xlsx, .xls or .csv roster")
	fmt.Fprintln(cli.out, "  template [-out FILE]                   - write the roster import template")
	fmt.Fprintln(cli.out, "  alerts [-notify] [-yes]                - list students above the alert threshold, optionally alerting their parents")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importCmd.SetOutput(cli.out)
	importFile := importCmd.String("file", "", "The roster spreadsheet to import.")

	templateCmd := flag.NewFlagSet("template", flag.ContinueOnError)
	templateCmd.SetOutput(cli.out)
	templateOut := templateCmd.String("out", importer.TemplateFilename, "Where to write the template.")

	alertsCmd := flag.NewFlagSet("alerts", flag.ContinueOnError)
	alertsCmd.SetOutput(cli.out)
	alertsNotify := alertsCmd.Bool("notify", false, "Send the alert message to the parents of every listed student.")
	alertsYes := alertsCmd.Bool("yes", false, "Do not ask for confirmation.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importRoster(*importFile)
	case "template":
		if err := templateCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.writeTemplate(*templateOut)
	case "alerts":
		if err := alertsCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.alerts(*alertsNotify, *alertsYes)
	default:
		cli.printUsage()
		return errHelp
	}
}

// confirm asks a yes/no question on the terminal.
func (cli *commandLine) confirm(question string) error {
	if !isTerminalFunc(cli.inFd) {
		return errNotTerminal
	}
	fmt.Fprintf(cli.out, "%s [y/N] ", question)
	answer, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "o", "oui":
		return nil
	default:
		return errAborted
	}
}
