package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/absences/services/importer"
)

// importRoster imports the students of a spreadsheet and prints what happened to each row.
func (cli *commandLine) importRoster(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening roster")
	}
	defer func() { _ = f.Close() }()

	rep, err := importer.Import(context.Background(), cli.trk, f, filepath.Base(path))
	if err != nil {
		return err
	}

	for _, std := range rep.Added {
		fmt.Fprintf(cli.out, "added    %s (%s, %s)\n", std.FullName(), std.Class, std.ParentEmail)
	}
	for _, std := range rep.Skipped {
		fmt.Fprintf(cli.out, "skipped  %s: %s already known\n", std.FullName(), std.ParentEmail)
	}
	for _, rowErr := range rep.Errors {
		fmt.Fprintf(cli.out, "error    %s\n", rowErr)
	}
	for _, w := range rep.Warnings {
		fmt.Fprintf(cli.out, "warning  row %d: %s looks like %s\n", w.Row, w.Name, w.Existing.FullName())
	}
	fmt.Fprintf(cli.out, "%d added, %d skipped, %d errors\n", len(rep.Added), len(rep.Skipped), len(rep.Errors))
	return nil
}
