package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/absences/services/importer"
)

func (cli *commandLine) writeTemplate(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating template file")
	}
	if err = importer.WriteTemplate(f); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "closing template file")
	}
	fmt.Fprintf(cli.out, "template written to %s\n", path)
	return nil
}
