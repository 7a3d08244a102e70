package main

import (
	"fmt"
	"os"

	"github.com/fakturlab/faktur/internal/cli"
	ierr "github.com/fakturlab/faktur/internal/errors"
)

func main() {
	app := cli.NewApp()
	if err := app.Run(os.Args); err != nil {
		if hint := ierr.Hint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
