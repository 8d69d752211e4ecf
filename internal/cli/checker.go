package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlequiv/internal/equiv"
	"github.com/roach88/sqlequiv/internal/smtlib"
	"github.com/roach88/sqlequiv/internal/store"
)

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
		Color:     useColor(opts.Config.Output.Color, cmd.OutOrStdout()),
	}
}

// newChecker builds a checker from the loaded configuration. The returned
// close function releases the history database, if any.
func newChecker(opts *RootOptions) (*equiv.Checker, func() error, error) {
	cfg := opts.Config
	c := &equiv.Checker{
		Oracle:  opts.oracle,
		Timeout: cfg.Solver.Timeout,
		Logger:  opts.Logger,
		IDs:     opts.ids,
	}
	if c.Oracle == nil {
		c.Oracle = smtlib.NewSolver(cfg.Solver.Command, cfg.Solver.Args, opts.Logger)
	}

	closeFn := func() error { return nil }
	if cfg.History.Path != "" {
		st, err := store.Open(cfg.History.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open history %s: %w", cfg.History.Path, err)
		}
		c.Recorder = st
		closeFn = st.Close
	}
	return c, closeFn, nil
}

// readInput reads the schema and the two query files.
func readInput(schemaPath, query1Path, query2Path string) (equiv.Input, error) {
	var texts [3]string
	for i, path := range []string{schemaPath, query1Path, query2Path} {
		data, err := os.ReadFile(path)
		if err != nil {
			return equiv.Input{}, err
		}
		texts[i] = string(data)
	}
	return equiv.Input{SchemaSQL: texts[0], Query1: texts[1], Query2: texts[2]}, nil
}
