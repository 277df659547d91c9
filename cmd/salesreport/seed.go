package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TFMV/salesreport/pkg/store"
)

func newSeedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the reference sales database, replacing any existing file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			driver := a.cfg.Store.Driver
			if driver == store.BackendADBC {
				// The ADBC backend reads DuckDB files.
				driver = store.BackendDuckDB
			}
			if err := store.SeedFile(cmd.Context(), driver, a.cfg.Store.Path, store.ReferenceDataset()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s database at %s\n", driver, a.cfg.Store.Path)
			return nil
		},
	}
}
