package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelfwise/circulation/circulation/shared/shell/config"
	"github.com/shelfwise/circulation/eventstore/postgresengine"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the events table and its indexes if they do not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			if dryRun {
				return printSchema(cmd, cfg)
			}

			store, closeDB, err := cfg.Database.OpenEventStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if err = store.EnsureSchema(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "table %s is up to date\n", cfg.Database.Table)

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the DDL instead of executing it")

	return cmd
}

// printSchema needs no database: sql.Open does not connect.
func printSchema(cmd *cobra.Command, cfg config.Config) error {
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return err
	}

	store, err := postgresengine.NewEventStoreFromSQLDB(db, postgresengine.WithTableName(cfg.Database.Table))
	if err != nil {
		return errors.Join(err, db.Close())
	}

	for _, statement := range store.SchemaStatements() {
		fmt.Fprintln(cmd.OutOrStdout(), statement+";")
	}

	return db.Close()
}
