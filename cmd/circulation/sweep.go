package main

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/shelfwise/circulation/circulation/features/command/assessoverduefines"
)

func newSweepCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Assess the fines of all overdue loans once and print the summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}

			return errors.Join(runSweep(cmd, a), a.close(context.WithoutCancel(cmd.Context())))
		},
	}
}

func runSweep(cmd *cobra.Command, a *app) error {
	now := time.Now()

	result, _, err := a.ledger.Handlers.AssessOverdueFines.Handle(cmd.Context(), assessoverduefines.BuildCommand(now, now))
	if err != nil {
		return err
	}

	encoder := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")

	return encoder.Encode(result)
}
