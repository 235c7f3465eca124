package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/lsdn-core/lsdn/pkg/audit"
	"github.com/lsdn-core/lsdn/pkg/auth"
	"github.com/lsdn-core/lsdn/pkg/engine"
	"github.com/lsdn-core/lsdn/pkg/model"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a topology file without committing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		authCtx := auth.NewContext().WithContextName(app.contextName)
		if err := app.permChecker.Check(auth.PermValidate, authCtx); err != nil {
			return err
		}

		ctx, err := requireTopology()
		if err != nil {
			return err
		}

		reporter := engine.Validate(ctx, nil, nil)
		printProblems(reporter.Problems())

		ev := audit.NewEvent(app.permChecker.CurrentUser(), app.contextName, "validate").
			WithProblemRefs(problemRefStrings(reporter.Problems())).
			WithDuration(time.Since(start)).
			WithDryRun(true)
		if reporter.Clean() {
			ev.WithSuccess()
		} else {
			ev.WithError(model.ErrValidate)
		}
		_ = audit.Log(ev)

		if !reporter.Clean() {
			return model.ErrValidate
		}
		return nil
	},
}
