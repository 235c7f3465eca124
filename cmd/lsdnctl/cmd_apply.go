package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lsdn-core/lsdn/pkg/audit"
	"github.com/lsdn-core/lsdn/pkg/auth"
	"github.com/lsdn-core/lsdn/pkg/cli"
	"github.com/lsdn-core/lsdn/pkg/engine"
	"github.com/lsdn-core/lsdn/pkg/problem"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Validate a topology file and, with -x, commit it",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		authCtx := auth.NewContext().WithContextName(app.contextName)
		if err := checkPermission(auth.PermCommit, authCtx); err != nil {
			return err
		}

		ctx, err := requireTopology()
		if err != nil {
			return err
		}

		if !app.executeMode {
			reporter := engine.Validate(ctx, nil, nil)
			printProblems(reporter.Problems())
			printDryRunNotice()

			ev := audit.NewEvent(app.permChecker.CurrentUser(), app.contextName, "apply").
				WithProblemRefs(problemRefStrings(reporter.Problems())).
				WithDuration(time.Since(start)).
				WithDryRun(true)
			if reporter.Clean() {
				ev.WithSuccess()
			}
			_ = audit.Log(ev)
			return nil
		}

		var raised []*problem.Problem
		cb := func(p *problem.Problem, user any) { raised = append(raised, p) }

		err = engine.Commit(context.Background(), ctx, cb, nil)

		ev := audit.NewEvent(app.permChecker.CurrentUser(), app.contextName, "commit").
			WithProblemRefs(problemRefStrings(raised)).
			WithDuration(time.Since(start)).
			WithDryRun(false)

		if err != nil {
			printProblems(raised)
			ev.WithError(err)
			_ = audit.Log(ev)
			return fmt.Errorf("commit failed: %w", err)
		}

		ev.WithSuccess()
		_ = audit.Log(ev)
		fmt.Println(cli.Green("Committed successfully."))
		return nil
	},
}
