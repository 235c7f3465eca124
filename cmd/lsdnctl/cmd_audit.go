package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lsdn-core/lsdn/pkg/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the audit trail",
}

func init() {
	auditCmd.AddCommand(auditQueryCmd)
	auditQueryCmd.Flags().StringVar(&auditFilter.Context, "context", "", "Filter by context name")
	auditQueryCmd.Flags().StringVar(&auditFilter.User, "user", "", "Filter by user")
	auditQueryCmd.Flags().StringVar(&auditFilter.Operation, "operation", "", "Filter by operation (validate, commit)")
	auditQueryCmd.Flags().BoolVar(&auditFilter.SuccessOnly, "success-only", false, "Only successful events")
	auditQueryCmd.Flags().BoolVar(&auditFilter.FailureOnly, "failure-only", false, "Only failed events")
	auditQueryCmd.Flags().IntVar(&auditFilter.Limit, "limit", 50, "Maximum number of events to return")
}

var auditFilter audit.Filter

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List audit events matching the given filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := audit.Query(auditFilter)
		if err != nil {
			return err
		}
		if app.jsonOutput {
			return printJSON(events)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tUSER\tCONTEXT\tOPERATION\tSUCCESS\tDRY_RUN")
		for _, e := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%v\n",
				e.Timestamp.Format("2006-01-02T15:04:05"), e.User, e.Context, e.Operation, e.Success, e.DryRun)
		}
		return w.Flush()
	},
}
