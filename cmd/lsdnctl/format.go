package main

import (
	"fmt"

	"github.com/lsdn-core/lsdn/pkg/cli"
	"github.com/lsdn-core/lsdn/pkg/problem"
	"github.com/lsdn-core/lsdn/pkg/version"
)

func printVersion(tool string) {
	if version.Version == "dev" {
		fmt.Printf("%s dev build (use 'go build -ldflags ...' for version info)\n", tool)
	} else {
		fmt.Printf("%s %s (%s)\n", tool, version.Version, version.GitCommit)
	}
}

// printProblems renders every problem raised during a validate/commit pass.
func printProblems(problems []*problem.Problem) {
	if len(problems) == 0 {
		fmt.Println(cli.Green("OK: no problems found."))
		return
	}
	fmt.Printf("%s %d problem(s):\n", cli.Red("FAILED:"), len(problems))
	for _, p := range problems {
		line := fmt.Sprintf("  [%s] %s", p.Code, p.Message)
		for _, ref := range p.Refs {
			line += " " + ref.String()
		}
		fmt.Println(line)
	}
}

// problemRefStrings flattens a problem slice into one short string per
// problem, the form pkg/audit events record in ProblemRefs.
func problemRefStrings(problems []*problem.Problem) []string {
	out := make([]string, 0, len(problems))
	for _, p := range problems {
		out = append(out, fmt.Sprintf("%s: %s", p.Code, p.Message))
	}
	return out
}

// dash returns s if non-empty, otherwise "-".
func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
