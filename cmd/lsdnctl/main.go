// lsdnctl - Software-Defined Virtual Network Control CLI
//
// A thin operator front-end over the lsdn library: it reads a declarative
// topology file describing nets, physes, attachments and virts, builds the
// same object graph the library exposes, and drives it through
// Validate/Commit with:
//   - dry-run by default (preview diagnostics, require -x to execute)
//   - audit logging of every validate/commit invocation
//   - permission-based access control
//
// Noun-group CLI pattern:
//
//	lsdnctl <resource> <action> [args] [-x]
//
// Examples:
//
//	lsdnctl validate -f topology.yaml
//	lsdnctl apply -f topology.yaml -x
//	lsdnctl show net -f topology.yaml
//	lsdnctl show virt -f topology.yaml --json
//	lsdnctl settings show
//	lsdnctl audit query --context lab1
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lsdn-core/lsdn/pkg/audit"
	"github.com/lsdn-core/lsdn/pkg/auth"
	"github.com/lsdn-core/lsdn/pkg/cli"
	"github.com/lsdn-core/lsdn/pkg/model"
	"github.com/lsdn-core/lsdn/pkg/settings"
	"github.com/lsdn-core/lsdn/pkg/topology"
	"github.com/lsdn-core/lsdn/pkg/util"
)

// App holds CLI state shared across all commands.
type App struct {
	// Context flags
	contextName string

	// Option flags
	topologyPath string
	nettypeFlag  string
	userFlag     string
	executeMode  bool
	verbose      bool
	jsonOutput   bool

	// Initialized state (set in PersistentPreRunE)
	settings    *settings.Settings
	permChecker *auth.Checker
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "lsdnctl",
	Short:             "Software-defined virtual network control CLI",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `lsdnctl is a noun-group CLI for building and committing software-defined
virtual network topologies spanning physical hosts.

Commands are organized by resource (net, phys, attachment, virt) for
read-only inspection, plus validate/apply against a topology file.
Write commands preview changes by default — use -x to execute.

  lsdnctl validate -f topology.yaml
  lsdnctl apply -f topology.yaml -x
  lsdnctl show net -f topology.yaml
  lsdnctl settings show`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isSettingsOrHelp(cmd) {
			return nil
		}

		var err error
		app.settings, err = settings.Load()
		if err != nil {
			util.Warnf("could not load settings: %v", err)
			app.settings = &settings.Settings{}
		}

		if app.contextName == "" {
			app.contextName = app.settings.DefaultContext
		}
		if app.contextName == "" {
			app.contextName = "default"
		}

		if app.verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}

		policy, err := auth.LoadPolicy(auth.DefaultPolicyPath())
		if err != nil {
			util.Warnf("could not load policy: %v", err)
			policy = auth.NewPolicy()
		}
		app.permChecker = auth.NewChecker(policy)
		if app.userFlag != "" {
			app.permChecker.SetUser(app.userFlag)
		}

		auditPath := app.settings.GetAuditLogPath(app.settings.GetConfigDir())
		auditLogger, err := audit.NewFileLogger(auditPath, audit.RotationConfig{
			MaxSize:    int64(app.settings.GetAuditMaxSizeMB()) * 1024 * 1024,
			MaxBackups: app.settings.GetAuditMaxBackups(),
		})
		if err != nil {
			util.Warnf("could not initialize audit logging: %v", err)
		} else {
			audit.SetDefaultLogger(auditLogger)
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&app.contextName, "context", "c", "", "Context name (used for audit/permission scoping)")
	rootCmd.PersistentFlags().StringVarP(&app.topologyPath, "file", "f", "", "Topology file")
	rootCmd.PersistentFlags().StringVar(&app.nettypeFlag, "nettype", "", "Driver mode: netlink or noop (default: $LSDN_NETTYPE, else the saved default_nettype setting, else noop)")
	rootCmd.PersistentFlags().StringVar(&app.userFlag, "user", "", "Act as this user (overrides OS user)")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose output")

	addWriteFlags(applyCmd)
	for _, cmd := range []*cobra.Command{applyCmd, showCmd, auditCmd} {
		addOutputFlags(cmd)
	}

	rootCmd.AddGroup(
		&cobra.Group{ID: "topology", Title: "Topology Commands:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)

	for _, cmd := range []*cobra.Command{validateCmd, applyCmd, showCmd} {
		cmd.GroupID = "topology"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{settingsCmd, auditCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion("lsdnctl")
	},
}

// ============================================================================
// Context helpers
// ============================================================================

// driverMode resolves the nettype driver selection precedence: --nettype
// flag, then $LSDN_NETTYPE, then the persisted DefaultNettype setting, and
// finally the noop (model-only) default.
func driverMode() string {
	if app.nettypeFlag != "" {
		return app.nettypeFlag
	}
	if env := os.Getenv("LSDN_NETTYPE"); env != "" {
		return env
	}
	if app.settings != nil && app.settings.DefaultNettype != "" {
		return app.settings.DefaultNettype
	}
	return topology.DriverNoop
}

// requireTopology loads and builds the object graph described by -f.
func requireTopology() (*model.Context, error) {
	if app.topologyPath == "" {
		return nil, fmt.Errorf("topology file required: use -f <path> flag")
	}
	doc, err := topology.Load(app.topologyPath)
	if err != nil {
		return nil, err
	}
	return topology.Build(app.contextName, doc, driverMode())
}

// checkPermission enforces perm only when executeMode is set; a preview
// (dry-run) only ever needs the caller to be able to run lsdnctl at all.
func checkPermission(perm auth.Permission, authCtx *auth.Context) error {
	if app.executeMode {
		return app.permChecker.Check(perm, authCtx)
	}
	return nil
}

func printDryRunNotice() {
	if !app.executeMode {
		fmt.Println("\n" + cli.Yellow("DRY-RUN: No changes committed. Use -x to execute."))
	}
}

// isSettingsOrHelp checks whether cmd (or any ancestor) is a settings, help,
// or version command — these don't need topology/auth/audit initialization.
func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "settings":
			return true
		}
	}
	return false
}

// addWriteFlags registers -x/--execute as a local flag.
func addWriteFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if cmd.HasSubCommands() {
		flags = cmd.PersistentFlags()
	}
	flags.BoolVarP(&app.executeMode, "execute", "x", false, "Execute changes (default is dry-run/validate-only)")
}

// addOutputFlags registers --json as a local flag, or as a persistent flag
// when cmd has subcommands.
func addOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if cmd.HasSubCommands() {
		flags = cmd.PersistentFlags()
	}
	flags.BoolVar(&app.jsonOutput, "json", false, "JSON output")
}
