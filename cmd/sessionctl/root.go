package main

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile       string
	storeFlag     string
	logLevel      string
	logFormat     string
	useLocal      bool
	localEmail    string
	localPassword string
	auditLog      bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sessionctl",
		Short: "Inspect and drive a cached auth session",
		Long: "sessionctl restores the cached session from the configured credential store, " +
			"reconciles it with the identity service and reports the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/gosession/config.yaml)")
	pf.StringVar(&storeFlag, "store", "", "override store backend: file, sqlite, redis or memory")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "log format: text or json")
	pf.BoolVar(&useLocal, "local", false, "use the in-process identity provider instead of the configured service")
	pf.StringVar(&localEmail, "local-email", "demo@example.com", "account seeded into the in-process provider")
	pf.StringVar(&localPassword, "local-password", "demo-password", "password of the seeded account")
	pf.BoolVar(&auditLog, "audit-log", false, "write audit events as JSON lines to stderr")

	root.AddCommand(newStatusCmd())
	root.AddCommand(newLoginCmd())
	root.AddCommand(newSignupCmd())
	root.AddCommand(newSignoutCmd())
	root.AddCommand(newWatchCmd())
	return root
}
