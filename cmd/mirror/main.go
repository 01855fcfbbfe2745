// Command mirror bidirectionally synchronises a remote SFTP tree with
// a local filesystem tree, tolerating transient network failures via
// the durable session in package remote.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

func main() {
	defer glog.Flush()

	if err := rootCmd.Execute(); err != nil {
		if ee, ok := err.(*exitError); ok {
			fmt.Fprintln(os.Stderr, ee.err)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitError carries a specific process exit code out of a cobra
// RunE, mirroring the teacher's *cmd/fisy.ExitError pattern.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

var rootCmd = &cobra.Command{
	Use:           "mirror",
	Short:         "Durably mirrors a local directory tree with a remote SFTP tree.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.localBase, "local-base", "", "local directory to mirror")
	rootCmd.PersistentFlags().StringVar(&flags.host, "host", "", "remote SFTP host")
	rootCmd.PersistentFlags().IntVar(&flags.port, "port", 22, "remote SFTP port")
	rootCmd.PersistentFlags().StringVar(&flags.username, "username", os.Getenv("LOGNAME"), "remote SFTP username")
	rootCmd.PersistentFlags().StringVar(&flags.password, "password", "", "remote SFTP password")
	rootCmd.PersistentFlags().StringVar(&flags.privateKey, "private-key", "", "path to a private key for public-key authentication")
	rootCmd.PersistentFlags().StringVar(&flags.privateKeyPass, "private-key-pass", "", "passphrase for --private-key, if encrypted")
	rootCmd.PersistentFlags().StringVar(&flags.agentSocket, "agent-socket", os.Getenv("SSH_AUTH_SOCK"), "ssh-agent socket for public-key authentication (default $SSH_AUTH_SOCK)")
	rootCmd.PersistentFlags().StringVar(&flags.knownHosts, "known-hosts", "", "known_hosts file used to verify the remote host key (default ~/.ssh/known_hosts)")
	rootCmd.PersistentFlags().BoolVar(&flags.insecureIgnoreHostKey, "insecure-ignore-host-key", false, "skip host key verification entirely (opt-in, insecure)")
	rootCmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", 0, "per-operation socket timeout (default 15s)")
	rootCmd.PersistentFlags().IntVar(&flags.maxAttempts, "max-attempts", 0, "attempts per operation before giving up (default 3)")
	rootCmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "report planned actions without making changes")
	rootCmd.PersistentFlags().StringVar(&flags.exclude, "exclude", "", "gitignore-style pattern to exclude from the mirror (repeatable via newlines)")
	rootCmd.PersistentFlags().StringVar(&flags.excludeFrom, "exclude-from", "", "file of gitignore-style patterns to exclude from the mirror")

	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(pushCmd)
}

var flags struct {
	localBase             string
	host                  string
	port                  int
	username              string
	password              string
	privateKey            string
	privateKeyPass        string
	agentSocket           string
	knownHosts            string
	insecureIgnoreHostKey bool
	timeout               time.Duration
	maxAttempts           int
	dryRun                bool
	exclude               string
	excludeFrom           string
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Makes the local tree match the remote tree.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), func(ctx context.Context, m *mirrorer) error {
			return m.MirrorFromRemote(ctx, printAction, flags.dryRun)
		})
	},
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Makes the remote tree match the local tree.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), func(ctx context.Context, m *mirrorer) error {
			return m.MirrorToRemote(ctx, printAction, flags.dryRun)
		})
	},
}
