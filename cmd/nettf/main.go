// Command nettf is the CLI front-end for the NETTF peer-to-peer LAN
// file and directory transfer engine. It is a thin collaborator over
// internal/frame, internal/netio, internal/discover and
// internal/signal — the wire protocol itself lives in internal/.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nettf/nettf/internal/nettflog"
)

var (
	verbose bool
)

// usageError marks a failure as a malformed invocation (wrong argument
// count, bad flag value) rather than a failure of the transfer itself,
// so main can report it on exit code 2 instead of 1.
type usageError struct{ err error }

func (u *usageError) Error() string { return u.err.Error() }
func (u *usageError) Unwrap() error { return u.err }

func newUsageError(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func main() {
	root := newRootCmd()
	root.SilenceUsage = true
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var ue *usageError
		if errors.As(err, &ue) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nettf",
		Short: "Peer-to-peer LAN file and directory transfer",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logrus.WarnLevel
			if verbose {
				level = logrus.DebugLevel
			}
			nettflog.Init(os.Stderr, level)
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.AddCommand(newDiscoverCmd(), newReceiveCmd(), newSendCmd())
	return cmd
}
