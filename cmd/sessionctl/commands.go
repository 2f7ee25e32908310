package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	goSession "github.com/MrEthical07/goSession"
	promexport "github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var jsonOutput bool

func printSnapshot(w io.Writer, s goSession.Snapshot) error {
	if jsonOutput {
		return writeJSON(w, s)
	}
	_, err := fmt.Fprintln(w, renderSnapshot(s))
	return err
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Restore and reconcile the cached session, then print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			return printSnapshot(cmd.OutOrStdout(), e.manager.Snapshot())
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the snapshot as JSON")
	return cmd
}

type credentialFlags struct {
	email    string
	password string
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "account password (prompted when omitted)")
}

// resolve fills missing values from stdin, hiding the password on a terminal.
func (f *credentialFlags) resolve() error {
	reader := bufio.NewReader(os.Stdin)
	if f.email == "" {
		fmt.Fprint(os.Stderr, "Email: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return err
		}
		f.email = strings.TrimSpace(line)
	}
	if f.password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		if term.IsTerminal(int(os.Stdin.Fd())) {
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return err
			}
			f.password = string(raw)
		} else {
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return err
			}
			f.password = strings.TrimRight(line, "\r\n")
		}
	}
	if f.email == "" || f.password == "" {
		return errors.New("email and password are required")
	}
	return nil
}

func newLoginCmd() *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password and cache the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := creds.resolve(); err != nil {
				return err
			}
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			snap, err := e.manager.SignIn(cmd.Context(), creds.email, creds.password)
			if err != nil {
				return fmt.Errorf("sign in: %w", err)
			}
			return printSnapshot(cmd.OutOrStdout(), snap)
		},
	}
	creds.register(cmd)
	return cmd
}

func newSignupCmd() *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register an account; signs in when the service returns a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := creds.resolve(); err != nil {
				return err
			}
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			snap, err := e.manager.SignUp(cmd.Context(), creds.email, creds.password)
			if err != nil {
				return fmt.Errorf("sign up: %w", err)
			}
			if !snap.Authenticated() {
				fmt.Fprintln(cmd.ErrOrStderr(), "account created; confirm it before signing in")
			}
			return printSnapshot(cmd.OutOrStdout(), snap)
		},
	}
	creds.register(cmd)
	return cmd
}

func newSignoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Revoke the session remotely and clear the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.manager.SignOut(cmd.Context()); err != nil {
				return err
			}
			return printSnapshot(cmd.OutOrStdout(), e.manager.Snapshot())
		},
	}
}

func newWatchCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print every published snapshot until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := setup(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if metricsAddr != "" {
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           promexport.NewCollector(e.manager).Handler(),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						e.logger.Error("goSession: metrics server stopped", "err", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				e.logger.Info("goSession: serving metrics", "addr", metricsAddr)
			}

			out := cmd.OutOrStdout()
			stopObserving := e.manager.Observe(func(s goSession.Snapshot) {
				_ = printSnapshot(out, s)
				if !jsonOutput {
					fmt.Fprintln(out)
				}
			})
			defer stopObserving()

			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print snapshots as JSON lines")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	return cmd
}
