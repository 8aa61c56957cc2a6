package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"nebula/internal/architecture"
	"nebula/internal/audit"
	"nebula/internal/gateway/app"
	"nebula/internal/gateway/config"
	"nebula/internal/pricing"
)

var errCriticalFindings = errors.New("audit found critical issues")

func newRootCmd() *cobra.Command {
	var port string
	root := &cobra.Command{
		Use:           "nebula",
		Short:         "Design cloud architectures from prompts and keep diagram and Terraform in sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), port)
		},
	}
	root.PersistentFlags().StringVar(&port, "port", "", "listen port (overrides PORT)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP gateway (default)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), port)
			},
		},
		newEstimateCmd(),
		newAuditCmd(),
	)
	return root
}

func runServe(ctx context.Context, port string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = cfg.WithPort(port)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.Start() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(serveErr, a.Shutdown(shutdownCtx))
}

func newEstimateCmd() *cobra.Command {
	var file, output string
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the monthly cost of a saved architecture state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			var st architecture.State
			if err := json.Unmarshal(raw, &st); err != nil {
				return fmt.Errorf("decode %s: %w", file, err)
			}
			return render(cmd.OutOrStdout(), output, pricing.Estimate(st.Nodes))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "architecture state JSON (- for stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func newAuditCmd() *cobra.Command {
	var (
		file, output   string
		failOnCritical bool
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check Terraform source for cost, security and reliability risks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			rep := audit.Audit(string(raw))
			if err := render(cmd.OutOrStdout(), output, rep); err != nil {
				return err
			}
			if failOnCritical && rep.Critical() {
				return errCriticalFindings
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Terraform file (- for stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	cmd.Flags().BoolVar(&failOnCritical, "fail-on-critical", false, "exit non-zero when a CRITICAL finding is reported")
	return cmd
}

func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(file)
}

func render(w io.Writer, format string, v any) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}
