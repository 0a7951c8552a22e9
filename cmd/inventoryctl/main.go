package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	dedH "github.com/fekuna/omnipos-inventory-service/internal/deduction/handler"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

type options struct {
	addr    string
	storeID string
	locale  string
	from    string
	to      string
	timeout time.Duration
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "inventoryctl",
		Short:        "Operate the inventory deduction service",
		SilenceUsage: true,
	}

	addr := os.Getenv("INVENTORY_GRPC_ADDR")
	if addr == "" {
		addr = "localhost:8083"
	}
	root.PersistentFlags().StringVar(&opts.addr, "addr", addr, "gRPC address of the inventory service")
	root.PersistentFlags().StringVar(&opts.storeID, "store", "", "store id (required)")
	root.PersistentFlags().StringVar(&opts.locale, "locale", "en", "locale for user-facing messages")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "overall request timeout")
	_ = root.MarkPersistentFlagRequired("store")

	root.AddCommand(newRecoveryCmd(opts, false), newRecoveryCmd(opts, true))
	return root
}

func newRecoveryCmd(opts *options, dryRun bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Replay deductions for completed sales that have no stock movements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecovery(cmd, opts, dryRun)
		},
	}
	if dryRun {
		cmd.Use = "scan"
		cmd.Short = "List completed sales that have no stock movements without replaying them"
	}
	cmd.Flags().StringVar(&opts.from, "from", "", "window start, RFC3339 (default: 24h before --to)")
	cmd.Flags().StringVar(&opts.to, "to", "", "window end, RFC3339 (default: now)")
	return cmd
}

func runRecovery(cmd *cobra.Command, opts *options, dryRun bool) error {
	from, to, err := window(opts.from, opts.to, time.Now())
	if err != nil {
		return err
	}

	conn, err := grpc.NewClient(opts.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", opts.addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()
	ctx = metadata.AppendToOutgoingContext(ctx, "x-store-id", opts.storeID, "accept-language", opts.locale)

	summary, err := dedH.NewClient(conn).RunRecovery(ctx, &dto.RecoveryRequest{
		StoreID: opts.storeID,
		From:    from,
		To:      to,
		DryRun:  dryRun,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return err
	}
	if summary.FailedCount > 0 {
		return fmt.Errorf("%d sale(s) could not be recovered", summary.FailedCount)
	}
	return nil
}

func window(fromFlag, toFlag string, now time.Time) (time.Time, time.Time, error) {
	to := now
	if toFlag != "" {
		t, err := time.Parse(time.RFC3339, toFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
		to = t
	}
	from := to.Add(-24 * time.Hour)
	if fromFlag != "" {
		t, err := time.Parse(time.RFC3339, fromFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
		}
		from = t
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from %s must be before --to %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return from, to, nil
}
