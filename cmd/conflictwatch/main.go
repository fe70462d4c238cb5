// Command conflictwatch watches a single record for concurrent modification
// over HTTP and reports conflict transitions on the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	conflictkit "github.com/c0deZ3R0/go-conflict-kit"
	"github.com/c0deZ3R0/go-conflict-kit/fetcher/httpfetch"
	"github.com/c0deZ3R0/go-conflict-kit/logging"
	"github.com/c0deZ3R0/go-conflict-kit/storage/sqlite"
)

func main() {
	var (
		baseURL   string
		listID    string
		itemID    string
		preset    string
		interval  time.Duration
		authToken string
		auditPath string
	)

	rootCmd := &cobra.Command{
		Use:   "conflictwatch",
		Short: "Watch a record for concurrent modification",
		Long: `conflictwatch binds a conflict detector to one record of a remote
backing store and polls its version stamp, reporting when another actor
modifies the record underneath you.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(baseURL, listID, itemID, preset, interval, authToken, auditPath)
		},
	}

	rootCmd.Flags().StringVar(&baseURL, "base-url", "", "base URL of the stamp endpoint (required)")
	rootCmd.Flags().StringVar(&listID, "list", "", "list identifier of the record (required)")
	rootCmd.Flags().StringVar(&itemID, "item", "", "item identifier of the record (required)")
	rootCmd.Flags().StringVar(&preset, "preset", "realtime", "option preset: silent, notify, strict, realtime, formCustomizer")
	rootCmd.Flags().DurationVar(&interval, "interval", 0, "override the polling interval (clamped to 5s-300s)")
	rootCmd.Flags().StringVar(&authToken, "token", "", "bearer token for the stamp endpoint")
	rootCmd.Flags().StringVar(&auditPath, "audit-db", "", "SQLite file for the conflict audit trail")
	rootCmd.MarkFlagRequired("base-url")
	rootCmd.MarkFlagRequired("list")
	rootCmd.MarkFlagRequired("item")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(baseURL, listID, itemID, preset string, interval time.Duration, authToken, auditPath string) error {
	logging.Init(logging.GetConfigFromEnv())

	options, known := conflictkit.PresetByName(preset)
	if !known {
		return fmt.Errorf("unknown preset %q", preset)
	}
	if interval > 0 {
		options.CheckInterval = interval
	}
	if options.CheckInterval == 0 {
		// Watching without polling would never report anything.
		options.CheckInterval = 30 * time.Second
	}

	var clientOpts []httpfetch.ClientOption
	if authToken != "" {
		clientOpts = append(clientOpts, httpfetch.WithAuthToken(authToken))
	}
	fetcher := httpfetch.NewClient(baseURL, clientOpts...)

	builder := conflictkit.NewDetectorBuilder().
		WithFetcher(fetcher).
		WithRecord(listID, itemID).
		WithOptions(options)

	if auditPath != "" {
		audit, err := sqlite.NewConflictLog(sqlite.Config{
			DataSourceName: auditPath,
			EnableWAL:      true,
		})
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		builder.WithConflictLog(audit).
			WithOption(conflictkit.WithConflictLogging(true))
	}

	detector, err := builder.Build()
	if err != nil {
		return err
	}
	defer detector.Dispose()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = detector.Initialize(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to capture baseline: %w", err)
	}

	warn := color.New(color.FgRed, color.Bold)
	ok := color.New(color.FgGreen)
	dim := color.New(color.Faint)

	detector.Subscribe(conflictkit.DetectionHooks{
		OnConflictDetected: func(info *conflictkit.ConflictInfo) {
			warn.Printf("conflict: %s/%s modified by %s (%s → %s, severity %s)\n",
				info.ListID, info.ItemID, info.LastModifiedBy.Name,
				info.OriginalVersion, info.CurrentVersion, info.Severity)
		},
		OnConflictResolved: func() {
			ok.Println("conflict resolved, baseline updated")
		},
	})

	if err := detector.StartPolling(); err != nil {
		return err
	}
	dim.Printf("watching %s/%s every %s (ctrl-c to stop)\n",
		listID, itemID, detector.Options().CheckInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	return nil
}
