// Command export builds an inventory export from the live backend and
// writes it to disk, optionally keeping a copy in the artifact store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/stockmgmt/dashboard/internal/application/inventory"
	"github.com/stockmgmt/dashboard/internal/bootstrap"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/infrastructure/config"
	"github.com/stockmgmt/dashboard/internal/infrastructure/export"
	"github.com/stockmgmt/dashboard/internal/infrastructure/logger"
	"github.com/stockmgmt/dashboard/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

type options struct {
	format    string
	entities  string
	prefix    string
	timestamp bool
	dir       string
	store     bool
	from      string
	to        string
	username  string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "export:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	var opts options
	flag.StringVar(&opts.format, "format", "xlsx", "output format: xlsx, csv or pdf")
	flag.StringVar(&opts.entities, "entities", "", "comma-separated entities (products,transactions,suppliers,statistics); empty exports all")
	flag.StringVar(&opts.prefix, "prefix", cfg.Export.Prefix, "filename prefix")
	flag.BoolVar(&opts.timestamp, "timestamp", cfg.Export.Timestamp, "append the date to the filename")
	flag.StringVar(&opts.dir, "dir", cfg.Export.Directory, "output directory")
	flag.BoolVar(&opts.store, "store", false, "also upload the file to the artifact store")
	flag.StringVar(&opts.from, "from", "", "first transaction day, YYYY-MM-DD")
	flag.StringVar(&opts.to, "to", "", "last transaction day, YYYY-MM-DD")
	flag.StringVar(&opts.username, "username", "", "sign in as this user when no session is stored; password is read from STOCKDASH_PASSWORD")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync(log)

	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	entities, err := inventory.ParseEntities(splitList(opts.entities))
	if err != nil {
		return err
	}
	filter, err := dateFilter(opts.from, opts.to, cfg.Dashboard.Location())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(flushCtx)
	}()

	app, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{WithStorage: opts.store})
	if err != nil {
		return err
	}
	defer app.Close()

	if err := signIn(ctx, app, opts.username); err != nil {
		return err
	}

	res, err := app.Exports.Export(ctx, inventory.ExportRequest{
		Format:            format,
		Entities:          entities,
		Prefix:            opts.prefix,
		Timestamp:         opts.timestamp,
		TransactionFilter: filter,
		Store:             opts.store,
		Directory:         opts.dir,
	})
	if err != nil {
		return err
	}

	log.Info("Export written",
		zap.String("path", res.Artifact.Path),
		zap.Int("bytes", len(res.Artifact.Data)),
	)
	fmt.Println(res.Artifact.Path)
	if res.Stored != nil {
		fmt.Println(res.Stored.URL)
	}
	return nil
}

// signIn restores the stored session, falling back to a password login
func signIn(ctx context.Context, app *bootstrap.App, username string) error {
	if err := app.Gate.Initialize(ctx); err != nil {
		app.Logger.Warn("Stored session unusable", zap.Error(err))
	}
	if app.Gate.IsAuthenticated() {
		return nil
	}
	if username == "" {
		return errors.New("not signed in: pass -username and set STOCKDASH_PASSWORD")
	}
	password := os.Getenv("STOCKDASH_PASSWORD")
	if password == "" {
		return errors.New("STOCKDASH_PASSWORD is not set")
	}
	if _, err := app.Gate.Login(ctx, username, password); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// dateFilter turns -from/-to into a transaction window; -to covers the whole day
func dateFilter(from, to string, loc *time.Location) (stock.Filter, error) {
	var f stock.Filter
	if from != "" {
		t, err := time.ParseInLocation(time.DateOnly, from, loc)
		if err != nil {
			return f, fmt.Errorf("invalid -from: %w", err)
		}
		f.DateFrom = &t
	}
	if to != "" {
		t, err := time.ParseInLocation(time.DateOnly, to, loc)
		if err != nil {
			return f, fmt.Errorf("invalid -to: %w", err)
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.DateTo = &end
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return f, errors.New("-to is before -from")
	}
	return f, nil
}
