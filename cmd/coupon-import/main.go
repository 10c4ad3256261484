// Command coupon-import bulk-loads one-time marketing promo codes from
// gzipped code lists (one code per line) into the coupons table. Codes are
// deduplicated across files and against the database before insert.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mirsvobo/eshop/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	insertBatch   = 5_000
	minCodeLen    = 6
	maxCodeLen    = 16
)

func main() {
	var (
		dataDir     string
		databaseURL string
		name        string
		percent     string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.gz code lists")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&name, "name", "Promo code", "coupon display name for the imported batch")
	flag.StringVar(&percent, "percent", "10", "percentage discount granted by each imported code")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, name, percent); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL, name, percent string) error {
	value, err := decimal.NewFromString(percent)
	if err != nil || !value.IsPositive() {
		return errors.Errorf("invalid percent %q", percent)
	}

	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list code files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.gz files in %s", dataDir)
	}

	slog.Info("collecting codes", slog.Int("files", len(files)))
	codes, err := collectCodes(ctx, files)
	if err != nil {
		return errors.Wrap(err, "collect codes")
	}
	slog.Info("unique codes collected", slog.Int("count", len(codes)))

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	inserted, err := insertCoupons(ctx, pool, codes, name, value)
	if err != nil {
		return errors.Wrap(err, "insert coupons")
	}
	slog.Info("coupons inserted", slog.Int("count", inserted))
	return nil
}

// collectCodes reads every file concurrently and returns the deduplicated
// code set. A bloom filter front-runs the exact set so that the hot path of
// an already-seen code stays cheap on large batches.
func collectCodes(ctx context.Context, files []string) ([]string, error) {
	var (
		mu     sync.Mutex
		filter = bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		seen   = make(map[string]struct{})
		codes  []string
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		file := file
		g.Go(func() error {
			f, err := os.Open(file)
			if err != nil {
				return errors.Wrapf(err, "open %s", file)
			}
			defer f.Close()

			gz, err := pgzip.NewReader(f)
			if err != nil {
				return errors.Wrapf(err, "gunzip %s", file)
			}
			defer gz.Close()

			scanner := bufio.NewScanner(gz)
			for scanner.Scan() {
				if err := ctx.Err(); err != nil {
					return err
				}
				code := strings.ToUpper(strings.TrimSpace(scanner.Text()))
				if len(code) < minCodeLen || len(code) > maxCodeLen {
					continue
				}

				mu.Lock()
				if !filter.TestOrAddString(code) {
					seen[code] = struct{}{}
					codes = append(codes, code)
				} else if _, dup := seen[code]; !dup {
					// Bloom false positive: the code is new after all.
					seen[code] = struct{}{}
					codes = append(codes, code)
				}
				mu.Unlock()
			}
			return errors.Wrapf(scanner.Err(), "scan %s", file)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return codes, nil
}

func insertCoupons(ctx context.Context, pool *pgxpool.Pool, codes []string, name string, value decimal.Decimal) (int, error) {
	inserted := 0
	for start := 0; start < len(codes); start += insertBatch {
		end := min(start+insertBatch, len(codes))
		batch := codes[start:end]

		rows := make([][]any, 0, len(batch))
		for _, code := range batch {
			rows = append(rows, []any{code, name, true, value, 1, true})
		}

		// Stage the batch and let the INSERT…SELECT skip codes that already
		// exist, so re-running an import is safe.
		tx, err := pool.Begin(ctx)
		if err != nil {
			return inserted, errors.Wrap(err, "begin batch")
		}

		_, err = tx.Exec(ctx, `CREATE TEMPORARY TABLE coupon_staging (
			code TEXT, name TEXT, percentage BOOLEAN, value NUMERIC,
			usage_limit INTEGER, active BOOLEAN) ON COMMIT DROP`)
		if err != nil {
			_ = tx.Rollback(ctx)
			return inserted, errors.Wrap(err, "create staging table")
		}

		_, err = tx.CopyFrom(ctx, pgx.Identifier{"coupon_staging"},
			[]string{"code", "name", "percentage", "value", "usage_limit", "active"},
			pgx.CopyFromRows(rows))
		if err != nil {
			_ = tx.Rollback(ctx)
			return inserted, errors.Wrap(err, "copy batch")
		}

		tag, err := tx.Exec(ctx, `INSERT INTO coupons (code, name, percentage, value, usage_limit, active)
			SELECT code, name, percentage, value, usage_limit, active FROM coupon_staging
			ON CONFLICT DO NOTHING`)
		if err != nil {
			_ = tx.Rollback(ctx)
			return inserted, errors.Wrap(err, "merge batch")
		}

		if err := tx.Commit(ctx); err != nil {
			return inserted, errors.Wrap(err, "commit batch")
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}
