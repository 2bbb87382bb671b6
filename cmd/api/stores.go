package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/your-org/tcmreview/internal/api/handlers"
	"github.com/your-org/tcmreview/internal/config"
	"github.com/your-org/tcmreview/internal/models"
	"github.com/your-org/tcmreview/internal/recordlog"
	"github.com/your-org/tcmreview/internal/storage"
)

type blobStores struct {
	review   storage.BlobStore
	feedback storage.BlobStore
}

func openBlobStores(ctx context.Context, cfg *config.Config) (blobStores, error) {
	switch cfg.Storage.Driver {
	case config.DriverMinIO:
		client, err := storage.NewMinIOClient(cfg.MinIO)
		if err != nil {
			return blobStores{}, err
		}
		reviewStore := storage.NewMinIOStore(client, cfg.MinIO.Bucket, "review")
		if err := reviewStore.EnsureBucket(ctx); err != nil {
			slog.Warn("ensure minio bucket", "error", err)
		}
		return blobStores{
			review:   reviewStore,
			feedback: storage.NewMinIOStore(client, cfg.MinIO.Bucket, "feedback"),
		}, nil
	default:
		reviewStore, err := storage.NewFSStore(cfg.Storage.ReviewDir)
		if err != nil {
			return blobStores{}, err
		}
		feedbackStore, err := storage.NewFSStore(cfg.Storage.FeedbackDir)
		if err != nil {
			return blobStores{}, err
		}
		return blobStores{review: reviewStore, feedback: feedbackStore}, nil
	}
}

type recordLogs struct {
	review   recordlog.Backend[models.ReviewRecord]
	feedback recordlog.Backend[models.FeedbackRecord]
	ping     handlers.Pinger
	close    func()
}

type sqlPinger struct{ db *sql.DB }

func (p sqlPinger) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func openRecordLogs(ctx context.Context, cfg *config.Config) (recordLogs, error) {
	switch cfg.Records.Driver {
	case config.DriverSQLite:
		db, err := recordlog.OpenSQLite(cfg.Records.SQLitePath)
		if err != nil {
			return recordLogs{}, err
		}
		reviewTable, err := recordlog.NewSQLiteTable[models.ReviewRecord](ctx, db, models.ReviewSchema{})
		if err != nil {
			db.Close()
			return recordLogs{}, err
		}
		feedbackTable, err := recordlog.NewSQLiteTable[models.FeedbackRecord](ctx, db, models.FeedbackSchema{})
		if err != nil {
			db.Close()
			return recordLogs{}, err
		}
		return recordLogs{
			review:   reviewTable,
			feedback: feedbackTable,
			ping:     sqlPinger{db: db},
			close:    func() { db.Close() },
		}, nil

	case config.DriverPostgres:
		pool, err := recordlog.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return recordLogs{}, err
		}
		reviewTable, err := recordlog.NewPostgresTable[models.ReviewRecord](ctx, pool, models.ReviewSchema{})
		if err != nil {
			pool.Close()
			return recordLogs{}, err
		}
		feedbackTable, err := recordlog.NewPostgresTable[models.FeedbackRecord](ctx, pool, models.FeedbackSchema{})
		if err != nil {
			pool.Close()
			return recordLogs{}, err
		}
		return recordLogs{
			review:   reviewTable,
			feedback: feedbackTable,
			ping:     pool,
			close:    pool.Close,
		}, nil

	default:
		reviewCSV, err := recordlog.OpenCSV[models.ReviewRecord](cfg.Records.ReviewPath, models.ReviewSchema{})
		if err != nil {
			return recordLogs{}, fmt.Errorf("open review log: %w", err)
		}
		// The feedback log is read by spreadsheet tools expecting a BOM.
		feedbackCSV, err := recordlog.OpenCSV[models.FeedbackRecord](cfg.Records.FeedbackPath, models.FeedbackSchema{}, recordlog.WithBOM())
		if err != nil {
			return recordLogs{}, fmt.Errorf("open feedback log: %w", err)
		}
		return recordLogs{review: reviewCSV, feedback: feedbackCSV, close: func() {}}, nil
	}
}
