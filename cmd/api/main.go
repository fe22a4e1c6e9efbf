package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/reclaim/internal/auth"
	"github.com/MrJamesThe3rd/reclaim/internal/blob"
	"github.com/MrJamesThe3rd/reclaim/internal/config"
	"github.com/MrJamesThe3rd/reclaim/internal/database"
	"github.com/MrJamesThe3rd/reclaim/internal/factor"
	factorStore "github.com/MrJamesThe3rd/reclaim/internal/factor/store"
	reclaimHttp "github.com/MrJamesThe3rd/reclaim/internal/http"
	factorHandler "github.com/MrJamesThe3rd/reclaim/internal/http/factor"
	impactHandler "github.com/MrJamesThe3rd/reclaim/internal/http/impact"
	itemHandler "github.com/MrJamesThe3rd/reclaim/internal/http/item"
	manifestHandler "github.com/MrJamesThe3rd/reclaim/internal/http/manifest"
	reportHandler "github.com/MrJamesThe3rd/reclaim/internal/http/report"
	"github.com/MrJamesThe3rd/reclaim/internal/importer"
	"github.com/MrJamesThe3rd/reclaim/internal/inventory"
	itemStore "github.com/MrJamesThe3rd/reclaim/internal/inventory/store"
	"github.com/MrJamesThe3rd/reclaim/internal/invoice"
	invoiceStore "github.com/MrJamesThe3rd/reclaim/internal/invoice/store"
	"github.com/MrJamesThe3rd/reclaim/internal/manifest"
	manifestStore "github.com/MrJamesThe3rd/reclaim/internal/manifest/store"
	"github.com/MrJamesThe3rd/reclaim/internal/memstore"
	"github.com/MrJamesThe3rd/reclaim/internal/metrics"
	"github.com/MrJamesThe3rd/reclaim/internal/sustainability"
)

type stores struct {
	items     inventory.Repository
	reports   invoice.Repository
	factors   factor.Repository
	manifests manifest.IndexRepository
	close     func() error
}

type blobStore interface {
	manifest.BlobStore
	Close() error
}

type fsBlobs struct{ *blob.FS }

func (fsBlobs) Close() error { return nil }

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if strings.EqualFold(cfg.Log.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler).With("app", cfg.App.Name))
}

func run(ctx context.Context, cfg *config.Config) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	blobs, err := openBlobs(ctx, cfg)
	if err != nil {
		return err
	}
	defer blobs.Close()

	authn, err := auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return fmt.Errorf("configuring auth: %w", err)
	}

	registry := metrics.NewRegistry()

	var (
		invoiceService  = invoice.NewService(st.reports, invoice.WithRecorder(registry))
		factorService   = factor.NewService(st.factors)
		manifestService = manifest.NewService(blobs, st.manifests)
		reportService   = sustainability.NewService(st.items, factorService, manifestService,
			cfg.Policy(), cfg.App.OrgScope, sustainability.WithObserver(registry))
		itemService = inventory.NewService(st.items, inventory.WithProductTypes(reportService))
	)

	if err := factorService.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("seeding factor table: %w", err)
	}

	router := reclaimHttp.New(authn, registry, reclaimHttp.Handlers{
		Items:     itemHandler.NewHandler(itemService),
		Reports:   reportHandler.NewHandler(invoiceService),
		Factors:   factorHandler.NewHandler(factorService),
		Impact:    impactHandler.NewHandler(reportService, importer.NewParser()),
		Manifests: manifestHandler.NewHandler(reportService, manifestService),
	}, reclaimHttp.Options{
		Timeout:        cfg.Server.Timeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "port", srv.Addr, "store", cfg.Store.Driver, "blob", cfg.Blob.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Store.Driver == "memory" {
		slog.Warn("using in-memory store, data is lost on restart")

		mem := memstore.New()

		return &stores{items: mem, reports: mem, factors: mem, manifests: mem, close: func() error { return nil }}, nil
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &stores{
		items:     itemStore.New(db),
		reports:   invoiceStore.New(db),
		factors:   factorStore.New(db),
		manifests: manifestStore.New(db),
		close:     db.Close,
	}, nil
}

func openBlobs(ctx context.Context, cfg *config.Config) (blobStore, error) {
	if cfg.Blob.Driver == "gcs" {
		client, err := blob.NewGCSClient(ctx, cfg.Blob.GCSCredentialsJSON)
		if err != nil {
			return nil, err
		}

		return blob.NewGCS(client, cfg.Blob.GCSBucket), nil
	}

	return fsBlobs{blob.NewFS(cfg.Blob.Dir)}, nil
}
