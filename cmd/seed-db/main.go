// Command seed-db creates the schema, loads product catalogs and registers an
// API key.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/erp-inventory/internal/catalog"
	"github.com/xenking/erp-inventory/internal/domain/auth"
	"github.com/xenking/erp-inventory/internal/domain/product"
	"github.com/xenking/erp-inventory/internal/storage/postgres"
)

func main() {
	var (
		databaseURL  string
		productFiles string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productFiles, "products-file", "",
		"comma separated product JSON files, .gz allowed (default: built-in catalog)")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or ERP_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or ERP_AUTH_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("ERP_SEED_API_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("ERP_AUTH_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productFiles, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productFiles, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	store := postgres.NewStore(pool)

	products, err := readCatalogs(productFiles)
	if err != nil {
		return errors.Wrap(err, "read catalogs")
	}

	slog.Info("loading products", slog.Int("count", len(products)))

	res, err := catalog.Load(ctx, product.NewService(store.Products()), products)
	if err != nil {
		return errors.Wrap(err, "load products")
	}

	slog.Info("loaded products", slog.Int("created", res.Created), slog.Int("skipped", res.Skipped))

	if apiKey == "" {
		slog.Warn("no API key given, write routes need a key registered separately")
		return nil
	}
	if err := seedAPIKey(ctx, store.APIKeys(), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

// readCatalogs decodes the given files concurrently, keeping their order in
// the result.
func readCatalogs(files string) ([]product.NewProduct, error) {
	if files == "" {
		slog.Info("using built-in catalog")
		return catalog.Default()
	}

	paths := strings.Split(files, ",")
	parts := make([][]product.NewProduct, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		path = strings.TrimSpace(path)
		g.Go(func() error {
			slog.Info("reading products file", slog.String("path", path))
			ps, err := catalog.Open(path)
			if err != nil {
				return errors.Wrapf(err, "read %s", path)
			}
			parts[i] = ps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []product.NewProduct
	for _, ps := range parts {
		out = append(out, ps...)
	}
	return out, nil
}

func seedAPIKey(ctx context.Context, keys *postgres.APIKeyRepository, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	if err := keys.Upsert(ctx, auth.APIKeyInfo{
		ID:      "default",
		KeyHash: auth.HashKey([]byte(pepper), apiKey),
		Name:    "Default key",
		Scopes:  []string{auth.ScopeRead, auth.ScopeWrite},
	}); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"), slog.String("name", "Default key"))

	return nil
}
