// Command seed-db loads the service catalog, launch discount codes, and the
// initial admin account into the database. All inserts are upserts, so the
// command is safe to re-run.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/resumedesk/server/internal/repository"
)

func main() {
	var (
		databaseURL   string
		adminUser     string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&adminUser, "admin-user", "admin", "admin console username")
	flag.StringVar(&adminPassword, "admin-password", "", "admin console password (or RESUMEDESK_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("RESUMEDESK_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or RESUMEDESK_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, adminUser, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, adminUser, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedServices(ctx, pool); err != nil {
		return errors.Wrap(err, "seed services")
	}
	if err := seedDiscountCodes(ctx, pool); err != nil {
		return errors.Wrap(err, "seed discount codes")
	}
	if err := seedAdmin(ctx, pool, adminUser, adminPassword); err != nil {
		return errors.Wrap(err, "seed admin")
	}

	return nil
}

const upsertServiceSQL = `INSERT INTO services (name, description, price_basic, price_standard, price_premium, active)
	VALUES ($1, $2, $3, $4, $5, TRUE)
	ON CONFLICT (name) DO UPDATE SET
		description = EXCLUDED.description,
		price_basic = EXCLUDED.price_basic,
		price_standard = EXCLUDED.price_standard,
		price_premium = EXCLUDED.price_premium,
		active = TRUE`

func seedServices(ctx context.Context, pool *pgxpool.Pool) error {
	services := []struct {
		name, description        string
		basic, standard, premium int64
	}{
		{
			name:        "Professional Resume Writing",
			description: "ATS-optimized resume written by an industry expert.",
			basic:       99, standard: 149, premium: 199,
		},
		{
			name:        "Cover Letter Writing",
			description: "A tailored cover letter that tells your story.",
			basic:       49, standard: 79, premium: 109,
		},
		{
			name:        "LinkedIn Profile Optimization",
			description: "A keyword-rich LinkedIn profile recruiters can find.",
			basic:       79, standard: 119, premium: 159,
		},
		{
			name:        "Executive Career Package",
			description: "Resume, cover letter, and LinkedIn profile for senior roles.",
			basic:       299, standard: 399, premium: 499,
		},
	}

	slog.Info("upserting services", slog.Int("count", len(services)))

	for _, s := range services {
		_, err := pool.Exec(ctx, upsertServiceSQL, s.name, s.description,
			decimal.NewFromInt(s.basic), decimal.NewFromInt(s.standard), decimal.NewFromInt(s.premium))
		if err != nil {
			return errors.Wrapf(err, "upsert service %q", s.name)
		}
		slog.Info("upserted service", slog.String("name", s.name))
	}

	return nil
}

const upsertDiscountCodeSQL = `INSERT INTO discount_codes (code, discount_type, value, min_order_amount, max_uses, active)
	VALUES ($1, $2, $3, $4, $5, TRUE)
	ON CONFLICT (code) DO UPDATE SET
		discount_type = EXCLUDED.discount_type,
		value = EXCLUDED.value,
		min_order_amount = EXCLUDED.min_order_amount,
		max_uses = EXCLUDED.max_uses,
		active = TRUE`

func seedDiscountCodes(ctx context.Context, pool *pgxpool.Pool) error {
	codes := []struct {
		code, kind string
		value      decimal.Decimal
		minOrder   decimal.Decimal
		maxUses    int
	}{
		// WELCOME10 is promised by the newsletter welcome email.
		{code: "WELCOME10", kind: "percentage", value: decimal.NewFromInt(10), minOrder: decimal.Zero, maxUses: 0},
		{code: "SAVE10", kind: "percentage", value: decimal.NewFromInt(10), minOrder: decimal.NewFromInt(100), maxUses: 0},
		{code: "LAUNCH25", kind: "fixed", value: decimal.NewFromInt(25), minOrder: decimal.NewFromInt(150), maxUses: 500},
	}

	slog.Info("upserting discount codes", slog.Int("count", len(codes)))

	for _, c := range codes {
		_, err := pool.Exec(ctx, upsertDiscountCodeSQL, c.code, c.kind, c.value, c.minOrder, c.maxUses)
		if err != nil {
			return errors.Wrapf(err, "upsert discount code %s", c.code)
		}
		slog.Info("upserted discount code", slog.String("code", c.code))
	}

	return nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, username, password string) error {
	slog.Info("seeding admin account", slog.String("username", username))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}

	admins := repository.NewAdminRepository(pool)
	if err := admins.Upsert(ctx, username, string(hash)); err != nil {
		return err
	}

	slog.Info("upserted admin account", slog.String("username", username))
	return nil
}
