package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/lib/pq"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/app"
	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/store"
	"github.com/shrimpsizemoose/gradebook/internal/store/postgres"
)

var demoGrades = []models.Grade{
	{Subject: "ML", Marks: 85},
	{Subject: "DBMS", Marks: 90},
}

func main() {
	var (
		configPath = flag.String("config", "config.toml", "Path to config file")
		adminDB    = flag.String("admin-db", "postgres", "Database to connect to while creating the target database")
		seedUser   = flag.String("seed-user", "pushpita", "User whose demo grades are replaced")
	)
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := setup(ctx, config, *adminDB, *seedUser); err != nil {
		logger.Error.Printf("Database setup failed: %v", err)
		if hint := remediation(err); hint != "" {
			logger.Error.Println(hint)
		}
		logger.Error.Fatalf("Fix the problem above and run setupdb again")
	}
	logger.Info.Println("Database setup complete")
}

func setup(ctx context.Context, config *app.Config, adminDB, seedUser string) error {
	dsn := config.Database.DSN

	if store.DetectType(dsn) == store.DBTypePostgres {
		adminDSN, name, err := adminTarget(dsn, adminDB)
		if err != nil {
			return err
		}
		created, err := postgres.CreateDatabase(ctx, adminDSN, name)
		if err != nil {
			return err
		}
		if created {
			logger.Info.Printf("Created database %s", name)
		} else {
			logger.Info.Printf("Database %s already exists", name)
		}
	}

	db, err := app.NewStore(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		return err
	}
	if err := db.ApplyMigrations(config.Database.MigrationsDir); err != nil {
		return err
	}

	if err := db.SeedGrades(ctx, seedUser, demoGrades); err != nil {
		return err
	}
	for _, g := range demoGrades {
		logger.Info.Printf("Seeded %s: %s = %d", seedUser, g.Subject, g.Marks)
	}
	return nil
}

// adminTarget swaps the database in dsn for adminDB and also returns the target
// database name.
func adminTarget(dsn, adminDB string) (string, string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", "", fmt.Errorf("invalid database DSN: %w", err)
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return "", "", fmt.Errorf("database DSN does not name a database")
	}
	u.Path = "/" + adminDB
	return u.String(), name, nil
}

func remediation(err error) string {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return "The database server is not running. Start it (for example `docker compose up -d postgres` or `systemctl start postgresql`) and retry."
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "28P01", "28000":
			return "Access denied. Check the user and password in [database] dsn of your config."
		case "42501":
			return "The configured user may not create databases. Create it by hand or grant CREATEDB."
		}
	}
	return ""
}
