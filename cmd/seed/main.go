package main

import (
	"context"
	"flag"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"auditdrive/internal/config"
	"auditdrive/internal/repository/postgres"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before creating schema (fresh start)")
	demoData := flag.Bool("demo-data", false, "Insert a demo client after schema setup")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run --drop-tables in production environment")
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Printf("📋 Ensuring database schema is up to date (prefix: %s)...", cfg.TablePrefix)
	if err := runSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *demoData {
		if err := seedDemoClient(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
		log.Println("✅ Demo client seeded")
	}
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`); err != nil {
		return err
	}

	createClients := `
		CREATE TABLE IF NOT EXISTS ` + tables.Clients + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL,
			company_type TEXT NOT NULL,
			created_by TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createClients); err != nil {
		return err
	}

	// One active client per name; soft-deleted rows don't block re-registration
	uniqueClients := `
		CREATE UNIQUE INDEX IF NOT EXISTS ` + tables.Clients + `_name_active
		ON ` + tables.Clients + ` (name) WHERE active
	`
	if _, err := pool.Exec(ctx, uniqueClients); err != nil {
		return err
	}

	createProjects := `
		CREATE TABLE IF NOT EXISTS ` + tables.Projects + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			client_id UUID NOT NULL REFERENCES ` + tables.Clients + `(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			project_type TEXT NOT NULL,
			drive_folder_id TEXT NOT NULL,
			created_by TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createProjects); err != nil {
		return err
	}

	uniqueProjects := `
		CREATE UNIQUE INDEX IF NOT EXISTS ` + tables.Projects + `_client_name_active
		ON ` + tables.Projects + ` (client_id, name, project_type) WHERE active
	`
	if _, err := pool.Exec(ctx, uniqueProjects); err != nil {
		return err
	}

	createFolderCache := `
		CREATE TABLE IF NOT EXISTS ` + tables.FolderCache + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL,
			parent_ref TEXT,
			remote_id TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createFolderCache); err != nil {
		return err
	}

	// At most one active row per (name, parent_ref). NULL parent_ref means
	// the hierarchy root, so it collapses to '' for uniqueness.
	uniqueFolderCache := `
		CREATE UNIQUE INDEX IF NOT EXISTS ` + tables.FolderCache + `_segment_active
		ON ` + tables.FolderCache + ` (name, COALESCE(parent_ref, '')) WHERE active
	`
	if _, err := pool.Exec(ctx, uniqueFolderCache); err != nil {
		return err
	}

	createGrants := `
		CREATE TABLE IF NOT EXISTS ` + tables.Grants + ` (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			project_id UUID NOT NULL REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			has_access BOOLEAN NOT NULL,
			assigned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createGrants); err != nil {
		return err
	}

	// Serves both the per-user visibility read and the newest-first listings
	grantIndex := `
		CREATE INDEX IF NOT EXISTS ` + tables.Grants + `_user_project_assigned
		ON ` + tables.Grants + ` (user_id, project_id, assigned_at DESC)
	`
	if _, err := pool.Exec(ctx, grantIndex); err != nil {
		return err
	}

	return nil
}

// dropAllTables removes every table, newest dependency first
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, table := range []string{tables.Grants, tables.Projects, tables.Clients, tables.FolderCache} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
	}
	return nil
}

func seedDemoClient(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	query := `
		INSERT INTO ` + tables.Clients + ` (name, company_type, created_by)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	_, err := pool.Exec(ctx, query, "Demo Client", "private_label", "seed")
	return err
}
