package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

const usage = "Usage: go run ./cmd/migrate [drop|up|seed|file <path.sql>]"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	case "file":
		if len(os.Args) < 3 {
			fmt.Println(usage)
			os.Exit(1)
		}
		if err := runFile(ctx, conn, os.Args[2]); err != nil {
			log.Fatalf("Failed to run migration file: %v", err)
		}
		fmt.Printf("✅ Applied %s\n", os.Args[2])

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS submissions CASCADE`,
		`DROP TABLE IF EXISTS events CASCADE`,
		`DROP TABLE IF EXISTS users CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(128) PRIMARY KEY,
			name VARCHAR(255) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL DEFAULT '',
			mobile VARCHAR(20) NOT NULL DEFAULT '',
			is_admin BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS events (
			id VARCHAR(64) PRIMARY KEY,
			owner_id VARCHAR(128) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			event_date TIMESTAMPTZ NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			location_type VARCHAR(10) NOT NULL DEFAULT 'manual',
			contact_name VARCHAR(255) NOT NULL DEFAULT '',
			contact_phone VARCHAR(20) NOT NULL DEFAULT '',
			contact_email VARCHAR(255) NOT NULL DEFAULT '',
			category VARCHAR(10) NOT NULL DEFAULT 'free',
			amount NUMERIC(10, 2),
			status VARCHAR(10) NOT NULL DEFAULT 'ACTIVE',
			fields JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS submissions (
			id VARCHAR(64) PRIMARY KEY DEFAULT gen_random_uuid()::text,
			event_id VARCHAR(64) NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			data JSONB NOT NULL DEFAULT '{}'::jsonb,
			primary_value VARCHAR(255) NOT NULL DEFAULT '',
			submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_events_owner_id ON events(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_event_date ON events(event_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_event_id ON submissions(event_id, submitted_at DESC)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
		fmt.Printf("  Created: %s\n", getTableName(query))
	}

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO users (id, name, email, mobile, is_admin) VALUES
		('demo-admin', 'Demo Admin', 'admin@example.com', '9000000001', true),
		('demo-organizer', 'Demo Organizer', 'organizer@example.com', '9000000002', false)
		ON CONFLICT (id) DO NOTHING
	`); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	fmt.Println("  Seeded 2 users")

	fields := `[
		{"id":"field_name","label":"Full Name","type":"text","required":true,"isPrimary":false,"options":[]},
		{"id":"field_mobile","label":"Mobile","type":"mobile","required":true,"isPrimary":true,"options":[]},
		{"id":"field_size","label":"T-shirt Size","type":"dropdown","required":false,"isPrimary":false,"options":["S","M","L"]}
	]`
	eventDate := time.Now().Add(14 * 24 * time.Hour).UTC().Truncate(time.Hour)

	if _, err := tx.Exec(ctx, `
		INSERT INTO events (id, owner_id, name, description, event_date, location, contact_name, contact_email, fields)
		VALUES ('demo-event', 'demo-organizer', 'Community Running Meetup', 'A 5k morning run',
			$1, 'City Park Gate 2', 'Demo Organizer', 'organizer@example.com', $2::jsonb)
		ON CONFLICT (id) DO NOTHING
	`, eventDate, fields); err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}
	fmt.Println("  Seeded 1 event")

	for i := 1; i <= 12; i++ {
		data := fmt.Sprintf(`{"Full Name":"Runner %02d","Mobile":"98%08d","T-shirt Size":"M"}`, i, i)
		if _, err := tx.Exec(ctx, `
			INSERT INTO submissions (id, event_id, data, primary_value, submitted_at)
			VALUES ($1, 'demo-event', $2::jsonb, $3, NOW() - make_interval(hours => $4))
			ON CONFLICT (id) DO NOTHING
		`, fmt.Sprintf("demo-sub-%02d", i), data, fmt.Sprintf("98%08d", i), i); err != nil {
			return fmt.Errorf("failed to seed submissions: %w", err)
		}
	}
	fmt.Println("  Seeded 12 submissions")

	return tx.Commit(ctx)
}

func runFile(ctx context.Context, conn *pgx.Conn, path string) error {
	sqlBytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	if _, err := conn.Exec(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("failed to execute %s: %w", path, err)
	}
	return nil
}

func getTableName(query string) string {
	if len(query) > 50 {
		return query[:50] + "..."
	}
	return query
}
