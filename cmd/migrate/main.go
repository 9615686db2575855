package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jebol-id/adminduk-api/pkg/config"
	"github.com/jebol-id/adminduk-api/pkg/database"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		uuid UUID NOT NULL UNIQUE,
		username VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		notes VARCHAR(500),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_role ON users (role)`,
	`CREATE TABLE IF NOT EXISTS personal_access_tokens (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		token_hash VARCHAR(64) NOT NULL,
		abilities TEXT[] NOT NULL DEFAULT '{}',
		last_used_at TIMESTAMPTZ,
		expires_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_personal_access_tokens_user_id ON personal_access_tokens (user_id)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id UUID PRIMARY KEY,
		user_id UUID,
		action VARCHAR(64) NOT NULL,
		resource VARCHAR(64) NOT NULL,
		resource_id VARCHAR(64),
		new_values JSONB,
		ip_address VARCHAR(45),
		user_agent TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_user_id ON audit_logs (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs (action)`,
}

func main() {
	var (
		seedAdmin     bool
		adminUsername string
		adminPassword string
	)
	flag.BoolVar(&seedAdmin, "seed", false, "seed the initial SUPER_ADMIN account")
	flag.StringVar(&adminUsername, "admin-username", "superadmin", "username for the seeded SUPER_ADMIN")
	flag.StringVar(&adminPassword, "admin-password", "", "password for the seeded SUPER_ADMIN (required with -seed)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}
	log.Println("schema up to date")

	if !seedAdmin {
		return
	}
	if adminPassword == "" {
		log.Fatal("-seed requires -admin-password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	const insert = `INSERT INTO users (id, uuid, username, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'SUPER_ADMIN', TRUE, NOW(), NOW())
		ON CONFLICT (username) DO NOTHING`
	res, err := db.ExecContext(ctx, insert, uuid.NewString(), uuid.NewString(), adminUsername, string(hash))
	if err != nil {
		log.Fatalf("failed to seed SUPER_ADMIN: %v", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		log.Printf("SUPER_ADMIN %q already exists, seed skipped", adminUsername)
		return
	}
	log.Printf("SUPER_ADMIN %q seeded", adminUsername)
}
