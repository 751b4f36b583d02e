package seed

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// Roles recognized by the service. Admins may create and edit invoices;
// viewers only read.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way: it ensures the
// configured admin user exists. Catalog data is configuration, not rows, so
// nothing else is seeded.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensureUser(tx, cfg.AdminEmail, cfg.AdminPassword, RoleAdmin, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureUser(tx *sql.Tx, email, password, role string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check user existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`INSERT INTO users (email, password_hash, role) VALUES (?, ?, ?)`, email, HashPassword(password), role); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	stats.Inserts++
	return nil
}

// HashPassword is the credential hash scheme shared with the login path.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
