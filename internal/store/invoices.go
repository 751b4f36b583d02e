// Package store persists invoice documents. Structured parts of the
// document are kept as JSON columns; the grand total is denormalized into
// its own column for list queries.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arkabuild/interioquote/internal/extras"
	"github.com/arkabuild/interioquote/internal/quote"
)

// ErrNotFound is returned when no invoice exists for the requested id.
var ErrNotFound = errors.New("invoice not found")

const timeLayout = "2006-01-02 15:04:05"

// Invoices is the invoice repository.
type Invoices struct {
	db *sql.DB
}

// NewInvoices returns a repository over db.
func NewInvoices(db *sql.DB) *Invoices {
	return &Invoices{db: db}
}

// Summary is one row of the invoice list.
type Summary struct {
	ID         string  `json:"id"`
	ClientName string  `json:"clientName"`
	GrandTotal float64 `json:"grandTotal"`
	CreatedAt  string  `json:"createdAt"`
	CreatedBy  string  `json:"createdBy"`
}

// Create inserts a new invoice under a fresh id and returns the stored
// document.
func (s *Invoices) Create(inv quote.Invoice) (quote.Invoice, error) {
	inv.ID = uuid.NewString()

	cols, err := encodeColumns(inv)
	if err != nil {
		return quote.Invoice{}, err
	}

	_, err = s.db.Exec(`
		INSERT INTO invoices (id, created_by, role, client_name, client_json, pricing_json, rooms_json, extras_json, grand_total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, inv.ID, inv.CreatedBy, inv.Role, inv.Client.Name, cols.client, cols.pricing, cols.rooms, cols.extras, inv.GrandTotal)
	if err != nil {
		return quote.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}

	return inv, nil
}

// Update replaces the stored document for id.
func (s *Invoices) Update(id string, inv quote.Invoice) error {
	cols, err := encodeColumns(inv)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(`
		UPDATE invoices
		SET
			client_name = ?,
			client_json = ?,
			pricing_json = ?,
			rooms_json = ?,
			extras_json = ?,
			grand_total = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, inv.Client.Name, cols.client, cols.pricing, cols.rooms, cols.extras, inv.GrandTotal, id)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Get loads the full invoice document for id.
func (s *Invoices) Get(id string) (quote.Invoice, error) {
	var (
		inv                  quote.Invoice
		createdAt, updatedAt string
		cols                 columns
	)

	err := s.db.QueryRow(`
		SELECT id, created_at, updated_at, created_by, role, client_json, pricing_json, rooms_json, extras_json, grand_total
		FROM invoices
		WHERE id = ?
	`, id).Scan(
		&inv.ID,
		&createdAt,
		&updatedAt,
		&inv.CreatedBy,
		&inv.Role,
		&cols.client,
		&cols.pricing,
		&cols.rooms,
		&cols.extras,
		&inv.GrandTotal,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return quote.Invoice{}, ErrNotFound
	}
	if err != nil {
		return quote.Invoice{}, fmt.Errorf("query invoice: %w", err)
	}

	if err := decodeColumns(cols, &inv); err != nil {
		return quote.Invoice{}, err
	}
	inv.CreatedAt = parseTimestamp(createdAt)
	inv.UpdatedAt = parseTimestamp(updatedAt)

	return inv, nil
}

// List returns invoice summaries, newest first, optionally filtered by
// client name or author.
func (s *Invoices) List(query string) ([]Summary, error) {
	search := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT id, client_name, grand_total, created_at, created_by
		FROM invoices
		WHERE (? = '' OR client_name LIKE ? OR created_by LIKE ?)
		ORDER BY datetime(created_at) DESC, id DESC
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var item Summary
		if err := rows.Scan(&item.ID, &item.ClientName, &item.GrandTotal, &item.CreatedAt, &item.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan invoice summary: %w", err)
		}
		summaries = append(summaries, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}

	return summaries, nil
}

type columns struct {
	client  string
	pricing string
	rooms   string
	extras  string
}

func encodeColumns(inv quote.Invoice) (columns, error) {
	client, err := json.Marshal(inv.Client)
	if err != nil {
		return columns{}, fmt.Errorf("encode client: %w", err)
	}
	rates, err := json.Marshal(inv.Pricing)
	if err != nil {
		return columns{}, fmt.Errorf("encode pricing: %w", err)
	}
	rooms, err := json.Marshal(emptyRooms(inv.Rooms))
	if err != nil {
		return columns{}, fmt.Errorf("encode rooms: %w", err)
	}
	xs, err := json.Marshal(emptyExtras(inv.Extras))
	if err != nil {
		return columns{}, fmt.Errorf("encode extras: %w", err)
	}
	return columns{
		client:  string(client),
		pricing: string(rates),
		rooms:   string(rooms),
		extras:  string(xs),
	}, nil
}

func decodeColumns(cols columns, inv *quote.Invoice) error {
	if err := json.Unmarshal([]byte(cols.client), &inv.Client); err != nil {
		return fmt.Errorf("decode client: %w", err)
	}
	if err := json.Unmarshal([]byte(cols.pricing), &inv.Pricing); err != nil {
		return fmt.Errorf("decode pricing: %w", err)
	}
	if err := json.Unmarshal([]byte(cols.rooms), &inv.Rooms); err != nil {
		return fmt.Errorf("decode rooms: %w", err)
	}
	if err := json.Unmarshal([]byte(cols.extras), &inv.Extras); err != nil {
		return fmt.Errorf("decode extras: %w", err)
	}
	return nil
}

func emptyRooms(rooms []quote.Room) []quote.Room {
	if rooms == nil {
		return []quote.Room{}
	}
	return rooms
}

func emptyExtras(xs []extras.Extra) []extras.Extra {
	if xs == nil {
		return []extras.Extra{}
	}
	return xs
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
