package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arkabuild/interioquote/internal/catalog"
	"github.com/arkabuild/interioquote/internal/config"
	"github.com/arkabuild/interioquote/internal/db"
	"github.com/arkabuild/interioquote/internal/draft"
	"github.com/arkabuild/interioquote/internal/extras"
	"github.com/arkabuild/interioquote/internal/migrations"
	"github.com/arkabuild/interioquote/internal/money"
	"github.com/arkabuild/interioquote/internal/quote"
	"github.com/arkabuild/interioquote/internal/seed"
	"github.com/arkabuild/interioquote/internal/store"
)

const draftWriteDelay = 2 * time.Second

type server struct {
	auth     *authService
	invoices *store.Invoices
	cat      *catalog.Catalog
	drafts   *draft.Store
	writer   *draft.Writer
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type previewRoom struct {
	Name            string  `json:"name"`
	Subtotal        float64 `json:"subtotal"`
	SubtotalDisplay string  `json:"subtotalDisplay"`
}

type previewResponse struct {
	Rooms                 []previewRoom `json:"rooms"`
	RoomsSubtotal         float64       `json:"roomsSubtotal"`
	RoomsSubtotalDisplay  string        `json:"roomsSubtotalDisplay"`
	ExtrasSubtotal        float64       `json:"extrasSubtotal"`
	ExtrasSubtotalDisplay string        `json:"extrasSubtotalDisplay"`
	GrandTotal            float64       `json:"grandTotal"`
	GrandTotalDisplay     string        `json:"grandTotalDisplay"`
}

func main() {
	cfg := config.Load()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database); err != nil {
			log.Fatalf("failed to run database migrations: %v", err)
		}
	}

	stats, err := seed.Run(database, seed.Config{AdminEmail: cfg.AdminEmail, AdminPassword: cfg.AdminPassword})
	if err != nil {
		log.Fatalf("failed to seed database: %v", err)
	}
	if stats.Inserts > 0 {
		log.Printf("seeded %d user(s)", stats.Inserts)
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		cat, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			log.Fatalf("failed to load catalog: %v", err)
		}
	}

	drafts, err := draft.NewStore(cfg.DraftDir)
	if err != nil {
		log.Fatalf("failed to open draft store: %v", err)
	}
	writer := draft.NewWriter(drafts, draftWriteDelay, func(key string, err error) {
		log.Printf("draft write for %s failed: %v", key, err)
	})

	srv := &server{
		auth:     newAuthService(database, cfg.SessionSecret),
		invoices: store.NewInvoices(database),
		cat:      cat,
		drafts:   drafts,
		writer:   writer,
	}

	r := chi.NewRouter()
	r.Use(srv.authMiddleware)
	r.Post("/login", srv.handleLogin)
	r.Post("/logout", srv.handleLogout)
	r.Get("/invoices", srv.handleInvoicesList)
	r.Get("/invoices/{id}", srv.handleInvoiceGet)
	r.Post("/invoices", srv.requireAdmin(srv.handleInvoiceCreate))
	r.Put("/invoices/{id}", srv.requireAdmin(srv.handleInvoiceUpdate))
	r.Post("/quotes/preview", srv.handleQuotePreview)
	r.Get("/draft", srv.handleDraftGet)
	r.Put("/draft", srv.requireAdmin(srv.handleDraftPut))
	r.Delete("/draft", srv.requireAdmin(srv.handleDraftDelete))

	addr := ":" + cfg.Port
	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	role, valid, err := s.auth.validateCredentials(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "authentication error")
		return
	}
	if !valid {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.auth.setSessionCookie(w, session{Email: req.Email, Role: role})
	writeJSON(w, http.StatusOK, loginResponse{Email: req.Email, Role: role})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleInvoicesList(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.invoices.List(r.URL.Query().Get("q"))
	if err != nil {
		log.Printf("list invoices: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list invoices")
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *server) handleInvoiceGet(w http.ResponseWriter, r *http.Request) {
	inv, err := s.invoices.Get(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}
	if err != nil {
		log.Printf("get invoice: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load invoice")
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *server) handleInvoiceCreate(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromRequest(r, s.auth)

	var inv quote.Invoice
	if !decodeJSON(w, r, &inv) {
		return
	}
	if strings.TrimSpace(inv.Client.SiteAddress) == "" {
		writeError(w, http.StatusBadRequest, "site address is required")
		return
	}

	inv.CreatedBy = sess.Email
	inv.Role = sess.Role
	quote.Recalculate(&inv)

	created, err := s.invoices.Create(inv)
	if err != nil {
		log.Printf("create invoice: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to save invoice")
		return
	}

	// The composing draft is spent once the quote is saved.
	s.writer.Cancel(sess.Email)
	if err := s.drafts.Clear(sess.Email); err != nil {
		log.Printf("clear draft for %s: %v", sess.Email, err)
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *server) handleInvoiceUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var inv quote.Invoice
	if !decodeJSON(w, r, &inv) {
		return
	}
	if strings.TrimSpace(inv.Client.SiteAddress) == "" {
		writeError(w, http.StatusBadRequest, "site address is required")
		return
	}

	quote.Recalculate(&inv)

	err := s.invoices.Update(id, inv)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}
	if err != nil {
		log.Printf("update invoice: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to save invoice")
		return
	}

	inv.ID = id
	writeJSON(w, http.StatusOK, inv)
}

func (s *server) handleQuotePreview(w http.ResponseWriter, r *http.Request) {
	var inv quote.Invoice
	if !decodeJSON(w, r, &inv) {
		return
	}

	quote.Recalculate(&inv)

	rooms := make([]previewRoom, 0, len(inv.Rooms))
	for _, room := range inv.Rooms {
		subtotal := quote.RoomSubtotal(room)
		rooms = append(rooms, previewRoom{
			Name:            room.Name,
			Subtotal:        subtotal,
			SubtotalDisplay: money.Format(subtotal),
		})
	}

	roomsSubtotal := quote.RoomsSubtotal(inv.Rooms)
	extrasSubtotal := extras.Subtotal(inv.Extras)

	writeJSON(w, http.StatusOK, previewResponse{
		Rooms:                 rooms,
		RoomsSubtotal:         roomsSubtotal,
		RoomsSubtotalDisplay:  money.Format(roomsSubtotal),
		ExtrasSubtotal:        extrasSubtotal,
		ExtrasSubtotalDisplay: money.Format(extrasSubtotal),
		GrandTotal:            inv.GrandTotal,
		GrandTotalDisplay:     money.Format(inv.GrandTotal),
	})
}

func (s *server) handleDraftGet(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromRequest(r, s.auth)

	snap, ok, err := s.drafts.Load(sess.Email)
	if err != nil {
		log.Printf("load draft for %s: %v", sess.Email, err)
		writeError(w, http.StatusInternalServerError, "failed to load draft")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no draft")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *server) handleDraftPut(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromRequest(r, s.auth)

	var snap quote.Snapshot
	if !decodeJSON(w, r, &snap) {
		return
	}

	s.writer.Enqueue(sess.Email, snap)
	w.WriteHeader(http.StatusAccepted)
}

func (s *server) handleDraftDelete(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromRequest(r, s.auth)

	s.writer.Cancel(sess.Email)
	if err := s.drafts.Clear(sess.Email); err != nil {
		log.Printf("clear draft for %s: %v", sess.Email, err)
		writeError(w, http.StatusInternalServerError, "failed to clear draft")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			next.ServeHTTP(w, r)
			return
		}

		if _, ok := sessionFromRequest(r, s.auth); !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAdmin gates write endpoints; viewers get read access only.
func (s *server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromRequest(r, s.auth)
		if !ok || sess.Role != seed.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads the request body into v, answering 400 itself on bad
// input. The boolean tells the handler whether to continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
