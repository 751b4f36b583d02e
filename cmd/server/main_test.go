package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/arkabuild/interioquote/internal/catalog"
	"github.com/arkabuild/interioquote/internal/draft"
	"github.com/arkabuild/interioquote/internal/extras"
	"github.com/arkabuild/interioquote/internal/pricing"
	"github.com/arkabuild/interioquote/internal/quote"
	"github.com/arkabuild/interioquote/internal/seed"
	"github.com/arkabuild/interioquote/internal/store"
)

func newTestServer(t *testing.T) *server {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'viewer'
		);
	`)
	if err != nil {
		t.Fatalf("failed creating users table: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE invoices (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_by TEXT NOT NULL,
			role TEXT NOT NULL,
			client_name TEXT NOT NULL DEFAULT '',
			client_json TEXT NOT NULL,
			pricing_json TEXT NOT NULL,
			rooms_json TEXT NOT NULL,
			extras_json TEXT NOT NULL,
			grand_total NUMERIC NOT NULL
		);
	`)
	if err != nil {
		t.Fatalf("failed creating invoices table: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	drafts, err := draft.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open draft store: %v", err)
	}

	return &server{
		auth:     newAuthService(db, "test-secret"),
		invoices: store.NewInvoices(db),
		cat:      catalog.Default(),
		drafts:   drafts,
		writer:   draft.NewWriter(drafts, time.Millisecond, nil),
	}
}

func seedUser(t *testing.T, srv *server, email, password, role string) {
	t.Helper()

	_, err := srv.auth.db.Exec(`INSERT INTO users (email, password_hash, role) VALUES (?, ?, ?)`, email, seed.HashPassword(password), role)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
}

func authedRequest(t *testing.T, srv *server, method, target string, body any, sess session) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: srv.auth.createSessionValue(sess)})
	return req
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func sampleInvoice() quote.Invoice {
	return quote.Invoice{
		Client: quote.Client{
			Name:        "R. Iyer",
			Mobile:      "9876543210",
			SiteAddress: "14 Residency Rd, Bengaluru",
		},
		Pricing: pricing.Rates{FrameRate: 100, BoxRate: 140},
		Rooms: []quote.Room{
			{
				Name: "Master Bedroom",
				Type: "Bedroom",
				Items: []pricing.Item{
					{Name: "Wardrobe", Frame: pricing.Shape{Height: 10, Width: 5}, Box: pricing.Shape{Height: 2, Width: 2, Depth: 2}},
				},
				Accessories: []pricing.Accessory{{Name: "Hinge", Price: 200, Qty: 2}},
			},
		},
		Extras: []extras.Extra{{ID: 1700000000000, Key: "transport", Type: extras.KindFixed, Price: 1000}},
	}
}

func TestLoginReturnsRoleAndSetsCookie(t *testing.T) {
	srv := newTestServer(t)
	seedUser(t, srv, "admin@arkabuild.in", "secret", seed.RoleAdmin)

	body := bytes.NewBufferString(`{"email": "admin@arkabuild.in", "password": "secret"}`)
	req := httptest.NewRequest(http.MethodPost, "/login", body)
	rec := httptest.NewRecorder()
	srv.handleLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200", rec.Code)
	}

	var resp loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Role != seed.RoleAdmin {
		t.Fatalf("role = %q, want %q", resp.Role, seed.RoleAdmin)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookieName {
		t.Fatalf("expected a session cookie, got %+v", cookies)
	}
	sess, ok := srv.auth.verifySessionValue(cookies[0].Value)
	if !ok || sess.Email != "admin@arkabuild.in" || sess.Role != seed.RoleAdmin {
		t.Fatalf("cookie does not verify: %+v ok=%v", sess, ok)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	srv := newTestServer(t)
	seedUser(t, srv, "admin@arkabuild.in", "secret", seed.RoleAdmin)

	body := bytes.NewBufferString(`{"email": "admin@arkabuild.in", "password": "wrong"}`)
	rec := httptest.NewRecorder()
	srv.handleLogin(rec, httptest.NewRequest(http.MethodPost, "/login", body))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddlewareRejectsMissingSession(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAdminBlocksViewer(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	viewer := session{Email: "viewer@arkabuild.in", Role: seed.RoleViewer}
	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, srv, http.MethodPost, "/invoices", nil, viewer))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("viewer status = %d, want 403", rec.Code)
	}

	admin := session{Email: "admin@arkabuild.in", Role: seed.RoleAdmin}
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, srv, http.MethodPost, "/invoices", nil, admin))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d, want 200", rec.Code)
	}
}

func TestQuotePreviewComputesTotals(t *testing.T) {
	srv := newTestServer(t)
	sess := session{Email: "viewer@arkabuild.in", Role: seed.RoleViewer}

	rec := httptest.NewRecorder()
	srv.handleQuotePreview(rec, authedRequest(t, srv, http.MethodPost, "/quotes/preview", sampleInvoice(), sess))

	if rec.Code != http.StatusOK {
		t.Fatalf("preview status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp previewResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode preview response: %v", err)
	}

	if len(resp.Rooms) != 1 || resp.Rooms[0].Subtotal != 6520 {
		t.Fatalf("unexpected room subtotals: %+v", resp.Rooms)
	}
	if resp.ExtrasSubtotal != 1000 {
		t.Fatalf("extras subtotal = %v, want 1000", resp.ExtrasSubtotal)
	}
	if resp.GrandTotal != 7520 {
		t.Fatalf("grand total = %v, want 7520", resp.GrandTotal)
	}
	if resp.GrandTotalDisplay != "₹7,520.00" {
		t.Fatalf("grand total display = %q", resp.GrandTotalDisplay)
	}
}

func TestInvoiceCreateRequiresSiteAddress(t *testing.T) {
	srv := newTestServer(t)
	sess := session{Email: "admin@arkabuild.in", Role: seed.RoleAdmin}

	inv := sampleInvoice()
	inv.Client.SiteAddress = "  "

	rec := httptest.NewRecorder()
	srv.handleInvoiceCreate(rec, authedRequest(t, srv, http.MethodPost, "/invoices", inv, sess))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestInvoiceCreateRecalculatesAndClearsDraft(t *testing.T) {
	srv := newTestServer(t)
	sess := session{Email: "admin@arkabuild.in", Role: seed.RoleAdmin}

	if err := srv.drafts.Save(sess.Email, quote.Snapshot{Timestamp: 1}); err != nil {
		t.Fatalf("seed draft: %v", err)
	}

	inv := sampleInvoice()
	inv.GrandTotal = 42 // client-supplied totals are never trusted

	rec := httptest.NewRecorder()
	srv.handleInvoiceCreate(rec, authedRequest(t, srv, http.MethodPost, "/invoices", inv, sess))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var created quote.Invoice
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created invoice: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created invoice has no id")
	}
	if created.GrandTotal != 7520 {
		t.Fatalf("grand total = %v, want 7520", created.GrandTotal)
	}
	if created.CreatedBy != sess.Email || created.Role != seed.RoleAdmin {
		t.Fatalf("author not taken from session: %+v", created)
	}

	stored, err := srv.invoices.Get(created.ID)
	if err != nil {
		t.Fatalf("stored invoice: %v", err)
	}
	if stored.GrandTotal != 7520 {
		t.Fatalf("stored grand total = %v, want 7520", stored.GrandTotal)
	}

	if _, ok, _ := srv.drafts.Load(sess.Email); ok {
		t.Fatal("draft still present after save")
	}
}

func TestInvoiceGetMissingReturns404(t *testing.T) {
	srv := newTestServer(t)
	sess := session{Email: "viewer@arkabuild.in", Role: seed.RoleViewer}

	req := withURLParam(authedRequest(t, srv, http.MethodGet, "/invoices/nope", nil, sess), "id", "nope")
	rec := httptest.NewRecorder()
	srv.handleInvoiceGet(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestInvoiceUpdatePersistsRecalculatedTotals(t *testing.T) {
	srv := newTestServer(t)
	sess := session{Email: "admin@arkabuild.in", Role: seed.RoleAdmin}

	created, err := srv.invoices.Create(sampleInvoice())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	changed := created
	changed.Rooms[0].Accessories = nil // drops the 400 accessory line

	req := withURLParam(authedRequest(t, srv, http.MethodPut, "/invoices/"+created.ID, changed, sess), "id", created.ID)
	rec := httptest.NewRecorder()
	srv.handleInvoiceUpdate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	stored, err := srv.invoices.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.GrandTotal != 7120 {
		t.Fatalf("grand total = %v, want 7120", stored.GrandTotal)
	}
}

func TestDraftLifecycle(t *testing.T) {
	srv := newTestServer(t)
	sess := session{Email: "admin@arkabuild.in", Role: seed.RoleAdmin}

	snap := quote.Snapshot{
		Client:          quote.Client{Name: "R. Iyer"},
		GlobalFrameRate: 100,
		GlobalBoxRate:   140,
		Timestamp:       1700000000000,
	}

	rec := httptest.NewRecorder()
	srv.handleDraftPut(rec, authedRequest(t, srv, http.MethodPut, "/draft", snap, sess))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("put status = %d, want 202", rec.Code)
	}

	// The write is debounced; wait for it to land.
	deadline := time.Now().Add(time.Second)
	for {
		if _, ok, _ := srv.drafts.Load(sess.Email); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("draft write never landed")
		}
		time.Sleep(time.Millisecond)
	}

	rec = httptest.NewRecorder()
	srv.handleDraftGet(rec, authedRequest(t, srv, http.MethodGet, "/draft", nil, sess))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	var got quote.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode draft: %v", err)
	}
	if got.Client.Name != "R. Iyer" || got.GlobalBoxRate != 140 {
		t.Fatalf("unexpected draft: %+v", got)
	}

	rec = httptest.NewRecorder()
	srv.handleDraftDelete(rec, authedRequest(t, srv, http.MethodDelete, "/draft", nil, sess))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.handleDraftGet(rec, authedRequest(t, srv, http.MethodGet, "/draft", nil, sess))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}
