package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storecomponentes/store-app/internal/auth"
	"github.com/storecomponentes/store-app/internal/config"
	"github.com/storecomponentes/store-app/internal/db"
	"github.com/storecomponentes/store-app/internal/models"
	"github.com/storecomponentes/store-app/internal/password"
)

func newTestServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	cfg := config.Config{StaticDir: t.TempDir(), UploadDir: "uploads", MaxUploadSize: 2 << 20}
	if err := db.EnsureSchema(conn, cfg); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return New(conn, cfg), conn
}

func sessionCookie(t *testing.T, s auth.Session) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	auth.CreateSession(w, s)
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	return cookies[0]
}

func TestHealthEndpoints(t *testing.T) {
	handler, _ := newTestServer(t)

	for _, target := range []string{"/health", "/healthz"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", target, w.Code)
		}
		if !strings.Contains(w.Body.String(), `"ok"`) {
			t.Fatalf("%s: unexpected body %s", target, w.Body.String())
		}
	}
}

func TestHomeRendersAnonymously(t *testing.T) {
	handler, _ := newTestServer(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Store Componentes") {
		t.Fatalf("unexpected home body: %s", w.Body.String())
	}
}

func TestSuppliersRequireAdmin(t *testing.T) {
	handler, conn := newTestServer(t)

	// Anonymous: bounced to login.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/proveedores", nil))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %s", w.Code, w.Header().Get("Location"))
	}

	// Customer session: bounced home.
	digest, _ := password.Hash("secreto123")
	cliente := models.User{Username: "cliente", Email: "c@test.com", Password: digest}
	if err := conn.Create(&cliente).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/proveedores", nil)
	req.AddCookie(sessionCookie(t, auth.Session{UserID: cliente.ID, Username: "cliente"}))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect home, got %d %s", w.Code, w.Header().Get("Location"))
	}

	// Admin session: page renders.
	admin := models.User{Username: "jefa", Email: "j@test.com", Password: digest, EsAdmin: true}
	if err := conn.Create(&admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/proveedores", nil)
	req.AddCookie(sessionCookie(t, auth.Session{UserID: admin.ID, Username: "jefa", IsAdmin: true}))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", w.Code)
	}
}

func TestStatsAPIAnonymousIsEmptyNotForbidden(t *testing.T) {
	handler, _ := newTestServer(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/estadisticas/ventas-mensuales", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %s", w.Body.String())
	}
}

func TestLoginFlowThroughRouter(t *testing.T) {
	handler, conn := newTestServer(t)
	digest, err := password.Hash("secreto123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := models.User{Username: "ana", Email: "ana@test.com", Password: digest}
	if err := conn.Create(&u).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	form := strings.NewReader("username=ana&password=secreto123")
	req := httptest.NewRequest(http.MethodPost, "/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect home, got %d %s", w.Code, w.Header().Get("Location"))
	}

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatal("expected a session cookie after login")
	}

	// The session grants access to the sales page.
	req = httptest.NewRequest(http.MethodGet, "/ventas", nil)
	req.AddCookie(session)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d", w.Code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	handler, _ := newTestServer(t)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no-existe", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}
