package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storecomponentes/store-app/internal/auth"
	"github.com/storecomponentes/store-app/internal/config"
	"github.com/storecomponentes/store-app/internal/models"
	"github.com/storecomponentes/store-app/internal/password"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Supplier{}, &models.Product{},
		&models.Sale{}, &models.SaleLine{},
		&models.Purchase{}, &models.PurchaseLine{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestHandler(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	cfg := config.Config{
		StaticDir:     t.TempDir(),
		UploadDir:     "uploads",
		MaxUploadSize: 2 << 20,
	}
	return New(db, cfg), db
}

func seedUser(t *testing.T, db *gorm.DB, username, plain string, admin bool) *models.User {
	t.Helper()
	digest, err := password.Hash(plain)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := models.User{Username: username, Email: username + "@test.com", Password: digest, EsAdmin: admin}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &u
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func asUser(req *http.Request, u *models.User) *http.Request {
	s := &auth.Session{UserID: u.ID, Username: u.Username, IsAdmin: u.EsAdmin}
	return req.WithContext(auth.WithSession(req.Context(), s))
}

func TestRegisterCreatesUser(t *testing.T) {
	h, db := newTestHandler(t)

	w := httptest.NewRecorder()
	h.Register(w, postForm("/registro", url.Values{
		"username":           {"ana"},
		"email":              {"ana@test.com"},
		"password":           {"secreto123"},
		"confirmar_password": {"secreto123"},
	}))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %s", loc)
	}
	u, err := models.FindUserByUsername(db, "ana")
	if err != nil || u == nil {
		t.Fatalf("user not created: %v", err)
	}
	if u.EsAdmin {
		t.Fatal("self-registered accounts must not be admin")
	}
	ok, err := password.Verify(u.Password, "secreto123")
	if err != nil || !ok {
		t.Fatalf("stored password must verify: ok=%v err=%v", ok, err)
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	h, db := newTestHandler(t)

	w := httptest.NewRecorder()
	h.Register(w, postForm("/registro", url.Values{
		"username":           {"ana"},
		"email":              {"ana@test.com"},
		"password":           {"secreto123"},
		"confirmar_password": {"distinta"},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected re-rendered form, got %d", w.Code)
	}
	u, _ := models.FindUserByUsername(db, "ana")
	if u != nil {
		t.Fatal("user must not be created on mismatch")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	h, db := newTestHandler(t)
	seedUser(t, db, "ana", "loquesea12", false)

	w := httptest.NewRecorder()
	h.Register(w, postForm("/registro", url.Values{
		"username":           {"ana"},
		"email":              {"otra@test.com"},
		"password":           {"secreto123"},
		"confirmar_password": {"secreto123"},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected re-rendered form, got %d", w.Code)
	}
	var n int64
	db.Model(&models.User{}).Where("username = ?", "ana").Count(&n)
	if n != 1 {
		t.Fatalf("expected 1 account, got %d", n)
	}
}

func TestLoginWrongPasswordSetsNoSession(t *testing.T) {
	h, db := newTestHandler(t)
	seedUser(t, db, "ana", "secreto123", false)

	w := httptest.NewRecorder()
	h.Login(w, postForm("/login", url.Values{
		"username": {"ana"},
		"password": {"equivocada"},
	}))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect back to /login, got %d %s", w.Code, w.Header().Get("Location"))
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" && c.Value != "" {
			t.Fatal("session cookie must not be set on failed login")
		}
	}
}

func TestLoginSuccessSetsSession(t *testing.T) {
	h, db := newTestHandler(t)
	u := seedUser(t, db, "ana", "secreto123", true)

	w := httptest.NewRecorder()
	h.Login(w, postForm("/login", url.Values{
		"username": {"ana"},
		"password": {"secreto123"},
	}))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect home, got %d %s", w.Code, w.Header().Get("Location"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	s, ok := auth.ParseSession(req)
	if !ok {
		t.Fatal("expected a valid session cookie")
	}
	if s.UserID != u.ID || !s.IsAdmin {
		t.Fatalf("unexpected session: %+v", s)
	}
}

func TestCreateSaleFromCart(t *testing.T) {
	h, db := newTestHandler(t)
	u := seedUser(t, db, "cliente", "secreto123", false)
	p := models.Product{Nombre: "Cable", Referencia: "CAB-01", PrecioCompra: 2, PrecioVenta: 5, StockActual: 10}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	w := httptest.NewRecorder()
	h.CreateSale(w, asUser(postForm("/ventas/crear", url.Values{
		"carrito_datos": {`[{"id":` + uitoa(p.ID) + `,"precio":5,"cantidad":3}]`},
	}), u))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Location"), "/ventas/") {
		t.Fatalf("expected redirect to the sale detail, got %s", w.Header().Get("Location"))
	}

	var sale models.Sale
	if err := db.First(&sale).Error; err != nil {
		t.Fatalf("sale missing: %v", err)
	}
	if sale.ClienteID != u.ID || sale.Total != 15 {
		t.Fatalf("unexpected sale: %+v", sale)
	}
	got, _ := models.FindProduct(db, p.ID)
	if got.StockActual != 7 {
		t.Fatalf("stock after checkout: expected 7, got %d", got.StockActual)
	}
}

func TestCreateSaleClampsQuantityToStock(t *testing.T) {
	h, db := newTestHandler(t)
	u := seedUser(t, db, "cliente", "secreto123", false)
	p := models.Product{Nombre: "Cable", Referencia: "CAB-01", PrecioCompra: 2, PrecioVenta: 5, StockActual: 4}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	w := httptest.NewRecorder()
	h.CreateSale(w, asUser(postForm("/ventas/crear", url.Values{
		"carrito_datos": {`[{"id":` + uitoa(p.ID) + `,"precio":5,"cantidad":20}]`},
	}), u))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", w.Code)
	}

	var line models.SaleLine
	if err := db.First(&line).Error; err != nil {
		t.Fatalf("line missing: %v", err)
	}
	if line.Cantidad != 4 {
		t.Fatalf("expected clamped quantity 4, got %d", line.Cantidad)
	}
	got, _ := models.FindProduct(db, p.ID)
	if got.StockActual != 0 {
		t.Fatalf("expected stock exhausted, got %d", got.StockActual)
	}
}

func TestCreateSaleEmptyCart(t *testing.T) {
	h, db := newTestHandler(t)
	u := seedUser(t, db, "cliente", "secreto123", false)

	w := httptest.NewRecorder()
	h.CreateSale(w, asUser(postForm("/ventas/crear", url.Values{
		"carrito_datos": {"[]"},
	}), u))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/ventas/crear" {
		t.Fatalf("expected redirect back to the form, got %d %s", w.Code, w.Header().Get("Location"))
	}
	var n int64
	db.Model(&models.Sale{}).Count(&n)
	if n != 0 {
		t.Fatalf("no sale must be created, got %d", n)
	}
}

func TestCreateSaleFormShowsFeaturedProducts(t *testing.T) {
	h, db := newTestHandler(t)
	u := seedUser(t, db, "cliente", "secreto123", false)

	// Four high-margin products plus one barely profitable; the form shows
	// only the four best.
	for _, nombre := range []string{"Ratón", "Teclado", "Monitor", "Cable"} {
		p := models.Product{Nombre: nombre, Referencia: "REF-" + nombre, PrecioCompra: 10, PrecioVenta: 20, StockActual: 5}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}
	peor := models.Product{Nombre: "Adaptador viejo", Referencia: "REF-ADP", PrecioCompra: 10, PrecioVenta: 11, StockActual: 5}
	if err := db.Create(&peor).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	w := httptest.NewRecorder()
	h.CreateSaleForm(w, asUser(httptest.NewRequest(http.MethodGet, "/ventas/crear", nil), u))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Ratón") {
		t.Fatal("expected a high-margin product on the form")
	}
	if strings.Contains(body, "Adaptador viejo") {
		t.Fatal("the lowest-margin product must not make the shortlist")
	}
}

func TestMonthlySalesAPIDefaultWindow(t *testing.T) {
	h, db := newTestHandler(t)
	u := seedUser(t, db, "cliente", "secreto123", false)
	old := models.Sale{ClienteID: u.ID, Fecha: time.Now().AddDate(0, 0, -90), Total: 99}
	recent := models.Sale{ClienteID: u.ID, Fecha: time.Now(), Total: 20}
	for _, s := range []*models.Sale{&old, &recent} {
		if err := db.Create(s).Error; err != nil {
			t.Fatalf("seed sale: %v", err)
		}
	}

	// Without an explicit dias parameter the window is the last 30 days.
	w := httptest.NewRecorder()
	h.MonthlySalesAPI(w, asUser(httptest.NewRequest(http.MethodGet, "/api/estadisticas/ventas-mensuales", nil), u))
	var rows []struct {
		Mes   string  `json:"mes"`
		Total float64 `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].Total != 20 {
		t.Fatalf("expected only the recent month, got %+v", rows)
	}
}

func TestSaleDetailOwnershipEnforced(t *testing.T) {
	h, db := newTestHandler(t)
	owner := seedUser(t, db, "ana", "secreto123", false)
	intruder := seedUser(t, db, "bruno", "secreto123", false)
	sale := models.Sale{ClienteID: owner.ID, Fecha: time.Now(), Total: 10}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/ventas/"+uitoa(sale.ID), nil)
	req.SetPathValue("id", uitoa(sale.ID))
	w := httptest.NewRecorder()
	h.SaleDetail(w, asUser(req, intruder))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/ventas" {
		t.Fatalf("expected redirect to /ventas, got %d %s", w.Code, w.Header().Get("Location"))
	}
}

func TestCreatePurchaseIncrementsStock(t *testing.T) {
	h, db := newTestHandler(t)
	admin := seedUser(t, db, "admin", "secreto123", true)
	s := models.Supplier{Nombre: "ACME", CIF: "B123", IVA: 21}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	p := models.Product{Nombre: "Cable", Referencia: "CAB-01", PrecioCompra: 2, PrecioVenta: 5, StockActual: 1, ProveedorID: &s.ID}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	w := httptest.NewRecorder()
	h.CreatePurchase(w, asUser(postForm("/compras/crear", url.Values{
		"proveedor_id":    {uitoa(s.ID)},
		"productos_datos": {`[{"id":` + uitoa(p.ID) + `,"precio":2,"cantidad":25}]`},
	}), admin))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", w.Code)
	}

	got, _ := models.FindProduct(db, p.ID)
	if got.StockActual != 26 {
		t.Fatalf("stock after purchase: expected 26, got %d", got.StockActual)
	}
	var purchase models.Purchase
	if err := db.First(&purchase).Error; err != nil {
		t.Fatalf("purchase missing: %v", err)
	}
	if purchase.Total != 50 {
		t.Fatalf("expected total 50, got %v", purchase.Total)
	}
}

func TestCreatePurchaseWithoutSupplierRerendersForm(t *testing.T) {
	h, db := newTestHandler(t)
	admin := seedUser(t, db, "admin", "secreto123", true)

	w := httptest.NewRecorder()
	h.CreatePurchase(w, asUser(postForm("/compras/crear", url.Values{
		"productos_datos": {"[]"},
	}), admin))
	if w.Code != http.StatusOK {
		t.Fatalf("expected re-rendered form, got %d", w.Code)
	}
	var n int64
	db.Model(&models.Purchase{}).Count(&n)
	if n != 0 {
		t.Fatalf("no purchase must be created, got %d", n)
	}
}

func TestDeleteSupplierWithProductsRefused(t *testing.T) {
	h, db := newTestHandler(t)
	admin := seedUser(t, db, "admin", "secreto123", true)
	acme := models.Supplier{Nombre: "ACME", CIF: "B123", IVA: 21}
	if err := db.Create(&acme).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	p := models.Product{Nombre: "Cable HDMI", Referencia: "CAB-01", PrecioCompra: 2, PrecioVenta: 5, ProveedorID: &acme.ID}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	req := asUser(postForm("/proveedores/"+uitoa(acme.ID)+"/eliminar", url.Values{}), admin)
	req.SetPathValue("id", uitoa(acme.ID))
	w := httptest.NewRecorder()
	h.DeleteSupplier(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", w.Code)
	}
	still, _ := models.FindSupplier(db, acme.ID)
	if still == nil {
		t.Fatal("supplier must survive while products reference it")
	}
}

func TestDeleteUserRequiresAdminPassword(t *testing.T) {
	h, db := newTestHandler(t)
	admin := seedUser(t, db, "admin", "secreto123", true)
	victim := seedUser(t, db, "ana", "loquesea12", false)

	req := asUser(postForm("/usuarios/"+uitoa(victim.ID)+"/eliminar", url.Values{
		"admin_password": {"incorrecta"},
	}), admin)
	req.SetPathValue("id", uitoa(victim.ID))
	w := httptest.NewRecorder()
	h.DeleteUser(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", w.Code)
	}
	still, _ := models.FindUser(db, victim.ID)
	if still == nil {
		t.Fatal("user must survive a delete with a wrong admin password")
	}

	// Correct password removes the account.
	req = asUser(postForm("/usuarios/"+uitoa(victim.ID)+"/eliminar", url.Values{
		"admin_password": {"secreto123"},
	}), admin)
	req.SetPathValue("id", uitoa(victim.ID))
	h.DeleteUser(httptest.NewRecorder(), req)
	gone, _ := models.FindUser(db, victim.ID)
	if gone != nil {
		t.Fatal("user must be removed with the correct admin password")
	}
}

func TestDeleteUserSelfBlocked(t *testing.T) {
	h, db := newTestHandler(t)
	admin := seedUser(t, db, "admin", "secreto123", true)

	req := asUser(postForm("/usuarios/"+uitoa(admin.ID)+"/eliminar", url.Values{
		"admin_password": {"secreto123"},
	}), admin)
	req.SetPathValue("id", uitoa(admin.ID))
	w := httptest.NewRecorder()
	h.DeleteUser(w, req)
	still, _ := models.FindUser(db, admin.ID)
	if still == nil {
		t.Fatal("an admin must not be able to delete their own account")
	}
}

func TestStatsAPIsDegradeWhenAnonymous(t *testing.T) {
	h, _ := newTestHandler(t)

	w := httptest.NewRecorder()
	h.MonthlySalesAPI(w, httptest.NewRequest(http.MethodGet, "/api/estadisticas/ventas-mensuales", nil))
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.ActiveCustomersAPI(w, httptest.NewRequest(http.MethodGet, "/api/estadisticas/clientes", nil))
	var payload map[string]int64
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["total"] != 0 {
		t.Fatalf("expected total 0, got %d", payload["total"])
	}
}

func TestAdminStatsAPIsDegradeForCustomers(t *testing.T) {
	h, db := newTestHandler(t)
	cliente := seedUser(t, db, "cliente", "secreto123", false)

	w := httptest.NewRecorder()
	h.CriticalStockAPI(w, asUser(httptest.NewRequest(http.MethodGet, "/api/estadisticas/stock-critico", nil), cliente))
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty list for non-admin, got %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	h.SupplierProfitAPI(w, asUser(httptest.NewRequest(http.MethodGet, "/api/estadisticas/beneficios-por-proveedor", nil), cliente))
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty list for non-admin, got %s", w.Body.String())
	}
}

func TestSupplierProductsAPIAdminOnly(t *testing.T) {
	h, db := newTestHandler(t)
	cliente := seedUser(t, db, "cliente", "secreto123", false)
	admin := seedUser(t, db, "admin", "secreto123", true)
	s := models.Supplier{Nombre: "ACME", CIF: "B123", IVA: 21}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	p := models.Product{Nombre: "Cable", Referencia: "CAB-01", PrecioCompra: 2.5, PrecioVenta: 5, ProveedorID: &s.ID}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	target := "/api/productos-proveedor?id=" + uitoa(s.ID)

	w := httptest.NewRecorder()
	h.SupplierProductsAPI(w, asUser(httptest.NewRequest(http.MethodGet, target, nil), cliente))
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty list for non-admin, got %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	h.SupplierProductsAPI(w, asUser(httptest.NewRequest(http.MethodGet, target, nil), admin))
	var items []struct {
		ID     uint    `json:"id"`
		Nombre string  `json:"nombre"`
		Precio float64 `json:"precio"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Nombre != "Cable" || items[0].Precio != 2.5 {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestSalesAPIFormatsRows(t *testing.T) {
	h, db := newTestHandler(t)
	u := seedUser(t, db, "cliente", "secreto123", false)
	fecha := time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)
	sale := models.Sale{ClienteID: u.ID, Fecha: fecha, Total: 15}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	w := httptest.NewRecorder()
	h.SalesAPI(w, asUser(httptest.NewRequest(http.MethodGet, "/api/ventas", nil), u))
	var rows []struct {
		ID    uint   `json:"id"`
		Fecha string `json:"fecha"`
		Total string `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Fecha != "14/03/2026 09:30" {
		t.Fatalf("unexpected date format: %s", rows[0].Fecha)
	}
	if rows[0].Total != "15.00 €" {
		t.Fatalf("unexpected total format: %s", rows[0].Total)
	}
}
