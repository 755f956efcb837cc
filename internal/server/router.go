// Package server wires the routes and the shared middlewares into the root
// http.Handler.
package server

import (
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/storecomponentes/store-app/internal/auth"
	"github.com/storecomponentes/store-app/internal/config"
	"github.com/storecomponentes/store-app/internal/handlers"
	"github.com/storecomponentes/store-app/internal/httpx"
)

// New constructs the root http.Handler with all routes and middlewares
// applied.
func New(db *gorm.DB, cfg config.Config) http.Handler {
	auth.SetSecret(cfg.SessionSecret)
	h := handlers.New(db, cfg)
	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Home and auth
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /registro", h.RegisterForm)
	mux.HandleFunc("POST /registro", h.Register)
	mux.HandleFunc("GET /logout", h.Logout)

	// User administration
	mux.HandleFunc("GET /usuarios/gestionar", h.ManageUsers)
	mux.HandleFunc("GET /usuarios/{id}/editar", h.EditUserForm)
	mux.HandleFunc("POST /usuarios/{id}/editar", h.EditUser)
	mux.HandleFunc("POST /usuarios/{id}/eliminar", h.DeleteUser)

	// Catalog
	mux.HandleFunc("GET /productos", h.ListProducts)
	mux.HandleFunc("GET /productos/crear", h.CreateProductForm)
	mux.HandleFunc("POST /productos/crear", h.CreateProduct)
	mux.HandleFunc("GET /productos/{id}", h.ProductDetail)
	mux.HandleFunc("GET /productos/{id}/editar", h.EditProductForm)
	mux.HandleFunc("POST /productos/{id}/editar", h.EditProduct)
	mux.HandleFunc("POST /productos/{id}/eliminar", h.DeleteProduct)

	// Suppliers
	mux.HandleFunc("GET /proveedores", h.ListSuppliers)
	mux.HandleFunc("GET /proveedores/crear", h.CreateSupplierForm)
	mux.HandleFunc("POST /proveedores/crear", h.CreateSupplier)
	mux.HandleFunc("GET /proveedores/{id}", h.SupplierDetail)
	mux.HandleFunc("GET /proveedores/{id}/editar", h.EditSupplierForm)
	mux.HandleFunc("POST /proveedores/{id}/editar", h.EditSupplier)
	mux.HandleFunc("POST /proveedores/{id}/eliminar", h.DeleteSupplier)

	// Sales
	mux.HandleFunc("GET /ventas", h.ListSales)
	mux.HandleFunc("GET /ventas/crear", h.CreateSaleForm)
	mux.HandleFunc("POST /ventas/crear", h.CreateSale)
	mux.HandleFunc("GET /ventas/{id}", h.SaleDetail)

	// Purchases
	mux.HandleFunc("GET /compras", h.ListPurchases)
	mux.HandleFunc("GET /compras/crear", h.CreatePurchaseForm)
	mux.HandleFunc("POST /compras/crear", h.CreatePurchase)
	mux.HandleFunc("GET /compras/{id}", h.PurchaseDetail)

	// Statistics
	mux.HandleFunc("GET /estadisticas", h.Dashboard)
	mux.HandleFunc("GET /api/estadisticas/ventas-mensuales", h.MonthlySalesAPI)
	mux.HandleFunc("GET /api/estadisticas/productos-mas-vendidos", h.TopProductsAPI)
	mux.HandleFunc("GET /api/estadisticas/beneficios-por-proveedor", h.SupplierProfitAPI)
	mux.HandleFunc("GET /api/estadisticas/stock-critico", h.CriticalStockAPI)
	mux.HandleFunc("GET /api/estadisticas/clientes", h.ActiveCustomersAPI)
	mux.HandleFunc("GET /api/ventas", h.SalesAPI)
	mux.HandleFunc("GET /api/productos-proveedor", h.SupplierProductsAPI)

	// Static assets (CSS, scripts, uploaded product images)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))

	return auth.Middleware(withRecover(withLogging(mux)))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
