package handlers

import (
	"fmt"
	"net/http"

	"github.com/storecomponentes/store-app/internal/httpx"
	"github.com/storecomponentes/store-app/internal/models"
	"github.com/storecomponentes/store-app/internal/stats"
)

// Dashboard renders the statistics page. Admins get the full board, customers
// a board scoped to their own purchases. The charts load through the JSON API
// below.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := h.requireLogin(w, r)
	if session == nil {
		return
	}
	name := "estadisticas_cliente.html"
	if session.IsAdmin {
		name = "estadisticas_admin.html"
	}
	h.render(w, r, name, map[string]any{"Title": "Estadísticas"})
}

// The API endpoints degrade to empty payloads for callers without the
// required role. The dashboard scripts render "no data" instead of erroring.

func (h *Handler) MonthlySalesAPI(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	if session == nil {
		httpx.JSON(w, http.StatusOK, []stats.MonthlyTotal{})
		return
	}
	clienteID := session.UserID
	if session.IsAdmin {
		clienteID = 0
	}
	rows, err := stats.MonthlySales(h.DB, queryInt(r, "dias", 30), clienteID)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error")
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) TopProductsAPI(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	if session == nil {
		httpx.JSON(w, http.StatusOK, []stats.ProductQuantity{})
		return
	}
	clienteID := session.UserID
	if session.IsAdmin {
		clienteID = 0
	}
	rows, err := stats.TopProducts(h.DB, queryInt(r, "dias", 30), clienteID, queryInt(r, "limite", 10))
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error")
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) SupplierProfitAPI(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	if session == nil || !session.IsAdmin {
		httpx.JSON(w, http.StatusOK, []stats.SupplierProfit{})
		return
	}
	rows, err := stats.ProfitBySupplier(h.DB, queryInt(r, "dias", 30), queryInt(r, "limite", 10))
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error")
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) CriticalStockAPI(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	if session == nil || !session.IsAdmin {
		httpx.JSON(w, http.StatusOK, []stats.StockLevel{})
		return
	}
	rows, err := stats.CriticalStock(h.DB)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error")
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) ActiveCustomersAPI(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	if session == nil || !session.IsAdmin {
		httpx.JSON(w, http.StatusOK, map[string]int64{"total": 0})
		return
	}
	total, err := stats.ActiveCustomerCount(h.DB)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"total": total})
}

// SalesAPI returns the caller's sales (or every sale for admins) with
// display-ready dates and totals.
func (h *Handler) SalesAPI(w http.ResponseWriter, r *http.Request) {
	type row struct {
		ID    uint   `json:"id"`
		Fecha string `json:"fecha"`
		Total string `json:"total"`
	}
	session := sessionFrom(r)
	if session == nil {
		httpx.JSON(w, http.StatusOK, []row{})
		return
	}
	desde, hasta := dateRange(r)
	var (
		sales []models.Sale
		err   error
	)
	if session.IsAdmin {
		sales, err = models.AllSales(h.DB, desde, hasta)
	} else {
		sales, err = models.SalesByCustomer(h.DB, session.UserID, desde, hasta)
	}
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error")
		return
	}
	rows := make([]row, 0, len(sales))
	for _, s := range sales {
		rows = append(rows, row{
			ID:    s.ID,
			Fecha: s.Fecha.Format("02/01/2006 15:04"),
			Total: fmt.Sprintf("%.2f €", s.Total),
		})
	}
	httpx.JSON(w, http.StatusOK, rows)
}
