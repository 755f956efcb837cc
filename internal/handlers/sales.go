package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/storecomponentes/store-app/internal/models"
)

// cartItem is one line of the posted cart, as serialized by the storefront
// script.
type cartItem struct {
	ID       uint    `json:"id"`
	Precio   float64 `json:"precio"`
	Cantidad int     `json:"cantidad"`
}

// ListSales shows the caller's sales, or every sale for admins, with an
// optional date range.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	session := h.requireLogin(w, r)
	if session == nil {
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
		h.serverError(w, err)
		return
	}
	h.render(w, r, "ventas_listar.html", map[string]any{
		"Title":      "Ventas",
		"Ventas":     sales,
		"FechaDesde": r.FormValue("fecha_desde"),
		"FechaHasta": r.FormValue("fecha_hasta"),
	})
}

// SaleDetail shows one sale with its lines. Only the buyer or an admin may
// see it.
func (h *Handler) SaleDetail(w http.ResponseWriter, r *http.Request) {
	session := h.requireLogin(w, r)
	if session == nil {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	sale, err := models.FindSale(h.DB, id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if sale == nil {
		setFlash(w, "danger", "Venta no encontrada")
		redirect(w, r, "/ventas")
		return
	}
	if !session.IsAdmin && sale.ClienteID != session.UserID {
		setFlash(w, "danger", "No tienes permisos para ver esta venta")
		redirect(w, r, "/ventas")
		return
	}
	lines, err := sale.Lines(h.DB)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.render(w, r, "ventas_detalle.html", map[string]any{
		"Title":  "Detalle de venta",
		"Venta":  sale,
		"Lineas": lines,
	})
}

func (h *Handler) CreateSaleForm(w http.ResponseWriter, r *http.Request) {
	if h.requireLogin(w, r) == nil {
		return
	}
	products, err := models.FeaturedProducts(h.DB, 4)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.render(w, r, "ventas_crear.html", map[string]any{
		"Title":     "Nueva venta",
		"Productos": products,
	})
}

// CreateSale registers the posted cart as a sale. The total comes from the
// submitted prices; quantities are clamped to the available stock line by
// line, and exhausted products are skipped. Lines are inserted one at a time
// after the sale row, so a failure partway leaves the earlier lines in place.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	session := h.requireLogin(w, r)
	if session == nil {
		return
	}
	var items []cartItem
	if err := json.Unmarshal([]byte(r.FormValue("carrito_datos")), &items); err != nil || len(items) == 0 {
		setFlash(w, "danger", "El carrito está vacío")
		redirect(w, r, "/ventas/crear")
		return
	}

	total := 0.0
	for _, it := range items {
		total += it.Precio * float64(it.Cantidad)
	}
	sale := models.Sale{ClienteID: session.UserID, Total: total}
	saleID, err := sale.Save(h.DB)
	if err != nil {
		h.serverError(w, err)
		return
	}

	for _, it := range items {
		product, err := models.FindProduct(h.DB, it.ID)
		if err != nil {
			h.serverError(w, err)
			return
		}
		if product == nil || product.StockActual <= 0 || it.Cantidad <= 0 {
			continue
		}
		cantidad := it.Cantidad
		if cantidad > product.StockActual {
			cantidad = product.StockActual
		}
		line := models.SaleLine{
			VentaID:        saleID,
			ProductoID:     it.ID,
			Cantidad:       cantidad,
			PrecioUnitario: it.Precio,
		}
		if _, err := line.Save(h.DB); err != nil {
			h.serverError(w, err)
			return
		}
	}
	setFlash(w, "success", "Venta registrada correctamente")
	redirect(w, r, "/ventas/"+uitoa(saleID))
}
