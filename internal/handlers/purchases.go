package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/storecomponentes/store-app/internal/models"
)

// purchaseItem is one line of the posted supplier order.
type purchaseItem struct {
	ID       uint    `json:"id"`
	Precio   float64 `json:"precio"`
	Cantidad int     `json:"cantidad"`
}

// ListPurchases shows supplier orders, optionally filtered by supplier and
// date range. Admin only.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	desde, hasta := dateRange(r)
	proveedorID := formUint(r, "proveedor_id")

	purchases, err := models.AllPurchases(h.DB, proveedorID, desde, hasta)
	if err != nil {
		h.serverError(w, err)
		return
	}
	suppliers, err := models.AllSuppliers(h.DB)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.render(w, r, "compras_listar.html", map[string]any{
		"Title":       "Compras",
		"Compras":     purchases,
		"Proveedores": suppliers,
		"ProveedorID": proveedorID,
		"FechaDesde":  r.FormValue("fecha_desde"),
		"FechaHasta":  r.FormValue("fecha_hasta"),
	})
}

func (h *Handler) PurchaseDetail(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	purchase, err := models.FindPurchase(h.DB, id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if purchase == nil {
		setFlash(w, "danger", "Compra no encontrada")
		redirect(w, r, "/compras")
		return
	}
	lines, err := purchase.Lines(h.DB)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.render(w, r, "compras_detalle.html", map[string]any{
		"Title":  "Detalle de compra",
		"Compra": purchase,
		"Lineas": lines,
	})
}

func (h *Handler) CreatePurchaseForm(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	suppliers, err := models.AllSuppliers(h.DB)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.render(w, r, "compras_crear.html", map[string]any{
		"Title":       "Nueva compra",
		"Proveedores": suppliers,
		"ProveedorID": uint(0),
	})
}

// CreatePurchase registers a supplier order from the posted lines. Stock goes
// up by the full quantity of each line; there is no clamping on intake.
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	proveedorID := formUint(r, "proveedor_id")
	var items []purchaseItem
	parseErr := json.Unmarshal([]byte(r.FormValue("productos_datos")), &items)

	if proveedorID == 0 || parseErr != nil || len(items) == 0 {
		suppliers, err := models.AllSuppliers(h.DB)
		if err != nil {
			h.serverError(w, err)
			return
		}
		h.render(w, r, "compras_crear.html", map[string]any{
			"Title":       "Nueva compra",
			"Proveedores": suppliers,
			"ProveedorID": proveedorID,
			"Flash":       &Flash{Level: "danger", Message: "Selecciona un proveedor y añade al menos un producto"},
		})
		return
	}

	total := 0.0
	for _, it := range items {
		total += it.Precio * float64(it.Cantidad)
	}
	purchase := models.Purchase{ProveedorID: proveedorID, Total: total}
	purchaseID, err := purchase.Save(h.DB)
	if err != nil {
		h.serverError(w, err)
		return
	}

	for _, it := range items {
		if it.ID == 0 || it.Cantidad <= 0 {
			continue
		}
		line := models.PurchaseLine{
			CompraID:       purchaseID,
			ProductoID:     it.ID,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.Precio,
		}
		if _, err := line.Save(h.DB); err != nil {
			h.serverError(w, err)
			return
		}
	}
	setFlash(w, "success", "Compra registrada correctamente")
	redirect(w, r, "/compras/"+uitoa(purchaseID))
}
