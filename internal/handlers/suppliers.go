package handlers

import (
	"net/http"

	"github.com/storecomponentes/store-app/internal/models"
	"github.com/storecomponentes/store-app/internal/validation"
)

// ListSuppliers renders the supplier directory. Admin only, like everything
// supplier-related.
func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	suppliers, err := models.AllSuppliers(h.DB)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.render(w, r, "proveedores_listar.html", map[string]any{
		"Title":       "Proveedores",
		"Proveedores": suppliers,
	})
}

// SupplierDetail shows the supplier's card, its products and its most recent
// purchases.
func (h *Handler) SupplierDetail(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	supplier, err := models.FindSupplier(h.DB, id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if supplier == nil {
		setFlash(w, "danger", "Proveedor no encontrado")
		redirect(w, r, "/proveedores")
		return
	}
	products, err := models.ProductsBySupplier(h.DB, id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	purchases, err := models.AllPurchases(h.DB, id, nil, nil)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if len(purchases) > 5 {
		purchases = purchases[:5]
	}
	h.render(w, r, "proveedores_detalle.html", map[string]any{
		"Title":     supplier.Nombre,
		"Proveedor": supplier,
		"Productos": products,
		"Compras":   purchases,
	})
}

func (h *Handler) CreateSupplierForm(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	h.render(w, r, "proveedores_crear.html", map[string]any{"Title": "Nuevo proveedor"})
}

func supplierFromForm(r *http.Request, s *models.Supplier) validation.Violations {
	s.Nombre = r.FormValue("nombre")
	s.CIF = r.FormValue("cif")
	s.Direccion = r.FormValue("direccion")
	s.Telefono = r.FormValue("telefono")
	s.Email = r.FormValue("email")
	s.PorcentajeDescuento = formFloat(r, "porcentaje_descuento")
	if v := r.FormValue("iva"); v != "" {
		s.IVA = formFloat(r, "iva")
	} else if s.IVA == 0 {
		s.IVA = 21
	}
	s.Notas = r.FormValue("notas")

	v := validation.Violations{}
	validation.Required("nombre", s.Nombre, v)
	validation.Required("cif", s.CIF, v)
	validation.RangeFloat("iva", s.IVA, 0, 100, v)
	validation.RangeFloat("porcentaje_descuento", s.PorcentajeDescuento, 0, 100, v)
	return v
}

func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	var supplier models.Supplier
	if v := supplierFromForm(r, &supplier); !v.Empty() {
		setFlash(w, "danger", "Revisa el nombre, el CIF y los porcentajes")
		redirect(w, r, "/proveedores/crear")
		return
	}
	id, err := supplier.Save(h.DB)
	if err != nil {
		h.serverError(w, err)
		return
	}
	setFlash(w, "success", "Proveedor creado correctamente")
	redirect(w, r, "/proveedores/"+uitoa(id))
}

func (h *Handler) EditSupplierForm(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	supplier, err := models.FindSupplier(h.DB, id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if supplier == nil {
		setFlash(w, "danger", "Proveedor no encontrado")
		redirect(w, r, "/proveedores")
		return
	}
	h.render(w, r, "proveedores_editar.html", map[string]any{
		"Title":     "Editar proveedor",
		"Proveedor": supplier,
	})
}

func (h *Handler) EditSupplier(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	supplier, err := models.FindSupplier(h.DB, id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if supplier == nil {
		setFlash(w, "danger", "Proveedor no encontrado")
		redirect(w, r, "/proveedores")
		return
	}
	if v := supplierFromForm(r, supplier); !v.Empty() {
		setFlash(w, "danger", "Revisa el nombre, el CIF y los porcentajes")
		redirect(w, r, "/proveedores/"+r.PathValue("id")+"/editar")
		return
	}
	if _, err := supplier.Save(h.DB); err != nil {
		h.serverError(w, err)
		return
	}
	setFlash(w, "success", "Proveedor actualizado correctamente")
	redirect(w, r, "/proveedores/"+r.PathValue("id"))
}

// DeleteSupplier removes the supplier unless products still reference it.
func (h *Handler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	supplier, err := models.FindSupplier(h.DB, id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if supplier == nil {
		setFlash(w, "danger", "Proveedor no encontrado")
		redirect(w, r, "/proveedores")
		return
	}
	deleted, err := supplier.Delete(h.DB)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if !deleted {
		setFlash(w, "warning", "No se puede eliminar el proveedor porque tiene productos asociados")
	} else {
		setFlash(w, "success", "Proveedor eliminado correctamente")
	}
	redirect(w, r, "/proveedores")
}
