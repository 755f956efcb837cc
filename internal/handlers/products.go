package handlers

import (
	"net/http"

	"github.com/storecomponentes/store-app/internal/httpx"
	"github.com/storecomponentes/store-app/internal/models"
	"github.com/storecomponentes/store-app/internal/uploads"
	"github.com/storecomponentes/store-app/internal/validation"
)

// ListProducts renders the catalog, filtered by search text and category.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	busqueda := r.URL.Query().Get("busqueda")
	categoria := r.URL.Query().Get("categoria")
	products, err := models.ListProducts(h.DB, busqueda, categoria)
	if err != nil {
		h.serverError(w, err)
		return
	}
	categories, err := models.ProductCategories(h.DB)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.render(w, r, "productos_listar.html", map[string]any{
		"Title":      "Productos",
		"Productos":  products,
		"Categorias": categories,
		"Busqueda":   busqueda,
		"Categoria":  categoria,
	})
}

func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	product, err := models.FindProduct(h.DB, id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if product == nil {
		setFlash(w, "danger", "Producto no encontrado")
		redirect(w, r, "/productos")
		return
	}
	h.render(w, r, "productos_detalle.html", map[string]any{
		"Title":    product.Nombre,
		"Producto": product,
	})
}

func (h *Handler) CreateProductForm(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	suppliers, err := models.AllSuppliers(h.DB)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.render(w, r, "productos_crear.html", map[string]any{
		"Title":       "Nuevo producto",
		"Proveedores": suppliers,
	})
}

// productFromForm reads the shared create/edit fields into the product.
func (h *Handler) productFromForm(r *http.Request, p *models.Product) validation.Violations {
	p.Nombre = r.FormValue("nombre")
	p.Referencia = r.FormValue("referencia")
	p.Descripcion = r.FormValue("descripcion")
	p.PrecioCompra = formFloat(r, "precio_compra")
	p.PrecioVenta = formFloat(r, "precio_venta")
	p.StockActual = formInt(r, "stock_actual")
	p.StockMinimo = formInt(r, "stock_minimo")
	p.UbicacionAlmacen = r.FormValue("ubicacion_almacen")
	p.Categoria = r.FormValue("categoria")
	if id := formUint(r, "proveedor_id"); id != 0 {
		p.ProveedorID = &id
	} else {
		p.ProveedorID = nil
	}

	v := validation.Violations{}
	validation.Required("nombre", p.Nombre, v)
	validation.Required("referencia", p.Referencia, v)
	validation.PositiveFloat("precio_compra", p.PrecioCompra, v)
	validation.PositiveFloat("precio_venta", p.PrecioVenta, v)
	return v
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	if err := r.ParseMultipartForm(h.Cfg.MaxUploadSize); err != nil {
		setFlash(w, "danger", "Formulario no válido")
		redirect(w, r, "/productos/crear")
		return
	}

	var product models.Product
	if v := h.productFromForm(r, &product); !v.Empty() {
		setFlash(w, "danger", "Revisa los campos obligatorios y los precios")
		redirect(w, r, "/productos/crear")
		return
	}
	if _, fh, err := r.FormFile("imagen"); err == nil && fh != nil {
		rel, err := uploads.Save(fh, h.Cfg.StaticDir, h.Cfg.UploadDir)
		if err != nil {
			h.serverError(w, err)
			return
		}
		product.Imagen = rel
	}

	id, err := product.Save(h.DB)
	if err != nil {
		h.serverError(w, err)
		return
	}
	setFlash(w, "success", "Producto creado correctamente")
	redirect(w, r, "/productos/"+uitoa(id))
}

func (h *Handler) EditProductForm(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	product, err := models.FindProduct(h.DB, id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if product == nil {
		setFlash(w, "danger", "Producto no encontrado")
		redirect(w, r, "/productos")
		return
	}
	suppliers, err := models.AllSuppliers(h.DB)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.render(w, r, "productos_editar.html", map[string]any{
		"Title":       "Editar producto",
		"Producto":    product,
		"Proveedores": suppliers,
	})
}

func (h *Handler) EditProduct(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	product, err := models.FindProduct(h.DB, id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if product == nil {
		setFlash(w, "danger", "Producto no encontrado")
		redirect(w, r, "/productos")
		return
	}
	if err := r.ParseMultipartForm(h.Cfg.MaxUploadSize); err != nil {
		setFlash(w, "danger", "Formulario no válido")
		redirect(w, r, "/productos/"+r.PathValue("id")+"/editar")
		return
	}

	if v := h.productFromForm(r, product); !v.Empty() {
		setFlash(w, "danger", "Revisa los campos obligatorios y los precios")
		redirect(w, r, "/productos/"+r.PathValue("id")+"/editar")
		return
	}
	if _, fh, err := r.FormFile("imagen"); err == nil && fh != nil {
		rel, err := uploads.Save(fh, h.Cfg.StaticDir, h.Cfg.UploadDir)
		if err != nil {
			h.serverError(w, err)
			return
		}
		if product.Imagen != "" {
			_ = uploads.Remove(h.Cfg.StaticDir, product.Imagen)
		}
		product.Imagen = rel
	}

	if _, err := product.Save(h.DB); err != nil {
		h.serverError(w, err)
		return
	}
	setFlash(w, "success", "Producto actualizado correctamente")
	redirect(w, r, "/productos/"+r.PathValue("id"))
}

// DeleteProduct removes the product unless sales or purchases reference it.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	product, err := models.FindProduct(h.DB, id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if product == nil {
		setFlash(w, "danger", "Producto no encontrado")
		redirect(w, r, "/productos")
		return
	}
	deleted, err := product.Delete(h.DB)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if !deleted {
		setFlash(w, "warning", "No se puede eliminar el producto porque tiene ventas o compras asociadas")
		redirect(w, r, "/productos")
		return
	}
	if product.Imagen != "" {
		_ = uploads.Remove(h.Cfg.StaticDir, product.Imagen)
	}
	setFlash(w, "success", "Producto eliminado correctamente")
	redirect(w, r, "/productos")
}

// SupplierProductsAPI feeds the purchase form's product selector. Non-admin
// callers get an empty list, never an error page.
func (h *Handler) SupplierProductsAPI(w http.ResponseWriter, r *http.Request) {
	type item struct {
		ID     uint    `json:"id"`
		Nombre string  `json:"nombre"`
		Precio float64 `json:"precio"`
	}
	session := sessionFrom(r)
	if session == nil || !session.IsAdmin {
		httpx.JSON(w, http.StatusOK, []item{})
		return
	}
	supplierID := formUint(r, "id")
	if supplierID == 0 {
		httpx.JSON(w, http.StatusOK, []item{})
		return
	}
	products, err := models.ProductsBySupplier(h.DB, supplierID)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error")
		return
	}
	items := make([]item, 0, len(products))
	for _, p := range products {
		items = append(items, item{ID: p.ID, Nombre: p.Nombre, Precio: p.PrecioCompra})
	}
	httpx.JSON(w, http.StatusOK, items)
}
