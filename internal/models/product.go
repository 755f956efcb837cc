package models

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Product is a catalog item. ProveedorID is optional: a product can exist
// without a known supplier.
type Product struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Nombre           string    `json:"nombre" gorm:"not null"`
	Referencia       string    `json:"referencia" gorm:"unique;not null"`
	Descripcion      string    `json:"descripcion"`
	PrecioCompra     float64   `json:"precio_compra" gorm:"not null"`
	PrecioVenta      float64   `json:"precio_venta" gorm:"not null"`
	StockActual      int       `json:"stock_actual" gorm:"default:0"`
	StockMinimo      int       `json:"stock_minimo" gorm:"default:0"`
	UbicacionAlmacen string    `json:"ubicacion_almacen"`
	Categoria        string    `json:"categoria"`
	Imagen           string    `json:"imagen"`
	ProveedorID      *uint     `json:"proveedor_id"`
	Proveedor        *Supplier `json:"proveedor,omitempty" gorm:"foreignKey:ProveedorID"`
}

func (Product) TableName() string { return "productos" }

// FindProduct returns the product with the given id (supplier preloaded), or
// nil when absent.
func FindProduct(db *gorm.DB, id uint) (*Product, error) {
	var p Product
	if err := db.Preload("Proveedor").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ListProducts returns products ordered by name. busqueda filters by
// case-insensitive substring of name or reference; categoria filters by exact
// category. Both filters compose with AND.
func ListProducts(db *gorm.DB, busqueda, categoria string) ([]Product, error) {
	q := db.Preload("Proveedor")
	if busqueda != "" {
		like := "%" + strings.ToLower(busqueda) + "%"
		q = q.Where("lower(nombre) LIKE ? OR lower(referencia) LIKE ?", like, like)
	}
	if categoria != "" {
		q = q.Where("categoria = ?", categoria)
	}
	var products []Product
	err := q.Order("nombre").Find(&products).Error
	return products, err
}

// ProductsBySupplier returns the supplier's products ordered by name.
func ProductsBySupplier(db *gorm.DB, supplierID uint) ([]Product, error) {
	var products []Product
	err := db.Where("proveedor_id = ?", supplierID).Order("nombre").Find(&products).Error
	return products, err
}

// FeaturedProducts returns in-stock products with the best relative margin,
// ties broken by available stock.
func FeaturedProducts(db *gorm.DB, limit int) ([]Product, error) {
	var products []Product
	err := db.Where("stock_actual > 0").
		Order("(precio_venta - precio_compra) / precio_compra DESC, stock_actual DESC").
		Limit(limit).Find(&products).Error
	return products, err
}

// ProductCategories returns the distinct non-empty categories in use.
func ProductCategories(db *gorm.DB) ([]string, error) {
	var categories []string
	err := db.Model(&Product{}).
		Where("categoria IS NOT NULL AND categoria != ''").
		Distinct("categoria").Order("categoria").Pluck("categoria", &categories).Error
	return categories, err
}

// Save inserts or fully updates the product and returns its id.
func (p *Product) Save(db *gorm.DB) (uint, error) {
	if p.ID == 0 {
		if err := db.Create(p).Error; err != nil {
			return 0, err
		}
		return p.ID, nil
	}
	err := db.Model(&Product{}).Where("id = ?", p.ID).Updates(map[string]any{
		"nombre":            p.Nombre,
		"referencia":        p.Referencia,
		"descripcion":       p.Descripcion,
		"precio_compra":     p.PrecioCompra,
		"precio_venta":      p.PrecioVenta,
		"stock_actual":      p.StockActual,
		"stock_minimo":      p.StockMinimo,
		"ubicacion_almacen": p.UbicacionAlmacen,
		"categoria":         p.Categoria,
		"imagen":            p.Imagen,
		"proveedor_id":      p.ProveedorID,
	}).Error
	return p.ID, err
}

// Delete removes the product unless any sale or purchase line references it.
func (p *Product) Delete(db *gorm.DB) (bool, error) {
	deleted := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var sales, purchases int64
		if err := tx.Model(&SaleLine{}).Where("producto_id = ?", p.ID).Count(&sales).Error; err != nil {
			return err
		}
		if err := tx.Model(&PurchaseLine{}).Where("producto_id = ?", p.ID).Count(&purchases).Error; err != nil {
			return err
		}
		if sales > 0 || purchases > 0 {
			return nil
		}
		res := tx.Delete(&Product{}, p.ID)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}
