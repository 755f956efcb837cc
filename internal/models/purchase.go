package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Purchase is an order placed with a supplier. Total caching works exactly
// like Sale.Total.
type Purchase struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ProveedorID uint      `json:"proveedor_id" gorm:"not null"`
	Fecha       time.Time `json:"fecha"`
	Total       float64   `json:"total" gorm:"default:0"`
	Proveedor   *Supplier `json:"proveedor,omitempty" gorm:"foreignKey:ProveedorID"`
}

func (Purchase) TableName() string { return "compras" }

// PurchaseLine is one product line of a purchase.
type PurchaseLine struct {
	ID             uint     `json:"id" gorm:"primaryKey"`
	CompraID       uint     `json:"compra_id" gorm:"not null"`
	ProductoID     uint     `json:"producto_id" gorm:"not null"`
	Cantidad       int      `json:"cantidad" gorm:"not null"`
	PrecioUnitario float64  `json:"precio_unitario" gorm:"not null"`
	Producto       *Product `json:"producto,omitempty" gorm:"foreignKey:ProductoID"`
}

func (PurchaseLine) TableName() string { return "compras_detalle" }

// FindPurchase returns the purchase with the given id (supplier preloaded),
// or nil when absent.
func FindPurchase(db *gorm.DB, id uint) (*Purchase, error) {
	var p Purchase
	if err := db.Preload("Proveedor").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// AllPurchases returns purchases newest first. proveedorID (when non-zero)
// and the date range compose with AND.
func AllPurchases(db *gorm.DB, proveedorID uint, desde, hasta *time.Time) ([]Purchase, error) {
	q := db.Preload("Proveedor")
	if proveedorID != 0 {
		q = q.Where("proveedor_id = ?", proveedorID)
	}
	if desde != nil {
		q = q.Where("fecha >= ?", *desde)
	}
	if hasta != nil {
		q = q.Where("fecha <= ?", *hasta)
	}
	var purchases []Purchase
	err := q.Order("fecha DESC").Find(&purchases).Error
	return purchases, err
}

// Save inserts the purchase (stamping Fecha when unset) or updates its
// supplier and total.
func (p *Purchase) Save(db *gorm.DB) (uint, error) {
	if p.ID == 0 {
		if p.Fecha.IsZero() {
			p.Fecha = time.Now()
		}
		if err := db.Create(p).Error; err != nil {
			return 0, err
		}
		return p.ID, nil
	}
	err := db.Model(&Purchase{}).Where("id = ?", p.ID).Updates(map[string]any{
		"proveedor_id": p.ProveedorID,
		"total":        p.Total,
	}).Error
	return p.ID, err
}

// Lines returns the purchase's detail lines.
func (p *Purchase) Lines(db *gorm.DB) ([]PurchaseLine, error) {
	return PurchaseLinesByPurchase(db, p.ID)
}

// PurchaseLinesByPurchase returns the lines of a purchase joined with the
// minimal product display fields.
func PurchaseLinesByPurchase(db *gorm.DB, compraID uint) ([]PurchaseLine, error) {
	var rows []struct {
		ID                 uint
		CompraID           uint
		ProductoID         uint
		Cantidad           int
		PrecioUnitario     float64
		ProductoNombre     string
		ProductoReferencia string
	}
	err := db.Table("compras_detalle d").
		Select("d.*, p.nombre AS producto_nombre, p.referencia AS producto_referencia").
		Joins("JOIN productos p ON d.producto_id = p.id").
		Where("d.compra_id = ?", compraID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	lines := make([]PurchaseLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, PurchaseLine{
			ID:             r.ID,
			CompraID:       r.CompraID,
			ProductoID:     r.ProductoID,
			Cantidad:       r.Cantidad,
			PrecioUnitario: r.PrecioUnitario,
			Producto:       &Product{ID: r.ProductoID, Nombre: r.ProductoNombre, Referencia: r.ProductoReferencia},
		})
	}
	return lines, nil
}

// Save inserts the line, incrementing the product's stock by the line
// quantity in the same unit of work, or updates the line's columns without
// touching stock.
func (l *PurchaseLine) Save(db *gorm.DB) (uint, error) {
	if l.ID == 0 {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(l).Error; err != nil {
				return err
			}
			return tx.Model(&Product{}).Where("id = ?", l.ProductoID).
				UpdateColumn("stock_actual", gorm.Expr("stock_actual + ?", l.Cantidad)).Error
		})
		if err != nil {
			return 0, err
		}
		return l.ID, nil
	}
	err := db.Model(&PurchaseLine{}).Where("id = ?", l.ID).Updates(map[string]any{
		"compra_id":       l.CompraID,
		"producto_id":     l.ProductoID,
		"cantidad":        l.Cantidad,
		"precio_unitario": l.PrecioUnitario,
	}).Error
	return l.ID, err
}
