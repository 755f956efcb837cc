package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Sale is a customer order. Total is the sum of line precio×cantidad computed
// by the caller at creation time; it is never recomputed from the lines here.
type Sale struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ClienteID uint      `json:"cliente_id" gorm:"not null"`
	Fecha     time.Time `json:"fecha"`
	Total     float64   `json:"total" gorm:"default:0"`
	Cliente   *User     `json:"cliente,omitempty" gorm:"foreignKey:ClienteID"`
}

func (Sale) TableName() string { return "ventas" }

// SaleLine is one product line of a sale, carrying the quantity and the unit
// price in effect at transaction time.
type SaleLine struct {
	ID             uint     `json:"id" gorm:"primaryKey"`
	VentaID        uint     `json:"venta_id" gorm:"not null"`
	ProductoID     uint     `json:"producto_id" gorm:"not null"`
	Cantidad       int      `json:"cantidad" gorm:"not null"`
	PrecioUnitario float64  `json:"precio_unitario" gorm:"not null"`
	Producto       *Product `json:"producto,omitempty" gorm:"foreignKey:ProductoID"`
}

func (SaleLine) TableName() string { return "ventas_detalle" }

// FindSale returns the sale with the given id (customer preloaded), or nil.
func FindSale(db *gorm.DB, id uint) (*Sale, error) {
	var s Sale
	if err := db.Preload("Cliente").First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func saleDateRange(q *gorm.DB, desde, hasta *time.Time) *gorm.DB {
	if desde != nil {
		q = q.Where("fecha >= ?", *desde)
	}
	if hasta != nil {
		q = q.Where("fecha <= ?", *hasta)
	}
	return q
}

// AllSales returns every sale, optionally limited to a date range, newest
// first.
func AllSales(db *gorm.DB, desde, hasta *time.Time) ([]Sale, error) {
	var sales []Sale
	err := saleDateRange(db.Preload("Cliente"), desde, hasta).
		Order("fecha DESC").Find(&sales).Error
	return sales, err
}

// SalesByCustomer returns one customer's sales, newest first.
func SalesByCustomer(db *gorm.DB, clienteID uint, desde, hasta *time.Time) ([]Sale, error) {
	var sales []Sale
	err := saleDateRange(db.Preload("Cliente").Where("cliente_id = ?", clienteID), desde, hasta).
		Order("fecha DESC").Find(&sales).Error
	return sales, err
}

// Save inserts the sale (stamping Fecha when unset) or updates its customer
// and total.
func (s *Sale) Save(db *gorm.DB) (uint, error) {
	if s.ID == 0 {
		if s.Fecha.IsZero() {
			s.Fecha = time.Now()
		}
		if err := db.Create(s).Error; err != nil {
			return 0, err
		}
		return s.ID, nil
	}
	err := db.Model(&Sale{}).Where("id = ?", s.ID).Updates(map[string]any{
		"cliente_id": s.ClienteID,
		"total":      s.Total,
	}).Error
	return s.ID, err
}

// Lines returns the sale's detail lines.
func (s *Sale) Lines(db *gorm.DB) ([]SaleLine, error) {
	return SaleLinesBySale(db, s.ID)
}

// SaleLinesBySale returns the lines of a sale joined with the minimal product
// display fields (name and reference).
func SaleLinesBySale(db *gorm.DB, ventaID uint) ([]SaleLine, error) {
	var rows []struct {
		ID                 uint
		VentaID            uint
		ProductoID         uint
		Cantidad           int
		PrecioUnitario     float64
		ProductoNombre     string
		ProductoReferencia string
	}
	err := db.Table("ventas_detalle d").
		Select("d.*, p.nombre AS producto_nombre, p.referencia AS producto_referencia").
		Joins("JOIN productos p ON d.producto_id = p.id").
		Where("d.venta_id = ?", ventaID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	lines := make([]SaleLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, SaleLine{
			ID:             r.ID,
			VentaID:        r.VentaID,
			ProductoID:     r.ProductoID,
			Cantidad:       r.Cantidad,
			PrecioUnitario: r.PrecioUnitario,
			Producto:       &Product{ID: r.ProductoID, Nombre: r.ProductoNombre, Referencia: r.ProductoReferencia},
		})
	}
	return lines, nil
}

// Save inserts the line, decrementing the product's stock by the line
// quantity in the same unit of work, or updates the line's columns. Updates
// deliberately do not re-adjust stock.
func (l *SaleLine) Save(db *gorm.DB) (uint, error) {
	if l.ID == 0 {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(l).Error; err != nil {
				return err
			}
			return tx.Model(&Product{}).Where("id = ?", l.ProductoID).
				UpdateColumn("stock_actual", gorm.Expr("stock_actual - ?", l.Cantidad)).Error
		})
		if err != nil {
			return 0, err
		}
		return l.ID, nil
	}
	err := db.Model(&SaleLine{}).Where("id = ?", l.ID).Updates(map[string]any{
		"venta_id":        l.VentaID,
		"producto_id":     l.ProductoID,
		"cantidad":        l.Cantidad,
		"precio_unitario": l.PrecioUnitario,
	}).Error
	return l.ID, err
}
