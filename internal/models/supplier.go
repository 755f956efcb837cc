package models

import (
	"errors"

	"gorm.io/gorm"
)

// Supplier is a company products are bought from.
type Supplier struct {
	ID                  uint    `json:"id" gorm:"primaryKey"`
	Nombre              string  `json:"nombre" gorm:"not null"`
	CIF                 string  `json:"cif" gorm:"unique;not null"`
	Direccion           string  `json:"direccion"`
	Telefono            string  `json:"telefono"`
	Email               string  `json:"email"`
	PorcentajeDescuento float64 `json:"porcentaje_descuento" gorm:"default:0"`
	IVA                 float64 `json:"iva" gorm:"default:21"`
	Notas               string  `json:"notas"`
}

func (Supplier) TableName() string { return "proveedores" }

// FindSupplier returns the supplier with the given id, or nil when absent.
func FindSupplier(db *gorm.DB, id uint) (*Supplier, error) {
	var s Supplier
	if err := db.First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// AllSuppliers returns every supplier ordered by name.
func AllSuppliers(db *gorm.DB) ([]Supplier, error) {
	var suppliers []Supplier
	err := db.Order("nombre").Find(&suppliers).Error
	return suppliers, err
}

// Save inserts or fully updates the supplier and returns its id.
func (s *Supplier) Save(db *gorm.DB) (uint, error) {
	if s.ID == 0 {
		if err := db.Create(s).Error; err != nil {
			return 0, err
		}
		return s.ID, nil
	}
	err := db.Model(&Supplier{}).Where("id = ?", s.ID).Updates(map[string]any{
		"nombre":               s.Nombre,
		"cif":                  s.CIF,
		"direccion":            s.Direccion,
		"telefono":             s.Telefono,
		"email":                s.Email,
		"porcentaje_descuento": s.PorcentajeDescuento,
		"iva":                  s.IVA,
		"notas":                s.Notas,
	}).Error
	return s.ID, err
}

// Delete removes the supplier unless any product references it. The refusal
// is a normal outcome reported as false, not an error.
func (s *Supplier) Delete(db *gorm.DB) (bool, error) {
	deleted := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Product{}).Where("proveedor_id = ?", s.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		res := tx.Delete(&Supplier{}, s.ID)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}
