// Package stats implements the reporting queries behind the statistics
// dashboard: time-windowed aggregates over sales and purchases.
package stats

import (
	"time"

	"gorm.io/gorm"

	"github.com/storecomponentes/store-app/internal/models"
)

// MonthlyTotal is one calendar month's sales volume.
type MonthlyTotal struct {
	Mes   string  `json:"mes"`
	Total float64 `json:"total"`
}

// ProductQuantity is a product's units sold inside the window.
type ProductQuantity struct {
	Producto string `json:"producto"`
	Cantidad int    `json:"cantidad"`
}

// SupplierProfit is the margin generated by one supplier's products.
type SupplierProfit struct {
	Proveedor string  `json:"proveedor"`
	Beneficio float64 `json:"beneficio"`
}

// StockLevel is a product at or below its minimum stock. Porcentaje is
// floor(actual*100/minimo); rows with a zero minimum are filtered out before
// the division.
type StockLevel struct {
	Producto   string `json:"producto"`
	Actual     int    `json:"actual"`
	Minimo     int    `json:"minimo"`
	Porcentaje int    `json:"porcentaje"`
}

func windowStart(days int) time.Time {
	return time.Now().AddDate(0, 0, -days)
}

// MonthlySales returns sales totals grouped by calendar month over the last
// `days` days, ascending by month. clienteID scopes to one customer when
// non-zero.
func MonthlySales(db *gorm.DB, days int, clienteID uint) ([]MonthlyTotal, error) {
	q := `
	SELECT strftime('%Y-%m', fecha) AS mes, SUM(total) AS total
	FROM ventas
	WHERE fecha >= ?`
	args := []any{windowStart(days)}
	if clienteID != 0 {
		q += " AND cliente_id = ?"
		args = append(args, clienteID)
	}
	q += " GROUP BY mes ORDER BY mes"
	rows := []MonthlyTotal{}
	err := db.Raw(q, args...).Scan(&rows).Error
	return rows, err
}

// TopProducts returns the best-selling products by quantity over the last
// `days` days, descending, capped at limit.
func TopProducts(db *gorm.DB, days int, clienteID uint, limit int) ([]ProductQuantity, error) {
	q := `
	SELECT p.nombre AS producto, SUM(vd.cantidad) AS cantidad
	FROM ventas_detalle vd
	JOIN ventas v ON vd.venta_id = v.id
	JOIN productos p ON vd.producto_id = p.id
	WHERE v.fecha >= ?`
	args := []any{windowStart(days)}
	if clienteID != 0 {
		q += " AND v.cliente_id = ?"
		args = append(args, clienteID)
	}
	q += " GROUP BY vd.producto_id ORDER BY cantidad DESC LIMIT ?"
	args = append(args, limit)
	rows := []ProductQuantity{}
	err := db.Raw(q, args...).Scan(&rows).Error
	return rows, err
}

// ProfitBySupplier returns the profit generated per supplier over the last
// `days` days, descending, capped at limit. Products without a supplier are
// excluded by the inner join.
func ProfitBySupplier(db *gorm.DB, days, limit int) ([]SupplierProfit, error) {
	q := `
	SELECT prov.nombre AS proveedor,
	       SUM((vd.precio_unitario - p.precio_compra) * vd.cantidad) AS beneficio
	FROM ventas_detalle vd
	JOIN ventas v ON vd.venta_id = v.id
	JOIN productos p ON vd.producto_id = p.id
	JOIN proveedores prov ON p.proveedor_id = prov.id
	WHERE v.fecha >= ?
	GROUP BY p.proveedor_id
	ORDER BY beneficio DESC
	LIMIT ?`
	rows := []SupplierProfit{}
	err := db.Raw(q, windowStart(days), limit).Scan(&rows).Error
	return rows, err
}

// CriticalStock returns the products at or below their minimum stock, most
// critical first. The stock_minimo > 0 filter guards the division.
func CriticalStock(db *gorm.DB) ([]StockLevel, error) {
	q := `
	SELECT nombre AS producto,
	       stock_actual AS actual,
	       stock_minimo AS minimo,
	       CAST(stock_actual * 100.0 / stock_minimo AS INT) AS porcentaje
	FROM productos
	WHERE stock_actual <= stock_minimo AND stock_minimo > 0
	ORDER BY porcentaje`
	rows := []StockLevel{}
	err := db.Raw(q).Scan(&rows).Error
	return rows, err
}

// ActiveCustomerCount returns the number of distinct customers with at least
// one sale.
func ActiveCustomerCount(db *gorm.DB) (int64, error) {
	var total int64
	err := db.Model(&models.Sale{}).Where("cliente_id IS NOT NULL").
		Distinct("cliente_id").Count(&total).Error
	return total, err
}
