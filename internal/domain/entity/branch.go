package entity

import "time"

// Branch representa una sucursal donde se almacena y vende inventario.
type Branch struct {
	ID        string
	CompanyID string
	Name      string
	Address   string
	Phone     string
	CreatedAt time.Time
}
