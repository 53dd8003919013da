package entity

import "time"

// Company representa una organización/tenant del sistema. Todo dato de inventario
// pertenece exactamente a una Company.
type Company struct {
	ID        string
	Name      string
	RUT       string // RUT chileno de la empresa
	CreatedAt time.Time
}
