package entity

// Supplier representa un proveedor de la empresa (origen de las compras).
type Supplier struct {
	ID           string
	CompanyID    string
	Name         string
	RUT          string
	ContactName  string
	ContactEmail string
	ContactPhone string
}
