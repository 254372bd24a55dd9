package domain

// OrderRequest es una orden de mercado lista para enviar al exchange.
// Size es un número entero de contratos, nunca notional fraccionario.
type OrderRequest struct {
	ProductID int
	Size      int
	Side      Side
}

// PlacedOrder es el resultado de una orden aceptada por el exchange.
type PlacedOrder struct {
	OrderID string
	State   string
}
