package ports

import "context"

// ProductCatalog resuelve símbolos a product IDs internos del exchange.
type ProductCatalog interface {
	// Resolve devuelve el product ID del símbolo. Si no está en caché
	// refresca una vez antes de declarar NotFound — nunca adivina un ID.
	Resolve(ctx context.Context, symbol string) (int, error)

	// Refresh recarga el catálogo completo desde el endpoint público.
	Refresh(ctx context.Context) error
}
