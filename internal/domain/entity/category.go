package entity

import "time"

// Category diccionario de categorías de producto.
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}
