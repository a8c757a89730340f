package repository

import (
	"context"

	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// StoreRepository define el puerto de lectura de tiendas. GetByID devuelve (nil, nil) si no existe.
type StoreRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Store, error)
}
