// Package ledger maps the information ledger table, one row per upload.
package ledger

import (
	"context"

	"github.com/dmitrijs2005/ecoportal/internal/server/models"
)

// Column names of the ledger table.
const (
	ColName        = "Nombre del Item"
	ColItemType    = "Tipo de Item"
	ColResponsible = "Responsable"
	ColSource      = "Fuente de Datos"
	ColPeriod      = "Periodo de Recepción"
	ColFiles       = "Archivos/Imágenes"
	ColComments    = "Comentarios/Notas"
)

// ListLimit caps List results.
const ListLimit = 100

type Repository interface {
	Create(ctx context.Context, entry *models.LedgerEntry) (*models.LedgerEntry, error)
	List(ctx context.Context, itemType string) ([]models.LedgerEntry, error)
}
