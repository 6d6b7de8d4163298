package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/ecoportal/internal/common"
	"github.com/dmitrijs2005/ecoportal/internal/server/models"
	"github.com/dmitrijs2005/ecoportal/internal/server/records"
	"github.com/dmitrijs2005/ecoportal/internal/server/records/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const table = "Centralización de Información"

type failingStore struct{ err error }

func (f failingStore) Query(context.Context, string, records.Query) ([]records.Record, error) {
	return nil, f.err
}

func (f failingStore) Create(context.Context, string, records.Fields) (*records.Record, error) {
	return nil, f.err
}

func (f failingStore) Update(context.Context, string, string, records.Fields) (*records.Record, error) {
	return nil, f.err
}

func TestCreate_RoundTrip(t *testing.T) {
	store := memory.New()
	repo := NewRecordsRepository(store, table)

	in := &models.LedgerEntry{
		Name:        "Aguas - 1/6/2025",
		ItemType:    "Ambiental",
		Responsible: "Diana",
		Source:      "Archivo Excel",
		Period:      "Mensual",
		Files:       []models.FileRef{{URL: "https://b.s3.r.amazonaws.com/aguas/1-a.xlsx", Filename: "a.xlsx"}},
	}

	got, err := repo.Create(context.Background(), in)
	require.NoError(t, err)
	assert.NotEmpty(t, got.RecordID)
	assert.Equal(t, in.Files, got.Files)
	assert.Equal(t, "Diana", got.Responsible)
	assert.Empty(t, got.Comments)

	rows, err := store.Query(context.Background(), table, records.Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Has(ColComments), "empty optional columns are not written")
}

func TestList_FiltersByType(t *testing.T) {
	store := memory.New()
	repo := NewRecordsRepository(store, table)
	ctx := context.Background()

	for _, typ := range []string{"Planta", "Contabilidad", "Planta"} {
		_, err := repo.Create(ctx, &models.LedgerEntry{Name: typ, ItemType: typ, Source: "Imagen", Period: "Mensual"})
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	planta, err := repo.List(ctx, "Planta")
	require.NoError(t, err)
	assert.Len(t, planta, 2)
	for _, e := range planta {
		assert.Equal(t, "Planta", e.ItemType)
		assert.NotNil(t, e.Files)
	}
}

func TestList_Limit(t *testing.T) {
	store := memory.New()
	repo := NewRecordsRepository(store, table)
	ctx := context.Background()

	for i := 0; i < ListLimit+5; i++ {
		_, err := store.Create(ctx, table, records.Fields{ColName: fmt.Sprint(i)})
		require.NoError(t, err)
	}

	got, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, got, ListLimit)
}

func TestList_BadField(t *testing.T) {
	store := memory.New()
	_, err := store.Create(context.Background(), table, records.Fields{ColFiles: "not a list"})
	require.NoError(t, err)

	_, err = NewRecordsRepository(store, table).List(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrFieldType)
}

func TestStoreErrors(t *testing.T) {
	boom := errors.New("boom")
	repo := NewRecordsRepository(failingStore{boom}, table)

	_, err := repo.Create(context.Background(), &models.LedgerEntry{})
	assert.ErrorIs(t, err, boom)

	_, err = repo.List(context.Background(), "Planta")
	assert.ErrorIs(t, err, boom)
}
