package ledger

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ecoportal/internal/server/models"
	"github.com/dmitrijs2005/ecoportal/internal/server/records"
)

type RecordsRepository struct {
	store records.Store
	table string
}

func NewRecordsRepository(store records.Store, table string) *RecordsRepository {
	return &RecordsRepository{store: store, table: table}
}

var _ Repository = (*RecordsRepository)(nil)

// Create writes only the optional columns that carry a value.
func (r *RecordsRepository) Create(ctx context.Context, entry *models.LedgerEntry) (*models.LedgerEntry, error) {
	fields := records.Fields{
		ColName:     entry.Name,
		ColItemType: entry.ItemType,
		ColSource:   entry.Source,
		ColPeriod:   entry.Period,
	}
	if entry.Responsible != "" {
		fields[ColResponsible] = entry.Responsible
	}
	if len(entry.Files) > 0 {
		atts := make([]records.Attachment, 0, len(entry.Files))
		for _, f := range entry.Files {
			atts = append(atts, records.Attachment{URL: f.URL, Filename: f.Filename})
		}
		fields[ColFiles] = atts
	}
	if entry.Comments != "" {
		fields[ColComments] = entry.Comments
	}

	rec, err := r.store.Create(ctx, r.table, fields)
	if err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}
	return toEntry(rec)
}

// List returns up to ListLimit entries, all of them or only one item type.
func (r *RecordsRepository) List(ctx context.Context, itemType string) ([]models.LedgerEntry, error) {
	q := records.Query{MaxRecords: ListLimit}
	if itemType != "" {
		q = records.Equals(ColItemType, itemType, ListLimit)
	}

	rows, err := r.store.Query(ctx, r.table, q)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}

	out := make([]models.LedgerEntry, 0, len(rows))
	for i := range rows {
		e, err := toEntry(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

func toEntry(rec *records.Record) (*models.LedgerEntry, error) {
	e := &models.LedgerEntry{RecordID: rec.ID, CreatedAt: rec.CreatedTime}

	for col, dst := range map[string]*string{
		ColName:        &e.Name,
		ColItemType:    &e.ItemType,
		ColResponsible: &e.Responsible,
		ColSource:      &e.Source,
		ColPeriod:      &e.Period,
		ColComments:    &e.Comments,
	} {
		v, err := rec.String(col)
		if err != nil {
			return nil, fmt.Errorf("map ledger entry %s: %w", rec.ID, err)
		}
		*dst = v
	}

	atts, err := rec.Attachments(ColFiles)
	if err != nil {
		return nil, fmt.Errorf("map ledger entry %s: %w", rec.ID, err)
	}
	e.Files = make([]models.FileRef, 0, len(atts))
	for _, a := range atts {
		e.Files = append(e.Files, models.FileRef{URL: a.URL, Filename: a.Filename})
	}

	return e, nil
}
