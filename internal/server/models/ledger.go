package models

import "time"

// FileRef is one uploaded file attached to a ledger entry.
type FileRef struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// LedgerEntry is one upload recorded in the information ledger.
type LedgerEntry struct {
	RecordID    string    `json:"id"`
	Name        string    `json:"nombre"`
	ItemType    string    `json:"tipo"`
	Responsible string    `json:"responsable,omitempty"`
	Source      string    `json:"fuente"`
	Period      string    `json:"periodo"`
	Files       []FileRef `json:"archivos"`
	Comments    string    `json:"comentarios,omitempty"`
	CreatedAt   time.Time `json:"creado"`
}
