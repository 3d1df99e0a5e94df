package models

import "time"

// StoredDocument is one named document of a collection in the document store.
// Data holds the JSON encoding of the document's field map.
type StoredDocument struct {
	Collection string    `gorm:"primaryKey;size:64" json:"collection"`
	DocID      string    `gorm:"primaryKey;size:128" json:"docId"`
	Data       string    `gorm:"type:text;not null" json:"data"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TableName pins the table name independent of the struct name.
func (StoredDocument) TableName() string {
	return "documents"
}
