package models

import "time"

// Collection ist eine benannte Sammlung von Suchergebnissen eines Benutzers.
type Collection struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      uint      `json:"user_id" gorm:"index;not null"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`

	Items []CollectionItem `json:"items,omitempty" gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
	User  *User            `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

func (Collection) TableName() string {
	return "collections"
}

// CollectionItem referenziert einen Datensatz (Studie, Paper, Domain oder Data Product).
// Der Titel wird beim Hinzufügen als Snapshot übernommen.
type CollectionItem struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	CollectionID uint      `json:"collection_id" gorm:"uniqueIndex:idx_collection_items_ref;not null"`
	ItemType     string    `json:"item_type" gorm:"uniqueIndex:idx_collection_items_ref;size:32;not null"`
	ItemID       uint      `json:"item_id" gorm:"uniqueIndex:idx_collection_items_ref;not null"`
	Title        string    `json:"title"`
	AddedAt      time.Time `json:"added_at" gorm:"autoCreateTime"`
}

func (CollectionItem) TableName() string {
	return "collection_items"
}
