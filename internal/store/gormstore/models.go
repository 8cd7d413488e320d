package gormstore

import (
	"time"

	"gorm.io/datatypes"
)

// Record is one JSON record of a collection, kept in collection order.
type Record struct {
	Collection string         `gorm:"primaryKey;size:64;index:idx_records_collection_record,unique,priority:1"`
	Position   int            `gorm:"primaryKey;autoIncrement:false"`
	RecordID   *string        `gorm:"size:191;index:idx_records_collection_record,unique,priority:2"`
	Payload    datatypes.JSON `gorm:"not null"`
	UpdatedAt  time.Time      `gorm:"not null"`
}

func (Record) TableName() string { return "records" }
