package model

import (
	"time"

	"gorm.io/datatypes"
)

// Setting is a JSON document stored under a unique key
type Setting struct {
	Key       string         `gorm:"primaryKey;size:200"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime:false"`
}

// TableName specifies the table name for GORM
func (Setting) TableName() string {
	return "settings"
}
