package entities

import "time"

type ArbitraryData struct {
	ID        string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time `gorm:"index"`
}
