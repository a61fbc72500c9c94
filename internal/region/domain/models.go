// Package domain contains the administrative-region reference models and the
// directory interface consumed by registration.
package domain

import (
	"github.com/bwmarrin/snowflake"
)

// The four levels of the administrative hierarchy. Reference data only; the
// billing engine never writes these tables.

type Province struct {
	ID   snowflake.ID `gorm:"primaryKey"`
	Name string       `gorm:"type:text;not null"`
}

func (Province) TableName() string { return "provinces" }

type Regency struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	ProvinceID snowflake.ID `gorm:"not null;index"`
	Name       string       `gorm:"type:text;not null"`
}

func (Regency) TableName() string { return "regencies" }

type District struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	RegencyID snowflake.ID `gorm:"not null;index"`
	Name      string       `gorm:"type:text;not null"`
}

func (District) TableName() string { return "districts" }

type Village struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	DistrictID snowflake.ID `gorm:"not null;index"`
	Name       string       `gorm:"type:text;not null"`
}

func (Village) TableName() string { return "villages" }
