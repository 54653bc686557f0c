package model

import (
	"github.com/google/uuid"
)

// OrderCounter is the per-(restaurant, day) sequence backing order numbers.
// Day is the local calendar day formatted YYMMDD. The row is bumped with an
// atomic upsert (INSERT … ON CONFLICT … RETURNING), never read-modify-write,
// so concurrent order creation cannot produce duplicate numbers.
type OrderCounter struct {
	RestaurantID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Day          string    `gorm:"type:varchar(6);primaryKey"`
	Seq          int       `gorm:"not null;default:0"`
}
