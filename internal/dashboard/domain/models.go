// Package domain contains the read models of the organization dashboard.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adopet/internal/money"
)

// Window is a half-open calendar range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// AdoptionCounts are the all-time adoption counters of one organization.
type AdoptionCounts struct {
	Total  int64
	Closed int64
}

type CategoryTotal struct {
	CategoryID snowflake.ID
	Name       string `gorm:"column:category_name"`
	Total      money.Cents
}
