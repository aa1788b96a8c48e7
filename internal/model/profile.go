package model

import (
	"time"

	"github.com/google/uuid"
)

// Agency is a rebate/assistance agency contractors get referred to.
type Agency struct {
	ID         uuid.UUID
	Code       string
	Name       string
	Phone      string
	Website    string
	ToApplyURL string
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ZipProfile describes contractor availability and utility posture
// for one zip/city/fuel combination. Rows are replaced wholesale by
// the workbook importer, never edited individually.
type ZipProfile struct {
	ID                       uuid.UUID
	ZipCode                  string
	City                     string
	FuelType                 string
	Sponsored                string
	UtilityType              string
	HasUtility               bool
	ProceedReason            string
	IsDec                    bool
	ElectrificationCandidate bool
	AgencyCode               *string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}
