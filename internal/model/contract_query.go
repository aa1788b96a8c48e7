package model

import "time"

// ContractFilter is the resolved filter for a contract listing. The
// composition rules (date_from dropped under no_dates=true, malformed
// date_from ignored) are applied by the service before it reaches the
// repository.
type ContractFilter struct {
	NoDates  *bool // true: only undated, false: only dated, nil: no presence filter
	DateFrom *time.Time
	Limit    int
	Offset   int
}

// ContractUpdate is a sparse patch. A nil field leaves the column
// untouched; a set field overwrites it. There is no way to clear a
// column through a patch.
type ContractUpdate struct {
	Zip               *string
	City              *string
	FuelType          *string
	ExternalProjectID *string
	Date              *time.Time
	StartAtTime       *string
	EndAtTime         *string
	MeetingURL        *string
	InspectionDoc     *string
	InvoiceDoc        *string
	FormStage         *FormStage
}

func (u ContractUpdate) Empty() bool {
	return u.Zip == nil && u.City == nil && u.FuelType == nil &&
		u.ExternalProjectID == nil && u.Date == nil && u.StartAtTime == nil &&
		u.EndAtTime == nil && u.MeetingURL == nil && u.InspectionDoc == nil &&
		u.InvoiceDoc == nil && u.FormStage == nil
}
