package model

import (
	"time"

	"github.com/google/uuid"
)

type FormStage string

const (
	FormStageProjectID FormStage = "project_id"
	FormStageSchedule  FormStage = "schedule"
	FormStageDocuments FormStage = "documents"
	FormStageClosed    FormStage = "closed"
)

func (s FormStage) Valid() bool {
	switch s {
	case FormStageProjectID, FormStageSchedule, FormStageDocuments, FormStageClosed:
		return true
	}
	return false
}

type Contract struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Zip               *string
	City              *string
	FuelType          *string
	ExternalProjectID *string
	Date              *time.Time // calendar date, no time component
	StartAtTime       *string    // time of day, "15:04:05"
	EndAtTime         *string
	MeetingURL        *string
	InspectionDoc     *string
	InvoiceDoc        *string
	FormStage         FormStage
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type ContractFile struct {
	ID         uuid.UUID
	ContractID uuid.UUID
	FileName   string
	FileExt    string
	FileURL    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
