package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/evergrid/contracts-service/internal/model"
)

// ContractStore is the relational surface the service needs. The gorm
// repository implements it; tests substitute an in-memory fake.
type ContractStore interface {
	ListContracts(ctx context.Context, filter model.ContractFilter) ([]model.Contract, int64, error)
	GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	CreateContract(ctx context.Context, contract model.Contract) (*model.Contract, error)
	UpdateContract(ctx context.Context, id uuid.UUID, upd model.ContractUpdate) (*model.Contract, error)
	CreateContractFile(ctx context.Context, file model.ContractFile) (*model.ContractFile, error)
	ListContractFiles(ctx context.Context, contractID uuid.UUID) ([]model.ContractFile, error)
}

type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

type SummaryGenerator interface {
	Generate(contract model.Contract) ([]byte, error)
}

type ContractService struct {
	contracts ContractStore
	blobs     BlobStore
	pdf       SummaryGenerator
}

func NewContractService(contracts ContractStore, blobs BlobStore, pdf SummaryGenerator) *ContractService {
	return &ContractService{
		contracts: contracts,
		blobs:     blobs,
		pdf:       pdf,
	}
}

type ListContractsInput struct {
	Page     int
	Limit    int
	DateFrom string
	NoDates  *bool
}

type ContractPage struct {
	Items      []model.Contract
	TotalCount int64
}

// List returns one page of contracts plus the total count matching the
// same filter. Non-positive page or limit is rejected rather than
// clamped. A date_from that does not parse degrades to "no date floor"
// instead of failing, and is ignored entirely when no_dates=true
// restricts the listing to undated contracts.
func (s *ContractService) List(ctx context.Context, input ListContractsInput) (*ContractPage, error) {
	if input.Page < 1 {
		return nil, fmt.Errorf("%w: page must be a positive integer", ErrInvalidInput)
	}
	if input.Limit < 1 {
		return nil, fmt.Errorf("%w: limit must be a positive integer", ErrInvalidInput)
	}

	filter := model.ContractFilter{
		NoDates: input.NoDates,
		Limit:   input.Limit,
		Offset:  (input.Page - 1) * input.Limit,
	}

	onlyUndated := input.NoDates != nil && *input.NoDates
	if input.DateFrom != "" && !onlyUndated {
		if dateFrom, err := ParseDate(input.DateFrom); err == nil {
			filter.DateFrom = &dateFrom
		}
	}

	items, total, err := s.contracts.ListContracts(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ContractPage{Items: items, TotalCount: total}, nil
}

func (s *ContractService) Get(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.contracts.GetContract(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, id)
		}
		return nil, err
	}
	return contract, nil
}

// ContractFields is the sparse field set shared by create and update.
// Date and time values arrive as raw strings and go through the shared
// permissive parser.
type ContractFields struct {
	Zip               *string
	City              *string
	FuelType          *string
	ExternalProjectID *string
	Date              *string
	StartAtTime       *string
	EndAtTime         *string
	MeetingURL        *string
	InspectionDoc     *string
	InvoiceDoc        *string
	FormStage         *string
}

func (s *ContractService) Create(ctx context.Context, userID uuid.UUID, fields ContractFields) (*model.Contract, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	upd, err := parseFields(fields)
	if err != nil {
		return nil, err
	}

	stage := model.FormStageProjectID
	if upd.FormStage != nil {
		stage = *upd.FormStage
	}

	contract := model.Contract{
		UserID:            userID,
		Zip:               upd.Zip,
		City:              upd.City,
		FuelType:          upd.FuelType,
		ExternalProjectID: upd.ExternalProjectID,
		Date:              upd.Date,
		StartAtTime:       upd.StartAtTime,
		EndAtTime:         upd.EndAtTime,
		MeetingURL:        upd.MeetingURL,
		InspectionDoc:     upd.InspectionDoc,
		InvoiceDoc:        upd.InvoiceDoc,
		FormStage:         stage,
	}
	return s.contracts.CreateContract(ctx, contract)
}

// Update merges only the fields present in the patch. Ownership is
// checked before anything is written, so a mismatch never leaves a
// half-applied patch behind.
func (s *ContractService) Update(ctx context.Context, id, callerID uuid.UUID, fields ContractFields) (*model.Contract, error) {
	upd, err := parseFields(fields)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != callerID {
		return nil, ErrOwnershipMismatch
	}

	updated, err := s.contracts.UpdateContract(ctx, id, upd)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, id)
		}
		return nil, err
	}
	return updated, nil
}

func parseFields(fields ContractFields) (model.ContractUpdate, error) {
	upd := model.ContractUpdate{
		Zip:               fields.Zip,
		City:              fields.City,
		FuelType:          fields.FuelType,
		ExternalProjectID: fields.ExternalProjectID,
		MeetingURL:        fields.MeetingURL,
		InspectionDoc:     fields.InspectionDoc,
		InvoiceDoc:        fields.InvoiceDoc,
	}

	if fields.Date != nil {
		date, err := ParseDate(*fields.Date)
		if err != nil {
			return upd, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		upd.Date = &date
	}
	if fields.StartAtTime != nil {
		startAt, err := ParseTimeOfDay(*fields.StartAtTime)
		if err != nil {
			return upd, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		upd.StartAtTime = &startAt
	}
	if fields.EndAtTime != nil {
		endAt, err := ParseTimeOfDay(*fields.EndAtTime)
		if err != nil {
			return upd, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		upd.EndAtTime = &endAt
	}
	if fields.FormStage != nil {
		stage := model.FormStage(strings.TrimSpace(*fields.FormStage))
		if !stage.Valid() {
			return upd, fmt.Errorf("%w: unknown form_stage %q", ErrInvalidInput, *fields.FormStage)
		}
		upd.FormStage = &stage
	}
	return upd, nil
}

type UploadFileInput struct {
	ContractID  uuid.UUID
	FileName    string
	ContentType string
	Data        []byte
}

// UploadFile stores the bytes in the blob bucket and records the file
// against the contract. If the metadata insert fails the uploaded
// object is removed again.
func (s *ContractService) UploadFile(ctx context.Context, input UploadFileInput) (*model.ContractFile, error) {
	if strings.TrimSpace(input.FileName) == "" {
		return nil, fmt.Errorf("%w: missing file name", ErrInvalidInput)
	}
	if len(input.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}

	if _, err := s.Get(ctx, input.ContractID); err != nil {
		return nil, err
	}

	ext := path.Ext(input.FileName)
	key := fmt.Sprintf("contracts/%s/%s%s", input.ContractID, uuid.New(), ext)

	fileURL, err := s.blobs.Upload(ctx, key, input.ContentType, input.Data)
	if err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}

	file, err := s.contracts.CreateContractFile(ctx, model.ContractFile{
		ContractID: input.ContractID,
		FileName:   input.FileName,
		FileExt:    strings.TrimPrefix(ext, "."),
		FileURL:    fileURL,
	})
	if err != nil {
		_ = s.blobs.Delete(ctx, fileURL)
		return nil, err
	}
	return file, nil
}

func (s *ContractService) ListFiles(ctx context.Context, contractID uuid.UUID) ([]model.ContractFile, error) {
	if _, err := s.Get(ctx, contractID); err != nil {
		return nil, err
	}
	return s.contracts.ListContractFiles(ctx, contractID)
}

type SummaryResult struct {
	FileName string
	Content  []byte
}

func (s *ContractService) SummaryPDF(ctx context.Context, id uuid.UUID) (*SummaryResult, error) {
	contract, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	content, err := s.pdf.Generate(*contract)
	if err != nil {
		return nil, err
	}
	return &SummaryResult{
		FileName: fmt.Sprintf("contract-%s.pdf", contract.ID),
		Content:  content,
	}, nil
}
