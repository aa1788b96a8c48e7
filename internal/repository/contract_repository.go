package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/evergrid/contracts-service/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

const contractColumns = `
	id,
	user_id,
	zip,
	city,
	fuel_type,
	external_project_id,
	date,
	start_at_time::text AS start_at_time,
	end_at_time::text AS end_at_time,
	meeting_url,
	inspection_doc,
	invoice_doc,
	form_stage,
	created_at,
	updated_at
`

// Undated contracts come first, dated ones follow earliest-first, and
// within a date contracts without a start time trail the timed ones.
// created_at/id keep the order stable where everything else ties.
const contractOrderClause = `ORDER BY date ASC NULLS FIRST, start_at_time ASC NULLS LAST, created_at ASC, id ASC`

// contractFilterClauses renders a ContractFilter as a WHERE clause.
// An empty filter yields an empty string.
func contractFilterClauses(filter model.ContractFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if filter.NoDates != nil {
		if *filter.NoDates {
			conds = append(conds, "date IS NULL")
		} else {
			conds = append(conds, "date IS NOT NULL")
		}
	}
	if filter.DateFrom != nil {
		conds = append(conds, "date >= ?")
		args = append(args, *filter.DateFrom)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// ListContracts runs the count and page queries for one filter. The
// two reads are independent; under concurrent writes the total and the
// page may come from slightly different snapshots.
func (r *ContractRepository) ListContracts(ctx context.Context, filter model.ContractFilter) ([]model.Contract, int64, error) {
	where, args := contractFilterClauses(filter)

	var total int64
	countQuery := "SELECT COUNT(*) FROM contracts " + where
	if err := r.db.WithContext(ctx).Raw(countQuery, args...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	pageQuery := "SELECT " + contractColumns + " FROM contracts " + where + " " + contractOrderClause + " LIMIT ? OFFSET ?"
	pageArgs := append(append([]interface{}{}, args...), filter.Limit, filter.Offset)

	var contracts []model.Contract
	if err := r.db.WithContext(ctx).Raw(pageQuery, pageArgs...).Scan(&contracts).Error; err != nil {
		return nil, 0, err
	}
	return contracts, total, nil
}

func (r *ContractRepository) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+contractColumns+`
		FROM contracts
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &contract, nil
}

func (r *ContractRepository) CreateContract(ctx context.Context, contract model.Contract) (*model.Contract, error) {
	var id uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO contracts (
			user_id,
			zip,
			city,
			fuel_type,
			external_project_id,
			date,
			start_at_time,
			end_at_time,
			meeting_url,
			inspection_doc,
			invoice_doc,
			form_stage
		) VALUES (?, ?, ?, ?, ?, ?, ?::time, ?::time, ?, ?, ?, ?)
		RETURNING id
	`,
		contract.UserID,
		contract.Zip,
		contract.City,
		contract.FuelType,
		contract.ExternalProjectID,
		contract.Date,
		contract.StartAtTime,
		contract.EndAtTime,
		contract.MeetingURL,
		contract.InspectionDoc,
		contract.InvoiceDoc,
		contract.FormStage,
	).Scan(&id).Error
	if err != nil {
		return nil, err
	}
	return r.GetContract(ctx, id)
}

// UpdateContract applies the set fields of upd and refreshes
// updated_at. Callers are expected to have resolved the contract
// first; an unknown id surfaces as gorm.ErrRecordNotFound.
func (r *ContractRepository) UpdateContract(ctx context.Context, id uuid.UUID, upd model.ContractUpdate) (*model.Contract, error) {
	if upd.Empty() {
		return r.GetContract(ctx, id)
	}

	sets, args := contractUpdateClauses(upd)
	args = append(args, id)

	result := r.db.WithContext(ctx).Exec(
		"UPDATE contracts SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetContract(ctx, id)
}

func contractUpdateClauses(upd model.ContractUpdate) ([]string, []interface{}) {
	var sets []string
	var args []interface{}

	set := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if upd.Zip != nil {
		set("zip", *upd.Zip)
	}
	if upd.City != nil {
		set("city", *upd.City)
	}
	if upd.FuelType != nil {
		set("fuel_type", *upd.FuelType)
	}
	if upd.ExternalProjectID != nil {
		set("external_project_id", *upd.ExternalProjectID)
	}
	if upd.Date != nil {
		set("date", *upd.Date)
	}
	if upd.StartAtTime != nil {
		sets = append(sets, "start_at_time = ?::time")
		args = append(args, *upd.StartAtTime)
	}
	if upd.EndAtTime != nil {
		sets = append(sets, "end_at_time = ?::time")
		args = append(args, *upd.EndAtTime)
	}
	if upd.MeetingURL != nil {
		set("meeting_url", *upd.MeetingURL)
	}
	if upd.InspectionDoc != nil {
		set("inspection_doc", *upd.InspectionDoc)
	}
	if upd.InvoiceDoc != nil {
		set("invoice_doc", *upd.InvoiceDoc)
	}
	if upd.FormStage != nil {
		set("form_stage", *upd.FormStage)
	}

	sets = append(sets, "updated_at = NOW()")
	return sets, args
}

func (r *ContractRepository) CreateContractFile(ctx context.Context, file model.ContractFile) (*model.ContractFile, error) {
	var saved model.ContractFile
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO contract_files (contract_id, file_name, file_ext, file_url)
		VALUES (?, ?, ?, ?)
		RETURNING id, contract_id, file_name, file_ext, file_url, created_at, updated_at
	`, file.ContractID, file.FileName, file.FileExt, file.FileURL).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *ContractRepository) ListContractFiles(ctx context.Context, contractID uuid.UUID) ([]model.ContractFile, error) {
	var files []model.ContractFile
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, contract_id, file_name, file_ext, file_url, created_at, updated_at
		FROM contract_files
		WHERE contract_id = ?
		ORDER BY created_at ASC, id ASC
	`, contractID).Scan(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}
