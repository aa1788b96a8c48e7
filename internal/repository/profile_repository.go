package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/evergrid/contracts-service/internal/model"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) FindZipProfiles(ctx context.Context, zipCode string, city, fuelType *string) ([]model.ZipProfile, error) {
	baseQuery := `
		SELECT
			id,
			zip_code,
			city,
			fuel_type,
			sponsored,
			utility_type,
			has_utility,
			proceed_reason,
			is_dec,
			electrification_candidate,
			agency_code,
			created_at,
			updated_at
		FROM zip_profiles
		WHERE zip_code = ?
	`
	args := []interface{}{zipCode}
	if city != nil && *city != "" {
		baseQuery += " AND city = ?"
		args = append(args, *city)
	}
	if fuelType != nil && *fuelType != "" {
		baseQuery += " AND fuel_type = ?"
		args = append(args, *fuelType)
	}
	baseQuery += " ORDER BY city ASC, fuel_type ASC"

	var profiles []model.ZipProfile
	if err := r.db.WithContext(ctx).Raw(baseQuery, args...).Scan(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *ProfileRepository) GetAgencyByCode(ctx context.Context, code string) (*model.Agency, error) {
	var agency model.Agency
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, code, name, phone, website, to_apply_url, notes, created_at, updated_at
		FROM agencies
		WHERE code = ?
		LIMIT 1
	`, code).Scan(&agency).Error
	if err != nil {
		return nil, err
	}
	if agency.Code == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return &agency, nil
}

// ReplaceAll swaps both lookup tables for freshly imported workbook
// rows. Profiles are cleared before agencies to respect the code
// reference between them.
func (r *ProfileRepository) ReplaceAll(ctx context.Context, agencies []model.Agency, profiles []model.ZipProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM zip_profiles`).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM agencies`).Error; err != nil {
			return err
		}

		for _, agency := range agencies {
			err := tx.Exec(`
				INSERT INTO agencies (code, name, phone, website, to_apply_url, notes)
				VALUES (?, ?, ?, ?, ?, ?)
			`, agency.Code, agency.Name, agency.Phone, agency.Website, agency.ToApplyURL, agency.Notes).Error
			if err != nil {
				return err
			}
		}

		for _, profile := range profiles {
			err := tx.Exec(`
				INSERT INTO zip_profiles (
					zip_code,
					city,
					fuel_type,
					sponsored,
					utility_type,
					has_utility,
					proceed_reason,
					is_dec,
					electrification_candidate,
					agency_code
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				profile.ZipCode,
				profile.City,
				profile.FuelType,
				profile.Sponsored,
				profile.UtilityType,
				profile.HasUtility,
				profile.ProceedReason,
				profile.IsDec,
				profile.ElectrificationCandidate,
				profile.AgencyCode,
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
