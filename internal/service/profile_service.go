package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/evergrid/contracts-service/internal/model"
)

type ProfileStore interface {
	FindZipProfiles(ctx context.Context, zipCode string, city, fuelType *string) ([]model.ZipProfile, error)
	GetAgencyByCode(ctx context.Context, code string) (*model.Agency, error)
}

type ProfileService struct {
	profiles ProfileStore
}

func NewProfileService(profiles ProfileStore) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// Lookup returns the zip profiles for a zip code, optionally narrowed
// by city and fuel type.
func (s *ProfileService) Lookup(ctx context.Context, zipCode string, city, fuelType *string) ([]model.ZipProfile, error) {
	zipCode = strings.TrimSpace(zipCode)
	if zipCode == "" {
		return nil, fmt.Errorf("%w: zip_code is required", ErrInvalidInput)
	}
	return s.profiles.FindZipProfiles(ctx, zipCode, city, fuelType)
}

func (s *ProfileService) AgencyByCode(ctx context.Context, code string) (*model.Agency, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: agency code is required", ErrInvalidInput)
	}

	agency, err := s.profiles.GetAgencyByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: agency %s", ErrNotFound, code)
		}
		return nil, err
	}
	return agency, nil
}
