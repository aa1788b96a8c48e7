package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) NOT NULL UNIQUE,
		full_name VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'form_stage') THEN
			CREATE TYPE form_stage AS ENUM ('project_id', 'schedule', 'documents', 'closed');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id),
		zip VARCHAR(16),
		city VARCHAR(128),
		fuel_type VARCHAR(64),
		external_project_id VARCHAR(128),
		date DATE,
		start_at_time TIME,
		end_at_time TIME,
		meeting_url TEXT,
		inspection_doc TEXT,
		invoice_doc TEXT,
		form_stage form_stage NOT NULL DEFAULT 'project_id',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_user_id ON contracts (user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_date ON contracts (date ASC NULLS FIRST, start_at_time ASC NULLS LAST);`,
	`CREATE TABLE IF NOT EXISTS contract_files (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id),
		file_name VARCHAR(512) NOT NULL,
		file_ext VARCHAR(32) NOT NULL,
		file_url TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_files_contract_id ON contract_files (contract_id);`,
	`CREATE TABLE IF NOT EXISTS agencies (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		code VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		phone VARCHAR(64) NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		to_apply_url TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_agencies_code ON agencies (code);`,
	`CREATE TABLE IF NOT EXISTS zip_profiles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		zip_code VARCHAR(16) NOT NULL,
		city VARCHAR(128) NOT NULL,
		fuel_type VARCHAR(64) NOT NULL DEFAULT '',
		sponsored VARCHAR(128) NOT NULL DEFAULT '',
		utility_type VARCHAR(128) NOT NULL DEFAULT '',
		has_utility BOOLEAN NOT NULL DEFAULT FALSE,
		proceed_reason TEXT NOT NULL DEFAULT '',
		is_dec BOOLEAN NOT NULL DEFAULT FALSE,
		electrification_candidate BOOLEAN NOT NULL DEFAULT FALSE,
		agency_code VARCHAR(64),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_zip_profiles_zip_code ON zip_profiles (zip_code);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
