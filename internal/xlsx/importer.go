package xlsx

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/evergrid/contracts-service/internal/model"
)

// The lookup tables are seeded from two hand-maintained workbooks: one
// listing agencies, one listing zip/city/fuel contractor profiles. The
// first sheet of each workbook carries a header row naming the columns
// below; extra columns are ignored.

var agencyColumns = []string{"agency_code", "agency_name", "phone", "website", "to_apply", "notes"}

var profileColumns = []string{
	"zip_code",
	"city",
	"fuel_type",
	"sponsored",
	"utility_type",
	"utility",
	"proceed_reason",
	"is_dec",
	"electrification_candidate",
	"R2_AgencyCodes",
}

func ParseAgencies(path string) ([]model.Agency, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return parseAgencyRows(file)
}

func ParseZipProfiles(path string) ([]model.ZipProfile, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return parseProfileRows(file)
}

func parseAgencyRows(file *excelize.File) ([]model.Agency, error) {
	rows, index, err := sheetRows(file, agencyColumns)
	if err != nil {
		return nil, err
	}

	agencies := make([]model.Agency, 0, len(rows))
	for _, row := range rows {
		code := strings.TrimSpace(cell(row, index["agency_code"]))
		if code == "" {
			continue
		}
		agencies = append(agencies, model.Agency{
			Code:       code,
			Name:       cell(row, index["agency_name"]),
			Phone:      cell(row, index["phone"]),
			Website:    cell(row, index["website"]),
			ToApplyURL: cell(row, index["to_apply"]),
			Notes:      cell(row, index["notes"]),
		})
	}
	return agencies, nil
}

func parseProfileRows(file *excelize.File) ([]model.ZipProfile, error) {
	rows, index, err := sheetRows(file, profileColumns)
	if err != nil {
		return nil, err
	}

	profiles := make([]model.ZipProfile, 0, len(rows))
	for _, row := range rows {
		zip := strings.TrimSpace(cell(row, index["zip_code"]))
		if zip == "" {
			continue
		}
		profile := model.ZipProfile{
			ZipCode:                  padZip(zip),
			City:                     titleCase(cell(row, index["city"])),
			FuelType:                 cell(row, index["fuel_type"]),
			Sponsored:                cell(row, index["sponsored"]),
			UtilityType:              cell(row, index["utility_type"]),
			HasUtility:               yesNo(cell(row, index["utility"])),
			ProceedReason:            cell(row, index["proceed_reason"]),
			IsDec:                    yesNo(cell(row, index["is_dec"])),
			ElectrificationCandidate: yesNo(cell(row, index["electrification_candidate"])),
		}
		if code := strings.TrimSpace(cell(row, index["R2_AgencyCodes"])); code != "" {
			profile.AgencyCode = &code
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// sheetRows reads the first sheet, maps the header row onto required
// column positions and returns the data rows.
func sheetRows(file *excelize.File, required []string) ([][]string, map[string]int, error) {
	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, nil, fmt.Errorf("sheet %s is missing column %q", sheets[0], name)
		}
	}
	return rows[1:], index, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// padZip restores leading zeros spreadsheets strip from numeric zips.
func padZip(zip string) string {
	for len(zip) < 5 {
		zip = "0" + zip
	}
	return zip
}

func yesNo(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "YES")
}

func titleCase(value string) string {
	words := strings.Fields(strings.ToLower(value))
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
