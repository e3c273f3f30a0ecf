// ncf-range-import loads DGII NCF authorization ranges from a spreadsheet.
//
// Expected columns on the first sheet, one range per row, header row skipped:
//   A company_id | B ncf_type (01/02) | C start_number | D end_number | E valid_until (DD/MM/YYYY, optional)
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/ncf-range-import ranges.xlsx
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/config"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/models"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ncf-range-import <file.xlsx>")
		os.Exit(2)
	}
	path := os.Args[1]

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	imported, err := importRanges(db, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("imported %d NCF range(s)\n", imported)
}

func importRanges(db *gorm.DB, path string) (int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, err
	}

	imported := 0
	for i, row := range rows {
		if i == 0 || len(row) < 4 {
			continue
		}
		ncfRange, err := parseRangeRow(row)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := db.Create(ncfRange).Error; err != nil {
			return imported, fmt.Errorf("row %d: %w", i+1, err)
		}
		imported++
	}
	return imported, nil
}

func parseRangeRow(row []string) (*models.NcfRange, error) {
	companyId, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil {
		return nil, fmt.Errorf("bad company_id %q", row[0])
	}
	ncfType := models.NcfType(strings.TrimSpace(row[1]))
	if ncfType != models.NcfTypeFiscalCredit && ncfType != models.NcfTypeConsumer {
		return nil, fmt.Errorf("bad ncf_type %q", row[1])
	}
	start, err := strconv.ParseInt(strings.TrimSpace(row[2]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad start_number %q", row[2])
	}
	end, err := strconv.ParseInt(strings.TrimSpace(row[3]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad end_number %q", row[3])
	}
	if end < start {
		return nil, fmt.Errorf("end_number %d before start_number %d", end, start)
	}

	ncfRange := models.NcfRange{
		CompanyId:        companyId,
		NcfType:          ncfType,
		Active:           utils.NewTrue(),
		NextNumber:       start,
		EndNumber:        end,
		AvailableNumbers: int(end - start + 1),
	}
	if len(row) > 4 && strings.TrimSpace(row[4]) != "" {
		dateEnd, err := time.Parse("02/01/2006", strings.TrimSpace(row[4]))
		if err != nil {
			return nil, fmt.Errorf("bad valid_until %q", row[4])
		}
		ncfRange.DateEnd = &dateEnd
	}
	return &ncfRange, nil
}
