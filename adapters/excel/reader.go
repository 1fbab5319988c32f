// Package excel imports observation logs from spreadsheet exports. Most
// tracking apps export xlsx or csv; both route through the same reader.
package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cyclewise/domain/core"
	"cyclewise/domain/observation"
	"cyclewise/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Column headers the reader recognizes, matched case-insensitively.
const (
	colTimestamp = "timestamp"
	colMood      = "mood"
	colEnergy    = "energy"
	colSymptoms  = "symptoms"
	colFreeText  = "notes"
)

// Timestamp formats accepted in export files, tried in order.
var timeFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// DataReader reads observation rows from an xlsx or csv export.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader; the file type follows the extension.
func NewDataReader(filePath string) *DataReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadObservations parses the file into observations owned by userID.
// Rows with no parsable timestamp are rejected; all other columns are
// optional per row.
func (r *DataReader) ReadObservations(userID core.UserID) ([]observation.Observation, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.InvalidInput(fmt.Sprintf("import file not found: %s", r.filePath))
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.InvalidInput("import file has no data rows")
	}

	cols, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	obs := make([]observation.Observation, 0, len(rows)-1)
	for i, row := range rows[1:] {
		o, err := parseRow(userID, cols, row)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+2)
		}
		obs = append(obs, o)
	}
	return obs, nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read sheet")
	}
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV rows")
	}
	return rows, nil
}

// mapColumns resolves header names to column indexes. Only the timestamp
// column is mandatory.
func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int)
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols[colTimestamp]; !ok {
		return nil, errors.InvalidInput("import file missing timestamp column")
	}
	return cols, nil
}

func parseRow(userID core.UserID, cols map[string]int, row []string) (observation.Observation, error) {
	ts, err := parseTimestamp(cell(row, cols, colTimestamp))
	if err != nil {
		return observation.Observation{}, err
	}

	o := observation.Observation{
		ID:        core.ObservationID(core.NewID()),
		UserID:    userID,
		Timestamp: ts,
		FreeText:  cell(row, cols, colFreeText),
	}

	if v, ok, err := parseOptionalFloat(cell(row, cols, colMood)); err != nil {
		return observation.Observation{}, errors.Wrap(err, "mood")
	} else if ok {
		o.Mood = &v
	}
	if v, ok, err := parseOptionalFloat(cell(row, cols, colEnergy)); err != nil {
		return observation.Observation{}, errors.Wrap(err, "energy")
	} else if ok {
		o.Energy = &v
	}

	if raw := cell(row, cols, colSymptoms); raw != "" {
		for _, tag := range strings.Split(raw, ";") {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag != "" {
				o.SymptomTags = append(o.SymptomTags, tag)
			}
		}
	}
	return o, nil
}

func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseTimestamp(raw string) (core.Timestamp, error) {
	if raw == "" {
		return core.Timestamp{}, errors.InvalidInput("empty timestamp")
	}
	for _, format := range timeFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return core.NewTimestamp(t), nil
		}
	}
	return core.Timestamp{}, errors.InvalidInput(fmt.Sprintf("unparsable timestamp %q", raw))
}

func parseOptionalFloat(raw string) (float64, bool, error) {
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
