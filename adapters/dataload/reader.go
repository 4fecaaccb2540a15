// Package dataload reads collision records from CSV and Excel exports.
// It owns everything the statistical core must never see: raw header
// names, date/time string parsing, coordinate parsing, and row validity.
package dataload

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"crashlens/adapters/stats/memo"
	"crashlens/domain/collision"
	"crashlens/domain/core"
	"crashlens/internal"
	internalerrors "crashlens/internal/errors"
	"crashlens/ports"
)

// DataReader loads collision records from a CSV or XLSX file.
type DataReader struct {
	filePath string
	fileType string // "csv" or "xlsx"
	mapping  Mapping
	log      *internal.Logger
}

// NewDataReader creates a reader for the given file, picking the format
// from the extension.
func NewDataReader(filePath string, mapping Mapping) *DataReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		mapping:  mapping,
		log:      internal.DefaultLogger,
	}
}

// Load reads the file into records. Malformed rows are skipped and counted
// in the report, never fatal; an unreadable file is an error.
func (r *DataReader) Load() ([]collision.Record, ports.LoadReport, error) {
	start := time.Now()

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		err = core.ErrUnsupportedFile
	}
	if err != nil {
		return nil, ports.LoadReport{Path: r.filePath}, err
	}
	if len(rows) == 0 {
		return nil, ports.LoadReport{Path: r.filePath}, internalerrors.DataInvalid("data file has no header row")
	}

	cols, err := r.indexColumns(rows[0])
	if err != nil {
		return nil, ports.LoadReport{Path: r.filePath}, err
	}

	records := make([]collision.Record, 0, len(rows)-1)
	skipped := 0
	for _, row := range rows[1:] {
		rec, ok := r.parseRow(row, cols)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ports.LoadReport{Path: r.filePath, RowsRead: len(rows) - 1, RowsSkipped: skipped},
			internalerrors.Wrapf(core.ErrNoData, "%s: no usable rows", r.filePath)
	}

	report := ports.LoadReport{
		DatasetID:   core.DatasetID(core.NewID()),
		Path:        r.filePath,
		RowsRead:    len(rows) - 1,
		RowsSkipped: skipped,
		Fingerprint: memo.FingerprintRecords(records),
	}
	r.log.Info("loaded %d records from %s (%d rows skipped) in %s",
		len(records), r.filePath, skipped, time.Since(start).Round(time.Millisecond))
	return records, report, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, internalerrors.Wrapf(core.ErrUnreadableFile, "%s: %v", r.filePath, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows are handled per-field
	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A torn row is a data defect, not a fatal condition.
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, internalerrors.Wrapf(core.ErrUnreadableFile, "%s: %v", r.filePath, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, internalerrors.Wrapf(err, "failed to read sheet %s", sheet)
	}
	return rows, nil
}

// columnIndex maps record fields to header positions; -1 means the field
// is not present in this dataset.
type columnIndex struct {
	date, crashTime                  int
	injured, killed                  int
	lat, lon                         int
	borough, factor1, factor2        int
	vehicleType, preCrash, driverSex int
}

func (r *DataReader) indexColumns(header []string) (columnIndex, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.TrimSpace(h)] = i
	}

	find := func(name string) int {
		if name == "" {
			return -1
		}
		if idx, ok := byName[name]; ok {
			return idx
		}
		r.log.Warn("mapped column %q not found in %s; field will be absent", name, r.filePath)
		return -1
	}

	cols := columnIndex{
		date:        find(r.mapping.Date),
		crashTime:   find(r.mapping.Time),
		injured:     find(r.mapping.Injured),
		killed:      find(r.mapping.Killed),
		lat:         find(r.mapping.Latitude),
		lon:         find(r.mapping.Longitude),
		borough:     find(r.mapping.Borough),
		factor1:     find(r.mapping.Factor1),
		factor2:     find(r.mapping.Factor2),
		vehicleType: find(r.mapping.VehicleType),
		preCrash:    find(r.mapping.PreCrashAction),
		driverSex:   find(r.mapping.DriverSex),
	}
	if cols.injured == -1 {
		return cols, core.NewColumnError(r.mapping.Injured)
	}
	return cols, nil
}

func (r *DataReader) parseRow(row []string, cols columnIndex) (collision.Record, bool) {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	// The injury flag is the one field a row cannot do without.
	injuredCount, ok := parseCount(cell(cols.injured))
	if !ok {
		return collision.Record{}, false
	}
	killedCount, _ := parseCount(cell(cols.killed))

	rec := collision.Record{
		Injured:   injuredCount+killedCount > 0,
		Hour:      -1,
		DayOfWeek: -1,
	}

	if d, err := time.Parse(r.mapping.DateLayout, strings.TrimSpace(cell(cols.date))); err == nil {
		rec.Date = d
		rec.HasDate = true
		rec.DayOfWeek = int(d.Weekday())
	}
	if h, ok := parseHour(cell(cols.crashTime)); ok {
		rec.Hour = h
	}
	if lat, lon, ok := parseCoords(cell(cols.lat), cell(cols.lon)); ok {
		rec.Latitude, rec.Longitude, rec.HasCoords = lat, lon, true
	}

	rec.Borough, _ = collision.Normalize(cell(cols.borough))
	rec.Factor1, _ = collision.Normalize(cell(cols.factor1))
	rec.Factor2, _ = collision.Normalize(cell(cols.factor2))
	rec.VehicleType, _ = collision.NormalizeVehicleType(cell(cols.vehicleType))
	rec.PreCrashAction, _ = collision.Normalize(cell(cols.preCrash))
	rec.DriverSex, _ = collision.NormalizeDriverSex(cell(cols.driverSex))

	return rec, true
}

func parseCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// parseHour extracts the hour from "HH:MM" crash times.
func parseHour(s string) (int, bool) {
	s = strings.TrimSpace(s)
	idx := strings.IndexByte(s, ':')
	if idx <= 0 {
		return -1, false
	}
	h, err := strconv.Atoi(s[:idx])
	if err != nil || h < 0 || h > 23 {
		return -1, false
	}
	return h, true
}

// parseCoords rejects the (0,0) placeholder rows the source data carries.
func parseCoords(latStr, lonStr string) (float64, float64, bool) {
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	if lat == 0 && lon == 0 {
		return 0, 0, false
	}
	return lat, lon, true
}
