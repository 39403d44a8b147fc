package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
)

// ErrMissingColumn is returned when a table lacks its identity column.
var ErrMissingColumn = errors.New("missing required column")

// missingMarkers are cell values treated as empty in numeric columns.
var missingMarkers = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "null": {}, "NULL": {}, "#N/A": {}, "None": {},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("csv"), ",")
		return name
	})
	return v
}

// isMissing reports whether raw is an empty marker. NaN is matched in any case.
func isMissing(raw string) bool {
	if _, ok := missingMarkers[raw]; ok {
		return true
	}
	return strings.EqualFold(raw, "nan")
}

// parseFinite parses a float and rejects infinities.
func parseFinite(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errors.New("not a finite number")
	}
	return v, nil
}

type field[R any] struct {
	column string
	set    func(rec *R, raw string) error
	get    func(rec *R) string
}

func text[R any](column string, ptr func(*R) *string) field[R] {
	return field[R]{
		column: column,
		set: func(rec *R, raw string) error {
			*ptr(rec) = raw
			return nil
		},
		get: func(rec *R) string { return *ptr(rec) },
	}
}

func number[R any](column string, ptr func(*R) **float64) field[R] {
	return field[R]{
		column: column,
		set: func(rec *R, raw string) error {
			if isMissing(raw) {
				return nil
			}
			v, err := parseFinite(raw)
			if err != nil {
				return err
			}
			*ptr(rec) = &v
			return nil
		},
		get: func(rec *R) string { return FormatNumber(*ptr(rec)) },
	}
}

func integer[R any](column string, ptr func(*R) **int64) field[R] {
	return field[R]{
		column: column,
		set: func(rec *R, raw string) error {
			if isMissing(raw) {
				return nil
			}
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				f, ferr := parseFinite(raw)
				if ferr != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
					return errors.New("not an integer")
				}
				v = int64(f)
			}
			*ptr(rec) = &v
			return nil
		},
		get: func(rec *R) string {
			if v := *ptr(rec); v != nil {
				return strconv.FormatInt(*v, 10)
			}
			return ""
		},
	}
}

// FormatNumber renders the shortest decimal form of v, or "" when v is nil.
func FormatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

var farmerFields = []field[models.FarmerRecord]{
	text(models.ColFarmerID, func(r *models.FarmerRecord) *string { return &r.FarmerID }),
	text(models.ColFarmerName, func(r *models.FarmerRecord) *string { return &r.FarmerName }),
	text(models.ColVillage, func(r *models.FarmerRecord) *string { return &r.Village }),
	text(models.ColDistrict, func(r *models.FarmerRecord) *string { return &r.District }),
	text(models.ColBMCID, func(r *models.FarmerRecord) *string { return &r.BMCID }),
	number(models.ColMilkProductionLitersDaily, func(r *models.FarmerRecord) **float64 { return &r.MilkProductionLitersDaily }),
	integer(models.ColCattleCount, func(r *models.FarmerRecord) **int64 { return &r.CattleCount }),
	text(models.ColWomenEmpowermentFlag, func(r *models.FarmerRecord) *string { return &r.WomenEmpowermentFlag }),
	number(models.ColAnimalWelfareScore, func(r *models.FarmerRecord) **float64 { return &r.AnimalWelfareScore }),
}

var centerFields = []field[models.CenterSnapshot]{
	text(models.ColBMCID, func(r *models.CenterSnapshot) *string { return &r.BMCID }),
	text(models.ColBMCName, func(r *models.CenterSnapshot) *string { return &r.BMCName }),
	text(models.ColDistrict, func(r *models.CenterSnapshot) *string { return &r.District }),
	number(models.ColCapacityLiters, func(r *models.CenterSnapshot) **float64 { return &r.CapacityLiters }),
	number(models.ColDailyCollectionLiters, func(r *models.CenterSnapshot) **float64 { return &r.DailyCollectionLiters }),
	number(models.ColQualityFatPercentage, func(r *models.CenterSnapshot) **float64 { return &r.QualityFatPercentage }),
	number(models.ColQualitySNFPercentage, func(r *models.CenterSnapshot) **float64 { return &r.QualitySNFPercentage }),
	text(models.ColQualityAdulterationFlag, func(r *models.CenterSnapshot) *string { return &r.QualityAdulterationFlag }),
	number(models.ColQualityTargetFat, func(r *models.CenterSnapshot) **float64 { return &r.QualityTargetFat }),
	number(models.ColQualityTargetSNF, func(r *models.CenterSnapshot) **float64 { return &r.QualityTargetSNF }),
	number(models.ColUtilizationTargetPct, func(r *models.CenterSnapshot) **float64 { return &r.UtilizationTargetPercentage }),
	number(models.ColAnimalWelfareComplianceBMC, func(r *models.CenterSnapshot) **float64 { return &r.AnimalWelfareComplianceBMC }),
	number(models.ColWomenEmpowermentRateBMC, func(r *models.CenterSnapshot) **float64 { return &r.WomenEmpowermentRateBMC }),
	text(models.ColDate, func(r *models.CenterSnapshot) *string { return &r.Date }),
}

var trainingFields = []field[models.TrainingRecord]{
	text(models.ColTeamID, func(r *models.TrainingRecord) *string { return &r.TeamID }),
	text(models.ColTeamLeader, func(r *models.TrainingRecord) *string { return &r.TeamLeader }),
	text(models.ColDistrictCoverage, func(r *models.TrainingRecord) *string { return &r.DistrictCoverage }),
	integer(models.ColMaxBMCCoverage, func(r *models.TrainingRecord) **int64 { return &r.MaxBMCCoverage }),
	text(models.ColTrainingType, func(r *models.TrainingRecord) *string { return &r.TrainingType }),
	text(models.ColTrainingDate, func(r *models.TrainingRecord) *string { return &r.TrainingDate }),
	text(models.ColBMCIDTrained, func(r *models.TrainingRecord) *string { return &r.BMCIDTrained }),
	text(models.ColFarmerIDTrained, func(r *models.TrainingRecord) *string { return &r.FarmerIDTrained }),
	number(models.ColTrainingOutcomeScore, func(r *models.TrainingRecord) **float64 { return &r.TrainingOutcomeScore }),
}

// DecodeFarmers converts a raw table into farmer records.
func DecodeFarmers(t Table) (*models.FarmerTable, error) {
	rows, cols, err := decode(models.DatasetFarmers, t, farmerFields, models.ColFarmerID)
	if err != nil {
		return nil, err
	}
	return &models.FarmerTable{Cols: cols, Rows: rows}, nil
}

// DecodeCenters converts a raw table into BMC snapshots.
func DecodeCenters(t Table) (*models.CenterTable, error) {
	rows, cols, err := decode(models.DatasetCenters, t, centerFields, models.ColBMCID)
	if err != nil {
		return nil, err
	}
	return &models.CenterTable{Cols: cols, Rows: rows}, nil
}

// DecodeFieldTeams converts a raw table into training records.
func DecodeFieldTeams(t Table) (*models.TrainingTable, error) {
	rows, cols, err := decode(models.DatasetFieldTeams, t, trainingFields, models.ColTeamID)
	if err != nil {
		return nil, err
	}
	return &models.TrainingTable{Cols: cols, Rows: rows}, nil
}

// Decode dispatches on kind.
func Decode(kind models.DatasetKind, t Table) (models.Table, error) {
	var (
		table models.Table
		err   error
	)
	switch kind {
	case models.DatasetFarmers:
		var farmers *models.FarmerTable
		farmers, err = DecodeFarmers(t)
		table = farmers
	case models.DatasetCenters:
		var centers *models.CenterTable
		centers, err = DecodeCenters(t)
		table = centers
	case models.DatasetFieldTeams:
		var teams *models.TrainingTable
		teams, err = DecodeFieldTeams(t)
		table = teams
	default:
		return nil, fmt.Errorf("unknown dataset kind %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return table, nil
}

// Parse reads and decodes an uploaded file in one step.
func Parse(kind models.DatasetKind, filename string, r io.Reader) (models.Table, error) {
	raw, err := Read(filename, r)
	if err != nil {
		return nil, err
	}
	return Decode(kind, raw)
}

// Encode renders a typed table back into raw cells, present columns only.
func Encode(table models.Table) Table {
	switch t := table.(type) {
	case *models.FarmerTable:
		return encode(t.Cols, t.Rows, farmerFields)
	case *models.CenterTable:
		return encode(t.Cols, t.Rows, centerFields)
	case *models.TrainingTable:
		return encode(t.Cols, t.Rows, trainingFields)
	default:
		return Table{}
	}
}

func decode[R any](kind models.DatasetKind, t Table, fields []field[R], identity string) ([]R, models.Columns, error) {
	index := make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	if _, ok := index[identity]; !ok {
		return nil, models.Columns{}, fmt.Errorf("%w: %s table has no %s column", ErrMissingColumn, kind, identity)
	}

	present := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := index[f.column]; ok {
			present = append(present, f.column)
		}
	}

	rows := make([]R, 0, len(t.Rows))
	for i, record := range t.Rows {
		var rec R
		for _, f := range fields {
			pos, ok := index[f.column]
			if !ok {
				continue
			}
			raw := ""
			if pos < len(record) {
				raw = strings.TrimSpace(record[pos])
			}
			if err := f.set(&rec, raw); err != nil {
				return nil, models.Columns{}, &models.ParseError{Table: kind, Row: i + 1, Column: f.column, Value: raw, Err: err}
			}
		}

		if err := validate.Struct(rec); err != nil {
			return nil, models.Columns{}, validationError(kind, i+1, err)
		}
		rows = append(rows, rec)
	}

	return rows, models.NewColumns(present...), nil
}

func validationError(kind models.DatasetKind, row int, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate %s row %d: %w", kind, row, err)
	}
	fe := verrs[0]
	return &models.ParseError{
		Table:  kind,
		Row:    row,
		Column: fe.Field(),
		Value:  fmt.Sprint(fe.Value()),
		Err:    fmt.Errorf("failed %q check", fe.Tag()),
	}
}

func encode[R any](cols models.Columns, rows []R, fields []field[R]) Table {
	active := make([]field[R], 0, cols.Len())
	for _, f := range fields {
		if cols.Has(f.column) {
			active = append(active, f)
		}
	}

	out := Table{Header: make([]string, len(active)), Rows: make([][]string, 0, len(rows))}
	for i, f := range active {
		out.Header[i] = f.column
	}
	for i := range rows {
		cells := make([]string, len(active))
		for j, f := range active {
			cells[j] = f.get(&rows[i])
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}
