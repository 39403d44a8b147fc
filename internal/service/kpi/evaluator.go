// Package kpi evaluates collection center snapshots against the cooperative's
// four performance rules.
package kpi

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
)

// Reason literals attached to failing rows.
const (
	ReasonQuality          = "Low Fat/SNF or Adulteration"
	ReasonUtilization      = "Low Utilization"
	ReasonAnimalWelfare    = "Low Animal Welfare Score"
	ReasonWomenEmpowerment = "Low Women Empowerment Rate"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
}

var hundred = decimal.NewFromInt(100)

// Evaluator applies the KPI rules with a fixed set of thresholds.
type Evaluator struct {
	thresholds Thresholds
	logger     *zap.Logger
}

// NewEvaluator wires an evaluator.
func NewEvaluator(thresholds Thresholds, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{thresholds: thresholds, logger: logger}
}

// Evaluate runs the rules with the default thresholds.
func Evaluate(centers *models.CenterTable, farmers *models.FarmerTable) (models.KPIResult, error) {
	return NewEvaluator(DefaultThresholds(), nil).Evaluate(centers, farmers)
}

// Thresholds returns the cut-offs the evaluator was built with.
func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate reduces centers to the latest snapshot per BMC_ID and returns, per
// KPI, the centers violating that rule. A nil centers table yields empty sets.
// The farmer table is accepted but no rule reads it.
func (e *Evaluator) Evaluate(centers *models.CenterTable, farmers *models.FarmerTable) (models.KPIResult, error) {
	result := models.NewKPIResult()
	if centers == nil {
		return result, nil
	}

	view, err := LatestCenterView(centers)
	if err != nil {
		return nil, fmt.Errorf("reduce to latest snapshots: %w", err)
	}

	cols := centers.Cols
	result[models.KPIQuality] = e.quality(cols, view)
	result[models.KPIUtilization] = e.utilization(cols, view)
	result[models.KPIAnimalWelfare] = belowThreshold(cols, view, models.ColAnimalWelfareComplianceBMC,
		func(c models.CenterSnapshot) *float64 { return c.AnimalWelfareComplianceBMC },
		e.thresholds.AnimalWelfare, ReasonAnimalWelfare)
	result[models.KPIWomenEmpowerment] = belowThreshold(cols, view, models.ColWomenEmpowermentRateBMC,
		func(c models.CenterSnapshot) *float64 { return c.WomenEmpowermentRateBMC },
		e.thresholds.WomenEmpowerment, ReasonWomenEmpowerment)

	e.logger.Debug("kpi evaluation complete",
		zap.Int("snapshots", centers.Len()),
		zap.Int("centers", len(view)),
		zap.Bool("farmers_loaded", farmers != nil),
		zap.Int("quality", len(result[models.KPIQuality])),
		zap.Int("utilization", len(result[models.KPIUtilization])),
		zap.Int("animal_welfare", len(result[models.KPIAnimalWelfare])),
		zap.Int("women_empowerment", len(result[models.KPIWomenEmpowerment])))

	return result, nil
}

// LatestCenterView keeps, for each BMC_ID, the snapshot with the greatest Date.
// On equal dates the later row wins. Rows come back ordered by BMC_ID.
// Without a Date column every row is returned unchanged, so a BMC_ID listed
// several times stays listed several times.
func LatestCenterView(centers *models.CenterTable) ([]models.CenterSnapshot, error) {
	if !centers.Cols.Has(models.ColDate) {
		view := make([]models.CenterSnapshot, len(centers.Rows))
		copy(view, centers.Rows)
		return view, nil
	}

	type pick struct {
		at  time.Time
		row int
	}
	latest := make(map[string]pick, len(centers.Rows))
	for i, row := range centers.Rows {
		at, err := ParseDate(row.Date)
		if err != nil {
			return nil, &models.ParseError{
				Table:  models.DatasetCenters,
				Row:    i + 1,
				Column: models.ColDate,
				Value:  row.Date,
				Err:    err,
			}
		}
		if cur, ok := latest[row.BMCID]; ok && at.Before(cur.at) {
			continue
		}
		latest[row.BMCID] = pick{at: at, row: i}
	}

	ids := make([]string, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	view := make([]models.CenterSnapshot, 0, len(ids))
	for _, id := range ids {
		view = append(view, centers.Rows[latest[id].row])
	}
	return view, nil
}

// ParseDate accepts the date layouts seen in cooperative exports.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// UtilizationPercentage returns daily/capacity*100. Capacity must be positive.
func UtilizationPercentage(daily, capacity float64) float64 {
	return utilizationRatio(daily, capacity).InexactFloat64()
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

func utilizationRatio(daily, capacity float64) decimal.Decimal {
	return decimal.NewFromFloat(daily).Div(decimal.NewFromFloat(capacity)).Mul(hundred)
}

// quality unions the fat, SNF and adulteration failures in that order and
// keeps the first row seen for each BMC_ID.
func (e *Evaluator) quality(cols models.Columns, view []models.CenterSnapshot) models.FailureSet {
	var candidates []models.CenterSnapshot

	if cols.Has(models.ColQualityFatPercentage) {
		for _, c := range view {
			if below(c.QualityFatPercentage, e.thresholds.QualityFat) {
				candidates = append(candidates, c)
			}
		}
	}
	if cols.Has(models.ColQualitySNFPercentage) {
		for _, c := range view {
			if below(c.QualitySNFPercentage, e.thresholds.QualitySNF) {
				candidates = append(candidates, c)
			}
		}
	}
	if cols.Has(models.ColQualityAdulterationFlag) {
		for _, c := range view {
			if strings.EqualFold(c.QualityAdulterationFlag, e.thresholds.AdulterationFlag) {
				candidates = append(candidates, c)
			}
		}
	}

	set := models.FailureSet{}
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.BMCID]; dup {
			continue
		}
		seen[c.BMCID] = struct{}{}
		set = append(set, models.Failure{Center: c, Reason: ReasonQuality})
	}
	return set
}

func (e *Evaluator) utilization(cols models.Columns, view []models.CenterSnapshot) models.FailureSet {
	set := models.FailureSet{}
	if !cols.Has(models.ColDailyCollectionLiters) || !cols.Has(models.ColCapacityLiters) {
		return set
	}

	threshold := decimal.NewFromFloat(e.thresholds.Utilization)
	for _, c := range view {
		if c.DailyCollectionLiters == nil || c.CapacityLiters == nil {
			continue
		}
		if !finite(*c.DailyCollectionLiters) || !finite(*c.CapacityLiters) {
			e.logger.Warn("non-finite liters, skipping utilization", zap.String("bmc_id", c.BMCID))
			continue
		}

		if *c.CapacityLiters <= 0 {
			e.logger.Warn("non-positive capacity, flagging utilization",
				zap.String("bmc_id", c.BMCID),
				zap.Float64("capacity_liters", *c.CapacityLiters))
			set = append(set, models.Failure{Center: c, Reason: ReasonUtilization, CapacityInvalid: true})
			continue
		}

		ratio := utilizationRatio(*c.DailyCollectionLiters, *c.CapacityLiters)
		if !ratio.LessThan(threshold) {
			continue
		}
		pct := ratio.InexactFloat64()
		set = append(set, models.Failure{Center: c, Reason: ReasonUtilization, UtilizationPercentage: &pct})
	}
	return set
}

func belowThreshold(cols models.Columns, view []models.CenterSnapshot, column string, metric func(models.CenterSnapshot) *float64, threshold float64, reason string) models.FailureSet {
	set := models.FailureSet{}
	if !cols.Has(column) {
		return set
	}
	for _, c := range view {
		if below(metric(c), threshold) {
			set = append(set, models.Failure{Center: c, Reason: reason})
		}
	}
	return set
}

func below(v *float64, threshold float64) bool {
	return v != nil && *v < threshold
}
