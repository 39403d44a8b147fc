package kpi

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Thresholds holds the cut-off values of the four KPI rules. A center fails a
// rule when its metric is strictly below the threshold.
type Thresholds struct {
	QualityFat       float64 `yaml:"quality_fat"`
	QualitySNF       float64 `yaml:"quality_snf"`
	AdulterationFlag string  `yaml:"adulteration_flag"`
	Utilization      float64 `yaml:"utilization"`
	AnimalWelfare    float64 `yaml:"animal_welfare"`
	WomenEmpowerment float64 `yaml:"women_empowerment"`
}

// DefaultThresholds returns the cooperative's standard cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		QualityFat:       3.5,
		QualitySNF:       7.8,
		AdulterationFlag: "yes",
		Utilization:      70.0,
		AnimalWelfare:    4.0,
		WomenEmpowerment: 55.0,
	}
}

// LoadThresholds reads overrides from a YAML file on top of the defaults.
// An empty path returns the defaults.
func LoadThresholds(path string) (Thresholds, error) {
	th := DefaultThresholds()
	if path == "" {
		return th, nil
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, fmt.Errorf("read thresholds: %w", err)
	}
	if err := yaml.Unmarshal(payload, &th); err != nil {
		return Thresholds{}, fmt.Errorf("parse thresholds: %w", err)
	}
	if err := th.Validate(); err != nil {
		return Thresholds{}, err
	}
	return th, nil
}

// Validate rejects thresholds that cannot be meaningful.
func (t Thresholds) Validate() error {
	switch {
	case t.QualityFat <= 0, t.QualitySNF <= 0:
		return errors.New("quality thresholds must be positive")
	case t.AdulterationFlag == "":
		return errors.New("adulteration_flag must not be empty")
	case t.Utilization <= 0 || t.Utilization > 100:
		return errors.New("utilization threshold must be within (0, 100]")
	case t.AnimalWelfare <= 0:
		return errors.New("animal_welfare threshold must be positive")
	case t.WomenEmpowerment <= 0 || t.WomenEmpowerment > 100:
		return errors.New("women_empowerment threshold must be within (0, 100]")
	}
	return nil
}
