package models

import "fmt"

// DatasetKind identifies one of the three ingested tables.
type DatasetKind string

const (
	DatasetFarmers    DatasetKind = "farmers"
	DatasetCenters    DatasetKind = "bmcs"
	DatasetFieldTeams DatasetKind = "field_teams"
)

// DatasetKinds lists every supported dataset in display order.
var DatasetKinds = []DatasetKind{DatasetFarmers, DatasetCenters, DatasetFieldTeams}

// ParseDatasetKind validates a kind received from the outside world.
func ParseDatasetKind(value string) (DatasetKind, error) {
	for _, kind := range DatasetKinds {
		if string(kind) == value {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown dataset kind %q", value)
}

// Label returns the human readable dataset name.
func (k DatasetKind) Label() string {
	switch k {
	case DatasetFarmers:
		return "Farmer Data"
	case DatasetCenters:
		return "BMC Data"
	case DatasetFieldTeams:
		return "Field Team & Training Data"
	default:
		return string(k)
	}
}

// Table is implemented by the three decoded dataset tables.
type Table interface {
	Kind() DatasetKind
	Len() int
	Columns() Columns
}

// Datasets groups the currently loaded tables. Any of them may be nil.
type Datasets struct {
	Farmers    *FarmerTable
	Centers    *CenterTable
	FieldTeams *TrainingTable
}

// Get returns the table for kind, or nil when it is not loaded.
func (d Datasets) Get(kind DatasetKind) Table {
	switch kind {
	case DatasetFarmers:
		if d.Farmers != nil {
			return d.Farmers
		}
	case DatasetCenters:
		if d.Centers != nil {
			return d.Centers
		}
	case DatasetFieldTeams:
		if d.FieldTeams != nil {
			return d.FieldTeams
		}
	}
	return nil
}

// With returns a copy of d with table stored in its slot.
func (d Datasets) With(table Table) Datasets {
	switch t := table.(type) {
	case *FarmerTable:
		d.Farmers = t
	case *CenterTable:
		d.Centers = t
	case *TrainingTable:
		d.FieldTeams = t
	}
	return d
}
