package models

// TrainingRecord is one field team training entry. It is carried through
// upload, preview and snapshot untouched; no KPI reads it.
type TrainingRecord struct {
	TeamID               string   `csv:"Team_ID" parquet:"Team_ID,optional" json:"Team_ID" validate:"required"`
	TeamLeader           string   `csv:"Team_Leader" parquet:"Team_Leader,optional" json:"Team_Leader,omitempty"`
	DistrictCoverage     string   `csv:"District_Coverage" parquet:"District_Coverage,optional" json:"District_Coverage,omitempty"`
	MaxBMCCoverage       *int64   `csv:"Max_BMC_Coverage" parquet:"Max_BMC_Coverage,optional" json:"Max_BMC_Coverage,omitempty"`
	TrainingType         string   `csv:"Training_Type" parquet:"Training_Type,optional" json:"Training_Type,omitempty"`
	TrainingDate         string   `csv:"Training_Date" parquet:"Training_Date,optional" json:"Training_Date,omitempty"`
	BMCIDTrained         string   `csv:"BMC_ID_Trained" parquet:"BMC_ID_Trained,optional" json:"BMC_ID_Trained,omitempty"`
	FarmerIDTrained      string   `csv:"Farmer_ID_Trained" parquet:"Farmer_ID_Trained,optional" json:"Farmer_ID_Trained,omitempty"`
	TrainingOutcomeScore *float64 `csv:"Training_Outcome_Score" parquet:"Training_Outcome_Score,optional" json:"Training_Outcome_Score,omitempty"`
}

// TrainingTable holds decoded field team rows and the columns they came with.
type TrainingTable struct {
	Cols Columns
	Rows []TrainingRecord
}

func (t *TrainingTable) Kind() DatasetKind { return DatasetFieldTeams }
func (t *TrainingTable) Len() int          { return len(t.Rows) }
func (t *TrainingTable) Columns() Columns  { return t.Cols }
