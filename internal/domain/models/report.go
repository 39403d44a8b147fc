package models

import "time"

// EvaluationReport is the record stored in MongoDB for each recorded KPI run.
type EvaluationReport struct {
	ID          string              `bson:"_id" json:"id"`
	GeneratedAt time.Time           `bson:"generated_at" json:"generated_at"`
	CenterRows  int                 `bson:"center_rows" json:"center_rows"`
	FarmerRows  int                 `bson:"farmer_rows" json:"farmer_rows"`
	Failures    map[string][]string `bson:"failures" json:"failures"`
	Actions     []string            `bson:"actions" json:"actions"`
	AllPassing  bool                `bson:"all_passing" json:"all_passing"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
}
