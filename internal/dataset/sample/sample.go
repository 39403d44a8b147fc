// Package sample embeds the demonstration datasets shipped with the dashboard.
package sample

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/mamadbah2/dairy-dashboard/internal/dataset"
	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
)

//go:embed *.csv
var files embed.FS

// Datasets decodes the embedded farmer, BMC and field team CSV files.
func Datasets() (models.Datasets, error) {
	var out models.Datasets
	for _, kind := range models.DatasetKinds {
		name := string(kind) + ".csv"
		content, err := files.ReadFile(name)
		if err != nil {
			return models.Datasets{}, fmt.Errorf("read embedded %s: %w", name, err)
		}
		table, err := dataset.Parse(kind, name, bytes.NewReader(content))
		if err != nil {
			return models.Datasets{}, fmt.Errorf("decode embedded %s: %w", name, err)
		}
		out = out.With(table)
	}
	return out, nil
}
