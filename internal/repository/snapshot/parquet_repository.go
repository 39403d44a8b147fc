package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
)

const columnsKey = "columns"

// Repository persists the loaded datasets between restarts.
type Repository interface {
	Save(ctx context.Context, ds models.Datasets) error
	Load(ctx context.Context) (models.Datasets, error)
}

// ParquetRepository stores one parquet file per dataset kind in a directory.
type ParquetRepository struct {
	dir    string
	logger *zap.Logger
}

// NewParquetRepository creates dir if needed.
func NewParquetRepository(dir string, logger *zap.Logger) (*ParquetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		return nil, fmt.Errorf("snapshot directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &ParquetRepository{dir: dir, logger: logger}, nil
}

// Path returns the file used for kind.
func (r *ParquetRepository) Path(kind models.DatasetKind) string {
	return filepath.Join(r.dir, string(kind)+".parquet")
}

// Save writes every loaded table concurrently. Tables that are not loaded are
// left untouched on disk.
func (r *ParquetRepository) Save(ctx context.Context, ds models.Datasets) error {
	g, gctx := errgroup.WithContext(ctx)

	if ds.Farmers != nil {
		g.Go(func() error {
			return writeTable(gctx, r.Path(models.DatasetFarmers), ds.Farmers.Cols, ds.Farmers.Rows)
		})
	}
	if ds.Centers != nil {
		g.Go(func() error {
			return writeTable(gctx, r.Path(models.DatasetCenters), ds.Centers.Cols, ds.Centers.Rows)
		})
	}
	if ds.FieldTeams != nil {
		g.Go(func() error {
			return writeTable(gctx, r.Path(models.DatasetFieldTeams), ds.FieldTeams.Cols, ds.FieldTeams.Rows)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	r.logger.Info("datasets snapshot saved",
		zap.String("dir", r.dir),
		zap.Bool("farmers", ds.Farmers != nil),
		zap.Bool("bmcs", ds.Centers != nil),
		zap.Bool("field_teams", ds.FieldTeams != nil))
	return nil
}

// Load reads whichever snapshot files exist. A missing file leaves the
// corresponding table nil.
func (r *ParquetRepository) Load(ctx context.Context) (models.Datasets, error) {
	var ds models.Datasets

	farmerCols, farmers, err := readTable[models.FarmerRecord](ctx, r.Path(models.DatasetFarmers))
	if err != nil {
		return models.Datasets{}, err
	}
	if farmers != nil {
		ds.Farmers = &models.FarmerTable{Cols: farmerCols, Rows: farmers}
	}

	centerCols, centers, err := readTable[models.CenterSnapshot](ctx, r.Path(models.DatasetCenters))
	if err != nil {
		return models.Datasets{}, err
	}
	if centers != nil {
		ds.Centers = &models.CenterTable{Cols: centerCols, Rows: centers}
	}

	teamCols, teams, err := readTable[models.TrainingRecord](ctx, r.Path(models.DatasetFieldTeams))
	if err != nil {
		return models.Datasets{}, err
	}
	if teams != nil {
		ds.FieldTeams = &models.TrainingTable{Cols: teamCols, Rows: teams}
	}

	r.logger.Debug("datasets snapshot loaded",
		zap.String("dir", r.dir),
		zap.Bool("farmers", ds.Farmers != nil),
		zap.Bool("bmcs", ds.Centers != nil),
		zap.Bool("field_teams", ds.FieldTeams != nil))
	return ds, nil
}

// writeTable writes to a temporary file first so readers never observe a
// partially written snapshot.
func writeTable[R any](ctx context.Context, path string, cols models.Columns, rows []R) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := parquet.NewGenericWriter[R](tmp, parquet.KeyValueMetadata(columnsKey, strings.Join(cols.Names(), ",")))
	if _, err = w.Write(rows); err != nil {
		return fmt.Errorf("write rows to %s: %w", path, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// readTable returns nil rows when path does not exist. Rows is non-nil for an
// existing file, even an empty one.
func readTable[R any](ctx context.Context, path string) (models.Columns, []R, error) {
	if err := ctx.Err(); err != nil {
		return models.Columns{}, nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Columns{}, nil, nil
	}
	if err != nil {
		return models.Columns{}, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return models.Columns{}, nil, fmt.Errorf("stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return models.Columns{}, nil, fmt.Errorf("open parquet %s: %w", path, err)
	}

	var cols models.Columns
	if meta, ok := pf.Lookup(columnsKey); ok && meta != "" {
		cols = models.NewColumns(strings.Split(meta, ",")...)
	} else {
		cols = models.NewColumns()
	}

	reader := parquet.NewGenericReader[R](f)
	defer func() { _ = reader.Close() }()

	rows := make([]R, reader.NumRows())
	read := 0
	for read < len(rows) {
		n, err := reader.Read(rows[read:])
		read += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return models.Columns{}, nil, fmt.Errorf("read rows from %s: %w", path, err)
		}
		if n == 0 {
			break
		}
	}

	return cols, rows[:read], nil
}
