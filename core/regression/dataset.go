package regression

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/ferntree/core/model"
)

//go:embed data/3r2c_archetypes.csv
var archetypeCSV string

const (
	// DefaultFeatures are year of construction, heated area and renovation class.
	DefaultFeatures = 3
	// DefaultOutputs are Ai, Ce, Ci, Rea, Ria, Rie and the annual net heat demand.
	DefaultOutputs = 7
)

// Dataset is a read-only table of training rows.
type Dataset struct {
	X [][]float64
	Y [][]float64
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.X) }

// ArchetypeDataset returns the embedded archetype table.
func ArchetypeDataset() (Dataset, error) {
	return ReadDataset(strings.NewReader(archetypeCSV), DefaultFeatures, DefaultOutputs)
}

// ReadDataset parses a CSV with a header row followed by features+outputs
// numeric columns per row.
func ReadDataset(r io.Reader, features, outputs int) (Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return Dataset{}, model.NewConfigError("regression.dataset", "read csv: %v", err)
	}
	if len(records) < 2 {
		return Dataset{}, model.NewConfigError("regression.dataset", "no data rows")
	}
	want := features + outputs
	var ds Dataset
	for i, rec := range records {
		if len(rec) != want {
			return Dataset{}, model.NewConfigError("regression.dataset",
				"row %d has %d columns, expected %d features + %d outputs", i, len(rec), features, outputs)
		}
		if i == 0 {
			continue
		}
		row := make([]float64, want)
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return Dataset{}, model.NewConfigError("regression.dataset", "row %d column %d: %v", i, j, err)
			}
			row[j] = v
		}
		ds.X = append(ds.X, row[:features])
		ds.Y = append(ds.Y, row[features:])
	}
	return ds, nil
}

// constructionBands lists the last year of each archetype construction-year
// band. The first band starts at firstArchetypeYear.
var constructionBands = []int{1859, 1918, 1948, 1957, 1968, 1978, 1983, 1994, 2001}

const (
	firstArchetypeYear = 1850
	renovationVariants = 3
)

// ErrDatasetShape is returned when a dataset cannot be expanded because it does
// not hold one row per band and renovation variant.
var ErrDatasetShape = errors.New("dataset does not match archetype bands")

// Expand interpolates one row per calendar year and renovation variant by
// copying the heated area, renovation class and outputs of the archetype whose
// construction band contains the year. The result is ordered by year, then
// variant.
func Expand(ds Dataset) (Dataset, error) {
	if ds.Len() != len(constructionBands)*renovationVariants {
		return Dataset{}, fmt.Errorf("%w: %d rows, expected %d", ErrDatasetShape, ds.Len(), len(constructionBands)*renovationVariants)
	}
	last := constructionBands[len(constructionBands)-1]
	var out Dataset
	band := 0
	for year := firstArchetypeYear; year <= last; year++ {
		for year > constructionBands[band] {
			band++
		}
		for v := 0; v < renovationVariants; v++ {
			src := band*renovationVariants + v
			x := make([]float64, len(ds.X[src]))
			copy(x, ds.X[src])
			x[0] = float64(year)
			y := make([]float64, len(ds.Y[src]))
			copy(y, ds.Y[src])
			out.X = append(out.X, x)
			out.Y = append(out.Y, y)
		}
	}
	return out, nil
}
