package matrix

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/okian/timefold/internal/domain/aggregate"
	"github.com/okian/timefold/internal/domain/split"
)

const dateLayout = "2006-01-02"

// Kind distinguishes train from test matrices in metadata and metrics.
type Kind string

const (
	KindTrain Kind = "train"
	KindTest  Kind = "test"
)

// LabelKey identifies one label lookup.
type LabelKey struct {
	EntityID string
	AsOf     time.Time
}

// Labels is the opaque mapping the external label collaborator supplies.
// A missing key or nil value means the outcome is unknown.
type Labels map[LabelKey]*bool

// Row is one materialized matrix row.
type Row struct {
	EntityID string
	AsOf     time.Time
	Features []float64 // aligned with Matrix.FeatureColumns
	Label    *bool
}

// Matrix is an immutable entity-by-date feature/label table. Its Hash is
// derived from the defining parameters, so equal inputs share storage.
type Matrix struct {
	Kind           Kind
	Definition     split.MatrixDefinition
	FeatureColumns []string
	Rows           []Row
	Hash           string
}

// metadata is the hashed identity of a matrix, mirroring everything that
// makes two matrices interchangeable.
type metadata struct {
	Kind             Kind     `json:"kind"`
	AsOfDates        []string `json:"as_of_dates"`
	Duration         string   `json:"duration"`
	LabelWindow      string   `json:"label_window"`
	ExampleFrequency string   `json:"example_frequency"`
	FeatureColumns   []string `json:"feature_columns"`
}

// Assemble joins the feature tables computed for a matrix definition's
// as-of dates with the supplied labels. Feature columns follow table
// order; entities within one as-of date are sorted for reproducible
// output. Entities absent from a table get zeros, matching the
// aggregator's empty-window semantics.
func Assemble(kind Kind, def split.MatrixDefinition, tables []aggregate.Table, labels Labels) (Matrix, error) {
	if len(def.AsOfDates) == 0 {
		return Matrix{}, ErrNoDates
	}

	var columns []string
	seen := make(map[string]struct{})
	for _, t := range tables {
		for _, c := range t.Columns {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			columns = append(columns, c)
		}
	}

	// Index feature values by (entity, as-of, column) across all tables.
	// Group-level rows already carry the entity they belong to, so
	// entity and group features merge into the same cell.
	values := make(map[cell]map[string]float64)
	for _, t := range tables {
		for _, fr := range t.Rows {
			key := cell{entity: fr.EntityID, asOf: fr.AsOf}
			if values[key] == nil {
				values[key] = make(map[string]float64)
			}
			for col, v := range fr.Values {
				values[key][col] = v
			}
		}
	}

	m := Matrix{Kind: kind, Definition: def, FeatureColumns: columns}
	for _, asOf := range def.AsOfDates {
		entities := entitiesAt(values, asOf)
		for _, entity := range entities {
			row := Row{EntityID: entity, AsOf: asOf, Features: make([]float64, len(columns))}
			cells := values[cell{entity: entity, asOf: asOf}]
			for i, col := range columns {
				row.Features[i] = cells[col]
			}
			row.Label = labels[LabelKey{EntityID: entity, AsOf: asOf}]
			m.Rows = append(m.Rows, row)
		}
	}

	hash, err := ContentHash(metadata{
		Kind:             kind,
		AsOfDates:        formatDates(def.AsOfDates),
		Duration:         def.Duration.String(),
		LabelWindow:      def.LabelWindow.String(),
		ExampleFrequency: def.ExampleFrequency.String(),
		FeatureColumns:   columns,
	})
	if err != nil {
		return Matrix{}, err
	}
	m.Hash = hash

	return m, nil
}

// cell keys feature values by entity and as-of date.
type cell struct {
	entity string
	asOf   time.Time
}

func entitiesAt(values map[cell]map[string]float64, asOf time.Time) []string {
	var out []string
	for key := range values {
		if key.asOf.Equal(asOf) {
			out = append(out, key.entity)
		}
	}
	sort.Strings(out)
	return out
}

// WriteCSV emits the matrix in the tabular exchange format: entity_id,
// as_of_date, one column per feature, then the label. Unknown labels are
// written empty.
func (m Matrix) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{"entity_id", "as_of_date"}, m.FeatureColumns...)
	header = append(header, "label")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("%w: header: %v", ErrWrite, err)
	}

	record := make([]string, 0, len(header))
	for _, row := range m.Rows {
		record = record[:0]
		record = append(record, row.EntityID, row.AsOf.Format(dateLayout))
		for _, v := range row.Features {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		switch {
		case row.Label == nil:
			record = append(record, "")
		case *row.Label:
			record = append(record, "1")
		default:
			record = append(record, "0")
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("%w: row: %v", ErrWrite, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(dateLayout)
	}
	return out
}
