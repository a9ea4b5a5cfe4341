package matrix

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// ReadLabelsCSV parses the label collaborator's exchange format:
// entity_id, as_of_date, label. Labels are "1"/"0" (or "true"/"false");
// an empty label marks an entity whose outcome is unknown.
func ReadLabelsCSV(r io.Reader) (Labels, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrRead, err)
	}
	if len(header) != 3 || header[0] != "entity_id" || header[1] != "as_of_date" || header[2] != "label" {
		return nil, fmt.Errorf("%w: unexpected header %v", ErrRead, header)
	}

	labels := make(Labels)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRead, err)
		}

		asOf, err := time.Parse(dateLayout, record[1])
		if err != nil {
			return nil, fmt.Errorf("%w: as_of_date %q: %v", ErrRead, record[1], err)
		}

		key := LabelKey{EntityID: record[0], AsOf: asOf}
		switch record[2] {
		case "":
			labels[key] = nil
		case "1", "true":
			v := true
			labels[key] = &v
		case "0", "false":
			v := false
			labels[key] = &v
		default:
			return nil, fmt.Errorf("%w: label %q for entity %s", ErrRead, record[2], record[0])
		}
	}
	return labels, nil
}
