package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// WriteCSV writes the series as "date,value" rows with a header line.
func WriteCSV(w io.Writer, s Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "value"}); err != nil {
		return fmt.Errorf("series: write csv header: %w", err)
	}
	for _, p := range s.Points {
		row := []string{
			p.Date.Format(DateLayout),
			strconv.FormatFloat(p.Value, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("series: write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("series: flush csv: %w", err)
	}
	return nil
}

// ReadCSV parses a series written by WriteCSV. A leading "date,value" header
// is accepted and skipped. Rows must be exactly two fields.
func ReadCSV(r io.Reader) (Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	var points []Point
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Series{}, fmt.Errorf("series: read csv: %w", err)
		}
		line++

		if line == 1 && rec[0] == "date" {
			continue
		}

		d, err := time.Parse(DateLayout, rec[0])
		if err != nil {
			return Series{}, fmt.Errorf("series: row %d: bad date %q: %w", line, rec[0], err)
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return Series{}, fmt.Errorf("series: row %d: bad value %q: %w", line, rec[1], err)
		}
		points = append(points, Point{Date: d, Value: v})
	}
	return Series{Points: points}, nil
}
