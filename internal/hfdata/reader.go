package hfdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/micromet/fvspart/internal/constants"
)

// FlagColumn marks a data column used to flag bad records: a record is
// good only when the column holds GoodValue.
type FlagColumn struct {
	Col       int
	GoodValue string
}

// Converter rescales a non-SI input column: si = Gain*raw + Offset.
type Converter struct {
	Gain   float64
	Offset float64
}

// ReaderOptions configures the delimited-text reader.
type ReaderOptions struct {
	// Cols gives 0-based column indices for u, v, w, q, c, T, P in that
	// order.
	Cols [7]int
	// Comma is the field delimiter; 0 means ','.
	Comma rune
	// SkipRows is the number of leading header rows to discard.
	SkipRows int
	// Flags lists bad-record flag columns.
	Flags []FlagColumn
	// Converters maps a variable name (u, v, w, q, c, T, P) to the unit
	// conversion applied to it.
	Converters map[string]Converter
	// Phys supplies the physical constants attached to the data.
	Phys constants.Physical
}

// DefaultReaderOptions returns options matching the common datalogger
// column layout.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		Cols: [7]int{2, 3, 4, 6, 5, 7, 8},
		Phys: constants.DefaultPhysical(),
	}
}

// ReadCSV reads delimited high-frequency records. Fields that fail to
// parse become NaN and are handled later by Cleanse; flagged records are
// masked immediately. Short rows are an error: they indicate a column
// layout mismatch, not instrument noise.
func ReadCSV(r io.Reader, opts ReaderOptions) (*Data, error) {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	maxCol := 0
	for _, c := range opts.Cols {
		if c > maxCol {
			maxCol = c
		}
	}
	for _, f := range opts.Flags {
		if f.Col > maxCol {
			maxCol = f.Col
		}
	}

	cols := make([][]float64, 7)
	var mask []bool

	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("hfdata: read row %d: %w", row, err)
		}
		row++
		if row <= opts.SkipRows {
			continue
		}
		if len(rec) <= maxCol {
			return nil, fmt.Errorf("hfdata: row %d has %d fields, need at least %d", row, len(rec), maxCol+1)
		}

		bad := false
		for _, f := range opts.Flags {
			if strings.TrimSpace(rec[f.Col]) != f.GoodValue {
				bad = true
				break
			}
		}
		mask = append(mask, bad)

		for i, col := range opts.Cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
			if err != nil {
				v = math.NaN()
			}
			if conv, ok := opts.Converters[VarNames[i]]; ok {
				v = conv.Gain*v + conv.Offset
			}
			cols[i] = append(cols[i], v)
		}
	}

	if len(mask) == 0 {
		return nil, fmt.Errorf("hfdata: no data rows")
	}
	return New(cols[0], cols[1], cols[2], cols[3], cols[4], cols[5], cols[6], mask, opts.Phys), nil
}
