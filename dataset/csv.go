package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// missingMarkers are cell values treated as an explicit missing value.
var missingMarkers = map[string]bool{
	"":   true,
	"NA": true,
	"na": true,
}

// CSVSource loads a dataset from a csv file with a header row. The label
// column is identified by name; every other column becomes a feature field.
// A column is numeric if every non-missing value in it parses as a float.
type CSVSource struct {
	Path       string
	LabelField string
	// Positive optionally names the positive label value.
	Positive string
}

// NewCSVSource creates a source that reads records from a csv file.
func NewCSVSource(path, labelField string) CSVSource {
	return CSVSource{Path: path, LabelField: labelField}
}

// Load reads and parses the csv file into a dataset.
func (s CSVSource) Load() (Dataset, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return Dataset{}, errors.Wrap(err, "could not open dataset file")
	}
	defer f.Close()
	return FromCSV(f, s.LabelField, s.Positive)
}

// FromCSV parses csv data with a header row into a dataset.
func FromCSV(r io.Reader, labelField, positive string) (Dataset, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return Dataset{}, errors.Wrap(err, "could not parse csv data")
	}
	if len(rows) < 2 {
		return Dataset{}, errors.New("csv data must contain a header row and at least one record")
	}

	header := rows[0]
	labelCol := -1
	for i, name := range header {
		if name == labelField {
			labelCol = i
		}
	}
	if labelCol < 0 {
		return Dataset{}, errors.Errorf("label field `%s` does not appear in the csv header", labelField)
	}

	// A column is numeric unless a non-missing value fails to parse.
	numeric := make([]bool, len(header))
	populated := make([]bool, len(header))
	for i := range header {
		numeric[i] = true
	}
	for _, row := range rows[1:] {
		if len(row) != len(header) {
			return Dataset{}, errors.Errorf("csv row has %d cells, expected %d", len(row), len(header))
		}
		for i, cell := range row {
			if missingMarkers[cell] {
				continue
			}
			populated[i] = true
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric[i] = false
			}
		}
	}

	var fields []Field
	for i, name := range header {
		if i == labelCol {
			continue
		}
		kind := Categorical
		if numeric[i] && populated[i] {
			kind = Numeric
		}
		fields = append(fields, Field{Name: name, Kind: kind})
	}

	records := make([]Record, 0, len(rows)-1)
	for n, row := range rows[1:] {
		values := make(map[string]Value, len(fields))
		for i, cell := range row {
			if i == labelCol {
				continue
			}
			if missingMarkers[cell] {
				values[header[i]] = Value{Missing: true}
				continue
			}
			if numeric[i] && populated[i] {
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return Dataset{}, errors.Wrapf(err, "could not parse numeric cell in column `%s`", header[i])
				}
				values[header[i]] = Value{Number: v}
			} else {
				values[header[i]] = Value{Text: cell}
			}
		}
		records = append(records, Record{
			ID:     n,
			Values: values,
			Label:  row[labelCol],
		})
	}

	return Dataset{
		Fields:     fields,
		LabelField: labelField,
		Positive:   positive,
		Records:    records,
	}, nil
}
