package history

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// CSVLoader CSV 파일 로더 (year,stocks,bonds,inflation / 헤더 1행 skip)
type CSVLoader struct {
	Path string
}

// NewCSVLoader 새 CSV 로더 생성
func NewCSVLoader(path string) *CSVLoader {
	return &CSVLoader{Path: path}
}

// Load reads and validates the CSV file
func (l *CSVLoader) Load(ctx context.Context) (*Series, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.Path, err)
	}
	defer f.Close()

	series, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", l.Path, err)
	}
	return series, nil
}

// ReadCSV parses CSV rows from r
func ReadCSV(r io.Reader) (*Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return parseRows(rows)
}
