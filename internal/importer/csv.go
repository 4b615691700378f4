package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// record is one data row keyed by header name, with its line in the file.
type record struct {
	file   string
	line   int
	fields map[string]string
}

func (r record) errorf(format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", r.file, r.line, fmt.Sprintf(format, args...))
}

func (r record) str(name string) string {
	return strings.TrimSpace(r.fields[name])
}

func (r record) required(name string) (string, error) {
	v := r.str(name)
	if v == "" {
		return "", r.errorf("column %q is empty", name)
	}
	return v, nil
}

func (r record) uint(name string) (uint, error) {
	v, err := r.required(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil || n == 0 {
		return 0, r.errorf("column %q: %q is not a positive integer", name, v)
	}
	return uint(n), nil
}

func (r record) optionalUint(name string) (*uint, error) {
	if r.str(name) == "" {
		return nil, nil
	}
	n, err := r.uint(name)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r record) int(name string) (int, error) {
	v, err := r.required(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, r.errorf("column %q: %q is not an integer", name, v)
	}
	return n, nil
}

// time accepts the timestamp layouts found in exported data, e.g.
// "2019-09-24T21:08:21.567Z".
func (r record) time(name string) (time.Time, error) {
	v, err := r.required(name)
	if err != nil {
		return time.Time{}, err
	}
	t, err := dateparse.ParseIn(v, time.UTC)
	if err != nil {
		return time.Time{}, r.errorf("column %q: %v", name, err)
	}
	return t, nil
}

// readFile loads every data row of dir/name. The first row is the header and
// each listed column must be present in it.
func readFile(dir, name string, columns ...string) ([]record, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: file is empty", name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	for _, col := range columns {
		if !slices.Contains(header, col) {
			return nil, fmt.Errorf("%s: missing column %q", name, col)
		}
	}

	var records []record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		line, _ := reader.FieldPos(0)
		rec := record{file: name, line: line, fields: make(map[string]string, len(header))}
		for i, h := range header {
			if i < len(row) {
				rec.fields[h] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
