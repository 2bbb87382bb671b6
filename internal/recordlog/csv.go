package recordlog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVFile stores rows in a single CSV file with a header line.
type CSVFile[T any] struct {
	path   string
	schema Schema[T]
	bom    bool
}

type CSVOption func(*csvOptions)

type csvOptions struct {
	bom bool
}

// WithBOM prefixes newly written files with a UTF-8 byte order mark so that
// spreadsheet tools pick the right encoding. Reading always tolerates one.
func WithBOM() CSVOption {
	return func(o *csvOptions) { o.bom = true }
}

// OpenCSV returns a CSV backend at path, creating the file with its header
// when it does not exist or is empty.
func OpenCSV[T any](path string, schema Schema[T], opts ...CSVOption) (*CSVFile[T], error) {
	var o csvOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f := &CSVFile[T]{path: path, schema: schema, bom: o.bom}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist) || (err == nil && info.Size() == 0):
		if err := f.RewriteAll(context.Background(), nil); err != nil {
			return nil, fmt.Errorf("init %s: %w", path, err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return f, nil
}

func (f *CSVFile[T]) Path() string { return f.path }

func (f *CSVFile[T]) Append(_ context.Context, row T) error {
	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	w := csv.NewWriter(file)
	if err := w.Write(f.schema.Encode(row)); err != nil {
		_ = file.Close()
		return fmt.Errorf("write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = file.Close()
		return fmt.Errorf("flush row: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("sync %s: %w", f.path, err)
	}
	return file.Close()
}

func (f *CSVFile[T]) ReadAll(_ context.Context) ([]T, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	header := f.schema.Header()
	r.FieldsPerRecord = len(header)

	got, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(got, header) {
		return nil, fmt.Errorf("%s: unexpected header %v", f.path, got)
	}

	var rows []T
	for {
		cols, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row, err := f.schema.Decode(cols)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// RewriteAll writes the header and rows to a temp file beside the log and
// renames it over the original.
func (f *CSVFile[T]) RewriteAll(_ context.Context, rows []T) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if f.bom {
		if _, err := tmp.Write(utf8BOM); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write bom: %w", err)
		}
	}
	w := csv.NewWriter(tmp)
	if err := w.Write(f.schema.Header()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(f.schema.Encode(row)); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}
