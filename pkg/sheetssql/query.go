package sheetssql

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Special ssql_header values
const (
	// ExtraColumns marks a map[string]string field that collects every column
	// no other field claims, keyed by normalized header
	ExtraColumns = "*"

	// RowNumber marks an int field that receives the row's 1-based sheet row
	RowNumber = "#"
)

// GetTableAs reads a tab and maps each data row to a struct of type T.
//
// Fields are bound by their `ssql_header` tag. A field tagged
// `ssql_required:"true"` fails the read when its column is missing. Blank cells
// leave the zero value; *float64 and *int fields stay nil so callers can tell
// "absent" from 0.
func GetTableAs[T any](ctx context.Context, db *DB, tableName string) ([]T, error) {
	table, rowNumbers, err := db.ReadTable(ctx, tableName)
	if err != nil {
		return nil, err
	}
	return DecodeTable[T](table, rowNumbers)
}

type boundField struct {
	index  int
	header string
	column int
}

// DecodeTable maps an already-read table onto T. rowNumbers are used in error
// messages and may be nil.
func DecodeTable[T any](table *Table, rowNumbers []int) ([]T, error) {
	var model T
	t := reflect.TypeOf(model)
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be a struct, got %s", t.Kind())
	}

	var fields []boundField
	extrasField := -1
	rowField := -1
	claimed := make(map[int]bool)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		header := field.Tag.Get("ssql_header")
		if header == "" {
			continue
		}
		if header == ExtraColumns {
			if field.Type != reflect.TypeOf(map[string]string{}) {
				return nil, fmt.Errorf("field %s: %q columns need a map[string]string", field.Name, ExtraColumns)
			}
			extrasField = i
			continue
		}
		if header == RowNumber {
			if field.Type.Kind() != reflect.Int {
				return nil, fmt.Errorf("field %s: %q needs an int", field.Name, RowNumber)
			}
			rowField = i
			continue
		}

		bf := boundField{
			index:  i,
			header: normalizeHeader(header),
			column: table.ColumnIndex(header),
		}
		if bf.column < 0 && field.Tag.Get("ssql_required") == "true" {
			return nil, fmt.Errorf("table %s: missing required column %q", table.Name, bf.header)
		}
		if bf.column >= 0 {
			claimed[bf.column] = true
		}
		fields = append(fields, bf)
	}

	results := make([]T, 0, len(table.Rows))
	for r, row := range table.Rows {
		rowNumber := r + 2
		if r < len(rowNumbers) {
			rowNumber = rowNumbers[r]
		}

		result := reflect.New(t).Elem()
		if rowField >= 0 {
			result.Field(rowField).SetInt(int64(rowNumber))
		}
		for _, bf := range fields {
			if bf.column < 0 {
				continue
			}
			cell := row[bf.column]
			if cell == "" {
				continue
			}
			if err := setFieldValue(result.Field(bf.index), cell); err != nil {
				return nil, fmt.Errorf("table %s row %d column %s: %w", table.Name, rowNumber, bf.header, err)
			}
		}

		if extrasField >= 0 {
			extras := make(map[string]string)
			for c, header := range table.Headers {
				if claimed[c] || header == "" || row[c] == "" {
					continue
				}
				extras[header] = row[c]
			}
			result.Field(extrasField).Set(reflect.ValueOf(extras))
		}

		results = append(results, result.Interface().(T))
	}

	return results, nil
}

// setFieldValue converts a non-blank cell to the field's Go type
func setFieldValue(field reflect.Value, cell string) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	if field.Kind() == reflect.Ptr {
		ptr := reflect.New(field.Type().Elem())
		if err := setFieldValue(ptr.Elem(), cell); err != nil {
			return err
		}
		field.Set(ptr)
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(cell)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			// Sheets renders whole numbers as "3.0" in some formats
			f, ferr := strconv.ParseFloat(cell, 64)
			if ferr != nil || f != float64(int64(f)) {
				return fmt.Errorf("failed to parse int: %w", err)
			}
			v = int64(f)
		}
		field.SetInt(v)

	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
		if err != nil {
			return fmt.Errorf("failed to parse float: %w", err)
		}
		field.SetFloat(v)

	case reflect.Bool:
		v, err := strconv.ParseBool(cell)
		if err != nil {
			return fmt.Errorf("failed to parse bool: %w", err)
		}
		field.SetBool(v)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}
