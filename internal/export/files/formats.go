package files

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"bilancio/internal/core"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

var ErrUnknownFormat = errors.New("unknown format")

// csvHeader is the column order of CSV documents.
var csvHeader = []string{"date", "type", "category", "account", "from_account", "to_account", "operation_type", "amount", "description"}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ExportTransactions writes txns to w in the given format.
func ExportTransactions(w io.Writer, format Format, txns []core.Transaction) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(core.Transactions(txns))
	case FormatYAML:
		rows := make([]Row, 0, len(txns))
		for _, tx := range txns {
			rows = append(rows, RowOf(tx))
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return writeCSV(w, txns)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ImportTransactions reads and validates every transaction of a document.
// The first invalid record aborts the import with a *RowError.
func ImportTransactions(r io.Reader, format Format) ([]core.Transaction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errEmptyDocument
	}

	switch format {
	case FormatJSON:
		return parseJSON(data)
	case FormatYAML:
		var rows []Row
		if err := yaml.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		return rowsToTransactions(rows)
	case FormatCSV:
		rows, err := parseCSV(data)
		if err != nil {
			return nil, err
		}
		return rowsToTransactions(rows)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func parseJSON(data []byte) ([]core.Transaction, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	out := make([]core.Transaction, 0, len(raw))
	for i, r := range raw {
		tx, err := core.DecodeTransaction(r)
		if err == nil {
			err = tx.Validate()
		}
		if err != nil {
			return nil, &RowError{Row: i + 1, Err: err}
		}
		out = append(out, tx)
	}
	return out, nil
}

func writeCSV(w io.Writer, txns []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, tx := range txns {
		r := RowOf(tx)
		rec := []string{
			r.Date,
			r.Type,
			r.Category,
			formatID(r.Account),
			formatID(r.FromAccount),
			formatID(r.ToAccount),
			r.OperationType,
			r.Amount,
			r.Description,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseCSV(data []byte) ([]Row, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = len(csvHeader)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) > 0 && strings.EqualFold(records[0][0], csvHeader[0]) {
		records = records[1:]
	}

	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		ids := make([]int64, 3)
		for j, col := range rec[3:6] {
			id, err := parseID(col)
			if err != nil {
				return nil, &RowError{Row: i + 1, Err: fmt.Errorf("%s: %w", csvHeader[3+j], err)}
			}
			ids[j] = id
		}
		rows = append(rows, Row{
			Date:          rec[0],
			Type:          rec[1],
			Category:      rec[2],
			Account:       ids[0],
			FromAccount:   ids[1],
			ToAccount:     ids[2],
			OperationType: rec[6],
			Amount:        rec[7],
			Description:   rec[8],
		})
	}
	return rows, nil
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func parseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
