package huace

import (
	"strings"
)

const bom = "\uFEFF"

// RawRow maps a header column to its trimmed cell value.
type RawRow map[string]string

// First returns the first non-empty value among keys, in the order given.
func (r RawRow) First(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

// ParseCSV parses comma-separated text whose first record is a header.
//
// Parsing is lenient: a quote anywhere outside a quoted field opens one, a
// bare carriage return outside quotes is dropped, and input ending inside
// quotes closes the open field. Rows whose cells are all blank are skipped.
func ParseCSV(text string) []RawRow {
	records := splitRecords(text)
	if len(records) == 0 {
		return nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, bom))
	}

	rows := []RawRow{}
	for _, cells := range records[1:] {
		row := RawRow{}
		blank := true
		for i, k := range header {
			v := ""
			if i < len(cells) {
				v = strings.TrimSpace(cells[i])
			}
			row[k] = v
			if v != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func splitRecords(text string) [][]string {
	var (
		records  [][]string
		record   []string
		field    strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if inQuotes {
			if ch == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					field.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}
				continue
			}
			field.WriteByte(ch)
			continue
		}

		switch ch {
		case '"':
			inQuotes = true
		case ',':
			record = append(record, field.String())
			field.Reset()
		case '\n':
			record = append(record, field.String())
			records = append(records, record)
			record = nil
			field.Reset()
		case '\r':
		default:
			field.WriteByte(ch)
		}
	}

	if field.Len() > 0 || len(record) > 0 {
		record = append(record, field.String())
		records = append(records, record)
	}
	return records
}
