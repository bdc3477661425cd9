package parsers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"mmiclean/model"
)

// SkipBOM drops a UTF-8 byte order mark from the head of a reader.
func SkipBOM(r io.Reader) io.Reader {
	br := make([]byte, 3)
	n, _ := io.ReadFull(r, br)
	if n == 3 && br[0] == 0xEF && br[1] == 0xBB && br[2] == 0xBF {
		return r
	}
	return io.MultiReader(bytes.NewReader(br[:n]), r)
}

// decodeTableBytes converts an uploaded export to UTF-8 text. Valid UTF-8 is
// used as-is; otherwise Shift-JIS, Windows-1252 and Latin-1 are tried in
// that order. The last fallback never fails, matching the "errors ignored"
// upload contract.
func decodeTableBytes(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	for _, enc := range []encoding.Encoding{japanese.ShiftJIS, charmap.Windows1252, charmap.ISO8859_1} {
		decoded, _, err := transform.Bytes(enc.NewDecoder(), content)
		if err == nil && utf8.Valid(decoded) {
			return string(decoded)
		}
	}
	return string(bytes.ToValidUTF8(content, []byte("?")))
}

// sniffDelimiter picks the separator with the most occurrences in the
// header line. Comma wins ties.
func sniffDelimiter(text string) rune {
	head, _, _ := strings.Cut(text, "\n")
	best := ','
	bestCount := strings.Count(head, ",")
	for _, cand := range []rune{';', '\t'} {
		if c := strings.Count(head, string(cand)); c > bestCount {
			best = cand
			bestCount = c
		}
	}
	return best
}

// nullTokens are cell values normalized to the empty value.
var nullTokens = map[string]struct{}{
	"NA": {}, "N/A": {}, "NULL": {}, "NAN": {}, "NONE": {},
}

func normalizeCell(s string) string {
	t := strings.TrimSpace(s)
	if _, ok := nullTokens[strings.ToUpper(t)]; ok {
		return ""
	}
	return t
}

// ParseTable converts a delimited export into ordered records. The first
// row is the header; the ID column is the identity key. Rows that fail to
// parse are skipped with a warning, never fatal.
func ParseTable(content []byte) ([]model.Record, []string, error) {
	text := decodeTableBytes(content)

	reader := csv.NewReader(SkipBOM(strings.NewReader(text)))
	reader.Comma = sniffDelimiter(text)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("table file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read table header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	var records []model.Record
	line := 1
	for {
		line++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("WARN: table row %d read error (skipped): %v", line, err)
			continue
		}

		values := make(map[string]string, len(columns))
		for i, col := range columns {
			if col == "" {
				continue
			}
			if i < len(row) {
				values[col] = normalizeCell(row[i])
			} else {
				values[col] = ""
			}
		}
		records = append(records, model.Record{Columns: columns, Values: values})
	}

	return records, columns, nil
}
