package format

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/compliancecore/certextract/internal/common"
)

// sharedStrings mirrors xl/sharedStrings.xml: a flat table of strings
// referenced by index from cells of type "s".
type sharedStrings struct {
	Items []string `xml:"si>t"`
}

type sheetData struct {
	Rows []sheetRow `xml:"sheetData>row"`
}

type sheetRow struct {
	Cells []sheetCell `xml:"c"`
}

type sheetCell struct {
	Type  string `xml:"t,attr"`
	Value string `xml:"v"`
}

// extractXLSXText unzips the workbook and flattens every cell's text onto
// one line per row, resolving shared-string indices. Used only to feed the
// template extractor's regex matching, not to reconstruct a spreadsheet
// model — cell positions and sheet boundaries are not preserved.
func extractXLSXText(content []byte) string {
	logger := common.GetLogger()

	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		logger.Warn().Err(err).Msg("format: failed to open XLSX as zip")
		return ""
	}

	strs := readSharedStrings(reader)

	var b strings.Builder
	for _, f := range reader.File {
		if !strings.HasPrefix(f.Name, "xl/worksheets/sheet") {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			continue
		}
		var sd sheetData
		if err := xml.Unmarshal(data, &sd); err != nil {
			continue
		}
		for _, row := range sd.Rows {
			for _, cell := range row.Cells {
				value := cell.Value
				if cell.Type == "s" {
					if idx, err := strconv.Atoi(cell.Value); err == nil && idx >= 0 && idx < len(strs) {
						value = strs[idx]
					}
				}
				if value != "" {
					b.WriteString(value)
					b.WriteString(" ")
				}
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func readSharedStrings(reader *zip.Reader) []string {
	for _, f := range reader.File {
		if f.Name != "xl/sharedStrings.xml" {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return nil
		}
		var s sharedStrings
		if err := xml.Unmarshal(data, &s); err != nil {
			return nil
		}
		return s.Items
	}
	return nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
