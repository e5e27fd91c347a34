package format

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/compliancecore/certextract/internal/common"
)

// wordBody mirrors just enough of word/document.xml's structure to pull out
// run text (<w:t> elements), ignoring formatting, styles, and everything
// else OOXML carries.
type wordBody struct {
	Text []string `xml:"body>p>r>t"`
}

// extractDOCXText unzips the OOXML package and concatenates the visible
// text runs from word/document.xml. Parse errors degrade to an empty
// string (parse errors produce an empty text layer, not a
// failure).
func extractDOCXText(content []byte) string {
	logger := common.GetLogger()

	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		logger.Warn().Err(err).Msg("format: failed to open DOCX as zip, returning an empty text layer")
		return ""
	}

	for _, f := range reader.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			logger.Warn().Err(err).Msg("format: failed to open word/document.xml")
			return ""
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return ""
		}

		var body wordBody
		if err := xml.Unmarshal(data, &body); err != nil {
			logger.Warn().Err(err).Msg("format: failed to parse word/document.xml")
			return ""
		}
		return strings.Join(body.Text, " ")
	}
	return ""
}
