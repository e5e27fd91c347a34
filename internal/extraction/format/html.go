package format

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractTextFromHTML strips markup and returns the document's visible
// text, collapsing whitespace the way a text-layer extraction would.
func extractTextFromHTML(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	doc.Find("script, style, noscript").Remove()
	text := doc.Text()
	fields := strings.Fields(text)
	return strings.Join(fields, " ")
}

func stripHTMLTags(raw string) string {
	return extractTextFromHTML(raw)
}
