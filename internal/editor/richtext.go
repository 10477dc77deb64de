package editor

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/kapu/society-cms-go/internal/util"
)

// Raw HTML inside markdown is escaped, WithUnsafe is not set.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// MarkdownToHTML renders article content authored as markdown into the HTML
// the API stores.
func MarkdownToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PlainText strips tags from rich-text HTML and collapses whitespace.
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Excerpt is the plain-text preview shown in lists, cut to maxRunes.
func Excerpt(html string, maxRunes int) string {
	return util.TruncateString(PlainText(html), maxRunes)
}

// IsEmptyHTML reports whether an editor produced nothing a reader would see,
// like "<p><br></p>". Images and embeds count as content.
func IsEmptyHTML(html string) bool {
	if strings.TrimSpace(html) == "" {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	if doc.Find("img, iframe, video, audio").Length() > 0 {
		return false
	}
	return strings.TrimSpace(doc.Text()) == ""
}
