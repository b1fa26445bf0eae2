package posts

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Excerpt extrai o texto de uma seção em HTML e o corta em limit runas,
// respeitando o fim da última palavra inteira.
func Excerpt(html string, limit int) string {
	if strings.TrimSpace(html) == "" || limit <= 0 {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()
	// blocos adjacentes não podem colar palavras
	doc.Find("p, br, li, h1, h2, h3, h4, h5, h6, div").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})
	text := strings.Join(strings.Fields(doc.Text()), " ")
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
