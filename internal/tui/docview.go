package tui

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// document is a documentation page reduced to terminal-friendly text.
type document struct {
	Title string
	Body  string
}

// parseDocument extracts the readable core of a documentation page.
// Readability isolates the article body; goquery supplies the title when
// the extraction leaves it empty.
func parseDocument(html string) (document, error) {
	article, err := readability.FromReader(strings.NewReader(html), nil)
	if err != nil {
		return document{}, fmt.Errorf("extracting document content: %w", err)
	}

	title := strings.TrimSpace(article.Title)
	body := strings.TrimSpace(article.TextContent)

	if title == "" || body == "" {
		sel, qErr := goquery.NewDocumentFromReader(strings.NewReader(html))
		if qErr == nil {
			if title == "" {
				title = strings.TrimSpace(sel.Find("title").First().Text())
			}
			if title == "" {
				title = strings.TrimSpace(sel.Find("h1").First().Text())
			}
			if body == "" {
				body = strings.TrimSpace(sel.Find("body").Text())
			}
		}
	}

	if body == "" {
		return document{}, fmt.Errorf("document has no readable content")
	}
	if title == "" {
		title = "Documentation"
	}
	return document{Title: title, Body: collapseBlankLines(body)}, nil
}

// collapseBlankLines squeezes runs of blank lines left over from the
// HTML structure down to single separators.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, trimmed)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
