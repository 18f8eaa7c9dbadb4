// Package extract splits a rendered receipt document into its named
// top-level sections.
package extract

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sufscan/receipt-processor/constants"
	"github.com/sufscan/receipt-processor/internal/common"
	"github.com/sufscan/receipt-processor/internal/entity"
)

var reWhitespace = regexp.MustCompile(`\s+`)

// Sections scans the document's flat sequence of block elements for the
// recognized heading labels and collects the blocks following each heading
// into a RawSection. Unknown headings are skipped, so extra sections added
// upstream pass through harmlessly. The journal section is mandatory: a
// document without it is not a receipt render (an error page, most likely)
// and the whole extraction fails.
func Sections(doc *entity.Document) ([]entity.RawSection, error) {
	if doc.ContentType != constants.ContentMarkup {
		return nil, common.Errorf(common.KindStructural,
			"document is %s, not a markup receipt render", doc.ContentType)
	}

	root, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, common.NewError(common.KindStructural, "unparseable markup", err)
	}

	var sections []entity.RawSection
	var current *entity.RawSection

	blocks(root).Each(func(_ int, s *goquery.Selection) {
		text := collapse(s.Text())
		if name, ok := constants.HeadingLabels[text]; ok {
			sections = append(sections, entity.RawSection{Name: name})
			current = &sections[len(sections)-1]
			return
		}
		if current == nil {
			return // preamble before the first recognized heading
		}
		if current.Name == constants.SectionJournal {
			if t := blockText(s); t != "" {
				if current.Body != "" {
					current.Body += "\n"
				}
				current.Body += t
			}
			return
		}
		current.Fields = append(current.Fields, blockFields(s)...)
	})

	if !hasJournal(sections) {
		return nil, common.Errorf(common.KindStructural,
			"mandatory journal section is missing from the document")
	}
	return sections, nil
}

// blocks returns the document's top-level block elements, descending through
// single wrapper containers the way rendered pages nest their content.
func blocks(root *goquery.Document) *goquery.Selection {
	sel := root.Find("body").Children()
	for sel.Length() == 1 && sel.First().Is("div, main, section, article") {
		sel = sel.First().Children()
	}
	return sel
}

// blockFields reads label/value pairs out of one block: table rows with two
// or more cells, or plain "label: value" text lines.
func blockFields(s *goquery.Selection) []entity.Field {
	var fields []entity.Field

	if s.Is("table") || s.Find("table").Length() > 0 {
		s.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td, th")
			if cells.Length() < 2 {
				return
			}
			label := collapse(cells.Eq(0).Text())
			value := collapse(cells.Eq(1).Text())
			if label != "" {
				fields = append(fields, entity.Field{Label: label, Value: value})
			}
		})
		return fields
	}

	for _, line := range strings.Split(blockText(s), "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		label = collapse(label)
		value = collapse(value)
		if label != "" {
			fields = append(fields, entity.Field{Label: label, Value: value})
		}
	}
	return fields
}

// blockText extracts the text of a block preserving line structure. Only
// pre-formatted blocks keep their own newlines; for anything else each child
// block contributes one line.
func blockText(s *goquery.Selection) string {
	if s.Is("pre") {
		return strings.Trim(s.Text(), "\n")
	}
	children := s.Children()
	if children.Length() == 0 {
		return strings.TrimSpace(s.Text())
	}
	var lines []string
	children.Each(func(_ int, c *goquery.Selection) {
		if t := blockText(c); t != "" {
			lines = append(lines, t)
		}
	})
	return strings.Join(lines, "\n")
}

func collapse(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

func hasJournal(sections []entity.RawSection) bool {
	for _, s := range sections {
		if s.Name == constants.SectionJournal {
			return true
		}
	}
	return false
}
