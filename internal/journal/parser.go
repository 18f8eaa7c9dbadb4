// Package journal parses the itemized specification block of a receipt into
// ordered line items.
package journal

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sufscan/receipt-processor/internal/common"
	"github.com/sufscan/receipt-processor/internal/entity"
)

// taxRates maps the fiscal tax labels printed on receipts to their VAT rate.
// Ђ is the standard rate, Е the reduced rate, Г and А are zero-rated/exempt.
var taxRates = map[string]decimal.Decimal{
	"Ђ": decimal.NewFromInt(20),
	"Е": decimal.NewFromInt(10),
	"Г": decimal.Zero,
	"А": decimal.Zero,
}

const amountPattern = `[0-9][0-9.,]*`

// Row matchers, applied greedily in order. An item spans a fixed three-row
// group: name (optionally tagged with its tax label), quantity times unit
// price, then total. New row shapes get a new rule here instead of growing
// a conditional in the scan loop.
var (
	reSkip  = regexp.MustCompile(`^\s*([=\-_*]{3,}|Назив\s+Цена\s+Кол\.?\s+Укупно)?\s*$`)
	reQty   = regexp.MustCompile(`^\s*(` + amountPattern + `)\s*[xХх×]\s*(` + amountPattern + `)\s*$`)
	reTotal = regexp.MustCompile(`^\s*(` + amountPattern + `)(?:\s+(\S{1,2}))?\s*$`)
	reName  = regexp.MustCompile(`^\s*(.+?)\s*(?:\((\S{1,2})\))?\s*$`)
)

type rowKind int

const (
	rowSkip rowKind = iota
	rowQty
	rowTotal
	rowName
)

type rowRule struct {
	kind rowKind
	re   *regexp.Regexp
}

// Order matters: the name rule matches almost anything, so it comes last.
var rowRules = []rowRule{
	{rowSkip, reSkip},
	{rowQty, reQty},
	{rowTotal, reTotal},
	{rowName, reName},
}

func classify(line string) (rowKind, []string) {
	for _, rule := range rowRules {
		if m := rule.re.FindStringSubmatch(line); m != nil {
			return rule.kind, m
		}
	}
	return rowSkip, nil // unreachable: reName accepts any non-blank line
}

// Parse reads the journal text block into line items, in document order.
// A row that breaks the expected group pattern fails the whole document with
// an UnparseableRow error carrying the offending text; financial data is
// never silently dropped.
func Parse(section entity.RawSection) ([]entity.LineItem, error) {
	var items []entity.LineItem

	var item entity.LineItem
	expect := rowName

	for _, line := range strings.Split(section.Body, "\n") {
		kind, groups := classify(line)
		if kind == rowSkip {
			continue
		}

		switch expect {
		case rowName:
			if kind != rowName {
				return nil, unparseable(line, "expected an item name row")
			}
			item = entity.LineItem{Name: groups[1]}
			if groups[2] != "" {
				item.TaxLabel = groups[2]
			}
			expect = rowQty

		case rowQty:
			if kind != rowQty {
				return nil, unparseable(line, "expected a quantity x unit-price row")
			}
			qty, err := ParseAmount(groups[1])
			if err != nil {
				return nil, unparseable(line, err.Error())
			}
			unit, err := ParseAmount(groups[2])
			if err != nil {
				return nil, unparseable(line, err.Error())
			}
			item.Quantity = qty
			item.UnitPrice = unit
			expect = rowTotal

		case rowTotal:
			if kind != rowTotal {
				return nil, unparseable(line, "expected a total row")
			}
			total, err := ParseAmount(groups[1])
			if err != nil {
				return nil, unparseable(line, err.Error())
			}
			item.Total = total
			if groups[2] != "" {
				item.TaxLabel = groups[2]
			}
			item.TaxRate = rateFor(item.TaxLabel)
			items = append(items, item)
			expect = rowName
		}
	}

	if expect != rowName {
		return nil, common.Errorf(common.KindUnparseableRow,
			"journal ends mid-item: %q is incomplete", item.Name)
	}
	return items, nil
}

func rateFor(label string) decimal.Decimal {
	if rate, ok := taxRates[label]; ok {
		return rate
	}
	return decimal.Zero
}

func unparseable(line, reason string) error {
	return common.Errorf(common.KindUnparseableRow, "%s: %q", reason, strings.TrimSpace(line))
}
