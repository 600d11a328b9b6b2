package screener

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/wonny/papertrade/internal/contracts"
)

// leadingNumber matches the numeric prefix of a cell ("12.5%" -> "12.5")
var leadingNumber = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)

// columns maps each metric to its header index; -1 when the screen lacks the column
type columns struct {
	cmp           int
	pe            int
	marketCap     int
	divYield      int
	roce          int
	qtrProfitVar  int
	qtrSalesVar   int
	roce3Yr       int
	profitVar3Yrs int
	salesVar3Yrs  int
}

func findColumn(headers []string, match func(h string) bool) int {
	for i, h := range headers {
		if match(h) {
			return i
		}
	}
	return -1
}

func resolveColumns(headers []string) columns {
	has := func(subs ...string) func(string) bool {
		return func(h string) bool {
			for _, s := range subs {
				if strings.Contains(h, s) {
					return true
				}
			}
			return false
		}
	}

	return columns{
		cmp:       findColumn(headers, has("CMP", "PRICE", "CURRENT")),
		pe:        findColumn(headers, has("P/E", "PE")),
		marketCap: findColumn(headers, has("MAR CAP", "MARKET CAP")),
		divYield:  findColumn(headers, has("DIV YLD", "DIVIDEND")),
		roce: findColumn(headers, func(h string) bool {
			return strings.Contains(h, "ROCE") && !strings.Contains(h, "3YR")
		}),
		qtrProfitVar:  findColumn(headers, has("QTR PROFIT VAR")),
		qtrSalesVar:   findColumn(headers, has("QTR SALES VAR")),
		roce3Yr:       findColumn(headers, has("ROCE 3YR")),
		profitVar3Yrs: findColumn(headers, has("PROFIT VAR 3YRS")),
		salesVar3Yrs:  findColumn(headers, has("SALES VAR 3YRS")),
	}
}

// ParsePage extracts the result table and the next-page signal from a screen page
func ParsePage(r io.Reader) (*contracts.CandidatePage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse screen html: %w", err)
	}

	page := &contracts.CandidatePage{
		Rows:    parseRows(doc),
		HasNext: hasNextPage(doc),
	}
	return page, nil
}

func parseRows(doc *goquery.Document) []contracts.StockMetrics {
	var headers []string
	doc.Find("table.data-table thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.ToUpper(strings.TrimSpace(th.Text())))
	})
	cols := resolveColumns(headers)

	var rows []contracts.StockMetrics
	doc.Find("table.data-table tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return
		}

		link := cells.Eq(1).Find("a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		code := stockCodeFromHref(href)
		if code == "" {
			return
		}

		cell := func(idx int) float64 {
			if idx < 0 || idx >= cells.Length() {
				return 0
			}
			return parseNumber(cells.Eq(idx).Text())
		}

		rows = append(rows, contracts.StockMetrics{
			StockCode:     code,
			CompanyName:   strings.TrimSpace(link.Text()),
			CMP:           cell(cols.cmp),
			PE:            cell(cols.pe),
			MarketCap:     cell(cols.marketCap),
			DividendYield: cell(cols.divYield),
			ROCE:          cell(cols.roce),
			QtrProfitVar:  cell(cols.qtrProfitVar),
			QtrSalesVar:   cell(cols.qtrSalesVar),
			ROCE3Yr:       cell(cols.roce3Yr),
			ProfitVar3Yrs: cell(cols.profitVar3Yrs),
			SalesVar3Yrs:  cell(cols.salesVar3Yrs),
		})
	})

	return rows
}

// hasNextPage looks for the htmx pagination link labelled "Next"
func hasNextPage(doc *goquery.Document) bool {
	found := false
	doc.Find(`a[hx-get*="page="]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.TrimSpace(a.Text()) == "Next" {
			found = true
			return false
		}
		return true
	})
	return found
}

// ParseCurrentPrice reads the "Current Price" figure from a company page
func ParseCurrentPrice(r io.Reader) (float64, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return 0, fmt.Errorf("failed to parse company html: %w", err)
	}

	var text string
	doc.Find("#top-ratios li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		if strings.Contains(li.Text(), "Current Price") {
			text = li.Find(".number").First().Text()
			return false
		}
		return true
	})

	text = strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	m := leadingNumber.FindString(text)
	if m == "" {
		return 0, fmt.Errorf("current price not found")
	}

	price, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid current price %q: %w", text, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("non-positive current price %v", price)
	}
	return price, nil
}

// stockCodeFromHref turns "/company/TCS/consolidated/" into "TCS"
func stockCodeFromHref(href string) string {
	for _, part := range strings.Split(href, "/") {
		if part == "" || part == "company" || part == "consolidated" {
			continue
		}
		return part
	}
	return ""
}

// parseNumber strips thousands separators and reads the leading number; anything else is 0
func parseNumber(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}
