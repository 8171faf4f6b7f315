package history

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher is the subset of pkg/httputil.Client the HTML loader needs
type Fetcher interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// HTMLLoader HTML 표(table) 로더
// 연간 수익률 페이지(예: year | S&P 500 | T-Bond | CPI)를 그대로 읽음
// Source는 로컬 파일 경로 또는 http(s) URL
type HTMLLoader struct {
	Source   string
	Selector string // 기본: "table"
	fetcher  Fetcher
}

// NewHTMLLoader 새 HTML 로더 생성 (fetcher는 URL 소스에만 필요)
func NewHTMLLoader(source, selector string, fetcher Fetcher) *HTMLLoader {
	if selector == "" {
		selector = "table"
	}
	return &HTMLLoader{Source: source, Selector: selector, fetcher: fetcher}
}

// Load fetches the document and parses the first matching table
func (l *HTMLLoader) Load(ctx context.Context) (*Series, error) {
	body, err := l.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	series, err := ReadHTML(body, l.Selector)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", l.Source, err)
	}
	return series, nil
}

func (l *HTMLLoader) open(ctx context.Context) (io.ReadCloser, error) {
	if strings.HasPrefix(l.Source, "http://") || strings.HasPrefix(l.Source, "https://") {
		if l.fetcher == nil {
			return nil, fmt.Errorf("no http client configured for %s", l.Source)
		}
		resp, err := l.fetcher.Get(ctx, l.Source)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", l.Source, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: unexpected status %d", l.Source, resp.StatusCode)
		}
		return resp.Body, nil
	}

	f, err := os.Open(l.Source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.Source, err)
	}
	return f, nil
}

// ReadHTML parses the first table matching selector.
// The first row is treated as the header, whether it uses <th> or <td>.
func ReadHTML(r io.Reader, selector string) (*Series, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no element matches %q", ErrEmptySeries, selector)
	}

	var rows [][]string
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		var row []string
		tr.Find("th, td").Each(func(j int, cell *goquery.Selection) {
			row = append(row, strings.TrimSpace(cell.Text()))
		})
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})

	return parseRows(rows)
}
