package scrape

import (
	"sort"
	"strings"

	"github.com/johncarlocaintic/VictusGlobal/internal/market"
	"github.com/johncarlocaintic/VictusGlobal/internal/pkg/convert"
)

const (
	headerLiquidity = "liquidity score"
	headerVolume    = "volume (24h)"
	minRowCells     = 7
	notAvailable    = "N/A"
)

type pageTable struct {
	Headers []string  `json:"headers"`
	Rows    []pageRow `json:"rows"`
}

type pageRow struct {
	Cells []string `json:"cells"`
	Link  string   `json:"link"`
}

type statPair struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func (t pageTable) column(name string) int {
	for i, h := range t.Headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

// parseCEXRows keeps allow-listed rows, ranks them by liquidity score (stable, so
// equal scores keep page order) and truncates to limit.
func parseCEXRows(t pageTable, limit int) []market.CEXMarket {
	liqIdx := t.column(headerLiquidity)
	if liqIdx < 0 {
		return nil
	}
	volIdx := t.column(headerVolume)
	type ranked struct {
		row   market.CEXMarket
		score int64
	}
	var rows []ranked
	for _, r := range t.Rows {
		if len(r.Cells) < minRowCells {
			continue
		}
		exchange := cell(r.Cells, 1)
		if !market.IsListedCEX(exchange) {
			continue
		}
		liq := cell(r.Cells, liqIdx)
		rows = append(rows, ranked{
			row: market.CEXMarket{
				Exchange:       exchange,
				Pair:           cell(r.Cells, 2),
				Price:          cell(r.Cells, 3),
				Volume24h:      cell(r.Cells, volIdx),
				LiquidityScore: liq,
			},
			score: convert.ParseScore(liq),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].score > rows[j].score })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]market.CEXMarket, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.row)
	}
	return out
}

// parseTopDEX picks the DEX row with the highest liquidity score; the first row wins ties.
// It also returns the pair page link of that row.
func parseTopDEX(t pageTable) (*market.DEXMarket, string) {
	liqIdx := t.column(headerLiquidity)
	if liqIdx < 0 {
		return nil, ""
	}
	volIdx := t.column(headerVolume)
	var (
		top      *pageRow
		topScore int64 = -1
	)
	for i := range t.Rows {
		r := &t.Rows[i]
		if len(r.Cells) < minRowCells {
			continue
		}
		score := convert.ParseScore(cell(r.Cells, liqIdx))
		if score > topScore {
			topScore = score
			top = r
		}
	}
	if top == nil {
		return nil, ""
	}
	return &market.DEXMarket{
		Exchange:       cell(top.Cells, 1),
		Pair:           cell(top.Cells, 2),
		Price:          cell(top.Cells, 3),
		Volume24h:      cell(top.Cells, volIdx),
		LiquidityScore: cell(top.Cells, liqIdx),
		FinalLiquidity: notAvailable,
	}, strings.TrimSpace(top.Link)
}

// parseOverview reads market cap (label exactly "Market cap") and 24h volume (the
// first volume label that is not a ratio) from the stats list.
func parseOverview(pairs []statPair) market.Overview {
	var ov market.Overview
	for _, p := range pairs {
		label := strings.ToLower(strings.TrimSpace(p.Label))
		value := strings.TrimSpace(p.Value)
		switch {
		case label == "market cap":
			if ov.MarketCap == "" {
				ov.MarketCap = value
			}
		case strings.Contains(label, "volume") && !strings.Contains(label, "/"):
			if ov.Volume24h == "" {
				ov.Volume24h = value
			}
		}
	}
	return ov
}
