package decision

import (
	"fmt"
	"math"
	"strings"

	"github.com/johncarlocaintic/VictusGlobal/internal/pkg/convert"
)

const (
	marketCapFloor = 1_000_000
	volumeFloor    = 150_000
	dexFloor       = 25_000
)

var (
	tier1Exchanges = []string{"Binance", "Coinbase", "OKX", "Bybit", "Gate", "KuCoin", "Kraken"}
	tier2Exchanges = []string{"BitMart", "MEXC", "Bitget", "LBank", "Coinstore", "CoinEx", "HTX", "Weex"}
)

// isTierExchange 大小写敏感的子串匹配，"Gate.io" 命中 "Gate"。
func isTierExchange(exchange string) bool {
	for _, list := range [][]string{tier1Exchanges, tier2Exchanges} {
		for _, name := range list {
			if strings.Contains(exchange, name) {
				return true
			}
		}
	}
	return false
}

type amounts struct {
	dailyMin, dailyMax, commitment, investment int64
}

var (
	tierA = amounts{500, 1_000, 250_000, 350_000}
	tierB = amounts{1_000, 2_500, 350_000, 500_000}
	tierC = amounts{2_500, 5_000, 500_000, 600_000}
	tierD = amounts{5_000, 10_000, 600_000, 800_000}
	tierE = amounts{10_000, 25_000, 800_000, 1_000_000}
	tierF = amounts{25_000, 40_000, 1_000_000, 3_000_000}
)

func (a amounts) tier(venue Venue, bucket string) *Tier {
	return &Tier{
		Venue:             venue,
		Bucket:            bucket,
		DailyMin:          a.dailyMin,
		DailyMax:          a.dailyMax,
		MinimumCommitment: a.commitment,
		InvestmentAmount:  a.investment,
	}
}

func (a amounts) describe() string {
	return fmt.Sprintf("Daily transaction %s - %s minimum commitment %s investment %s",
		convert.FormatCompact(a.dailyMin), convert.FormatCompact(a.dailyMax),
		convert.FormatCompact(a.commitment), convert.FormatCompact(a.investment))
}

// dexBucket matches lo < liquidity <= hi.
type dexBucket struct {
	lo, hi int64
	tier   amounts
}

var dexBuckets = []dexBucket{
	{25_000, 50_000, tierA},
	{50_000, 100_000, tierB},
	{100_000, 250_000, tierC},
	{250_000, 1_000_000, tierD},
	{1_000_000, 3_000_000, tierE},
	{3_000_000, math.MaxInt64, tierF},
}

func (b dexBucket) label() string {
	if b.hi == math.MaxInt64 {
		return ">" + convert.FormatCompact(b.lo)
	}
	return convert.FormatCompact(b.lo) + "-" + convert.FormatCompact(b.hi)
}

// cexRule 的两个条件必须同时满足；tier 为 nil 表示命中后拒绝。
type cexRule struct {
	label string
	match func(volume, score int64) bool
	tier  *amounts
}

var cexRules = []cexRule{
	{
		label: "volume < 150K and liquidity score 1-150",
		match: func(v, s int64) bool { return v < 150_000 && s >= 1 && s <= 150 },
	},
	{
		label: "volume >150K and liquidity score 150-250",
		match: func(v, s int64) bool { return v > 150_000 && s > 150 && s <= 250 },
	},
	{
		label: "volume 150K-250K and liquidity score 250-350",
		match: func(v, s int64) bool { return v > 150_000 && v <= 250_000 && s > 250 && s <= 350 },
		tier:  &tierA,
	},
	{
		label: "volume 250K-500K and liquidity score 350-450",
		match: func(v, s int64) bool { return v > 250_000 && v <= 500_000 && s > 350 && s <= 450 },
		tier:  &tierB,
	},
	{
		label: "volume >500K and liquidity score 450-550",
		match: func(v, s int64) bool { return v > 500_000 && s > 450 && s <= 550 },
		tier:  &tierC,
	},
	{
		label: "volume >1M and liquidity score 550-600",
		match: func(v, s int64) bool { return v > 1_000_000 && s > 550 && s <= 600 },
		tier:  &tierD,
	},
	{
		label: "volume >3M and liquidity score >600",
		match: func(v, s int64) bool { return v > 3_000_000 && s > 600 },
		tier:  &tierE,
	},
}
