package domain

// HeadlineCoins are the fixed set of coins the briefing always reports on,
// in display order. Keys are CoinGecko ids.
var HeadlineCoins = []string{
	"bitcoin",
	"ethereum",
	"solana",
	"ripple",
	"cardano",
	"dogecoin",
}

// CoinSymbol maps CoinGecko ids to ticker symbols for the headline set.
var CoinSymbol = map[string]string{
	"bitcoin":  "BTC",
	"ethereum": "ETH",
	"solana":   "SOL",
	"ripple":   "XRP",
	"cardano":  "ADA",
	"dogecoin": "DOGE",
}

// TierSizes are the supported coin-universe sizes for top-movers derivation.
var TierSizes = []int{50, 100, 200, 300}

func IsTierSize(n int) bool {
	for _, s := range TierSizes {
		if s == n {
			return true
		}
	}
	return false
}
