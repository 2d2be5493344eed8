package finance

import "strings"

// coinAliases maps tickers and common names to CoinGecko ids.
var coinAliases = map[string]string{
	"btc":       "bitcoin",
	"eth":       "ethereum",
	"ether":     "ethereum",
	"sol":       "solana",
	"ada":       "cardano",
	"xrp":       "ripple",
	"doge":      "dogecoin",
	"dot":       "polkadot",
	"ltc":       "litecoin",
	"link":      "chainlink",
	"avax":      "avalanche-2",
	"avalanche": "avalanche-2",
	"matic":     "matic-network",
	"polygon":   "matic-network",
	"bnb":       "binancecoin",
	"usdt":      "tether",
	"usdc":      "usd-coin",
	"trx":       "tron",
}

// idSymbols is the reverse direction for ids whose symbol the local table uses.
var idSymbols = map[string]string{
	"bitcoin":       "BTC",
	"ethereum":      "ETH",
	"solana":        "SOL",
	"cardano":       "ADA",
	"ripple":        "XRP",
	"dogecoin":      "DOGE",
	"polkadot":      "DOT",
	"litecoin":      "LTC",
	"chainlink":     "LINK",
	"avalanche-2":   "AVAX",
	"matic-network": "MATIC",
	"binancecoin":   "BNB",
	"tether":        "USDT",
	"usd-coin":      "USDC",
	"tron":          "TRX",
}

// ResolveID normalizes a user token to a lower-case remote id.
func ResolveID(token string) string {
	t := strings.ToLower(strings.TrimSpace(token))
	if id, ok := coinAliases[t]; ok {
		return id
	}
	return t
}

// ResolveSymbol normalizes a user token to the upper-case symbol used by the
// local dataset.
func ResolveSymbol(token string) string {
	t := strings.ToLower(strings.TrimSpace(token))
	if sym, ok := idSymbols[t]; ok {
		return sym
	}
	if id, ok := coinAliases[t]; ok {
		if sym, ok := idSymbols[id]; ok {
			return sym
		}
	}
	return strings.ToUpper(t)
}
