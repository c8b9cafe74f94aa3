package resolver

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/raykavin/coinwatch/pkg/core"
)

// seedTable is the single built-in source of truth for well-known
// ticker-to-id mappings. It can be refreshed from the provider's full
// listing with `coinwatch sync` and overridden via LoadSeed.
var seedTable = map[string]core.CanonicalID{
	"btc":   "bitcoin",
	"eth":   "ethereum",
	"usdt":  "tether",
	"bnb":   "binancecoin",
	"sol":   "solana",
	"xrp":   "ripple",
	"usdc":  "usd-coin",
	"steth": "staked-ether",
	"ada":   "cardano",
	"avax":  "avalanche-2",
	"trx":   "tron",
	"wbtc":  "wrapped-bitcoin",
	"link":  "chainlink",
	"dot":   "polkadot",
	"matic": "matic-network",
	"dai":   "dai",
	"shib":  "shiba-inu",
	"ltc":   "litecoin",
	"bch":   "bitcoin-cash",
	"uni":   "uniswap",
	"atom":  "cosmos",
	"etc":   "ethereum-classic",
	"xlm":   "stellar",
	"near":  "near",
	"algo":  "algorand",
	"vet":   "vechain",
	"fil":   "filecoin",
	"icp":   "internet-computer",
	"hbar":  "hedera-hashgraph",
	"apt":   "aptos",
	"sui":   "sui",
}

// Seed returns a copy of the built-in mapping table.
func Seed() map[string]core.CanonicalID {
	out := make(map[string]core.CanonicalID, len(seedTable))
	for k, v := range seedTable {
		out[k] = v
	}
	return out
}

// LoadSeed reads a mapping table from a JSON file produced by
// `coinwatch sync`.
func LoadSeed(path string) (map[string]core.CanonicalID, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	table := make(map[string]core.CanonicalID)
	if err := json.Unmarshal(content, &table); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	return table, nil
}

// WriteSeed writes a mapping table as JSON.
func WriteSeed(path string, table map[string]core.CanonicalID) error {
	content, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal seed table: %w", err)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write seed file: %w", err)
	}

	return nil
}
