package finance

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SimulationRequest is a parsed simulator invocation.
type SimulationRequest struct {
	Coin      string    `json:"coin"`
	StartDate time.Time `json:"start_date"`
	Amount    float64   `json:"amount"`
	Strategy  Strategy  `json:"strategy"`
}

// ParseSimulationArgs parses "COIN YYYY-MM-DD AMOUNT [lump|dca]", with or
// without a leading /sim.
func ParseSimulationArgs(input string) (SimulationRequest, error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "/sim") {
		input = strings.TrimSpace(input[len("/sim"):])
	}
	parts := strings.Fields(input)
	if len(parts) < 3 || len(parts) > 4 {
		return SimulationRequest{}, fmt.Errorf("%w: usage COIN YYYY-MM-DD AMOUNT [lump|dca]", ErrInvalidInput)
	}

	start, err := time.Parse(time.DateOnly, parts[1])
	if err != nil {
		return SimulationRequest{}, fmt.Errorf("%w: invalid start date %q", ErrInvalidInput, parts[1])
	}
	amount, err := strconv.ParseFloat(strings.TrimPrefix(parts[2], "$"), 64)
	if err != nil || amount <= 0 || !isFinite(amount) {
		return SimulationRequest{}, fmt.Errorf("%w: invalid amount %q", ErrInvalidInput, parts[2])
	}
	strategy := StrategyLumpSum
	if len(parts) == 4 {
		s, ok := ParseStrategy(parts[3])
		if !ok {
			return SimulationRequest{}, fmt.Errorf("%w: unknown strategy %q", ErrInvalidInput, parts[3])
		}
		strategy = s
	}
	return SimulationRequest{Coin: parts[0], StartDate: start, Amount: amount, Strategy: strategy}, nil
}

// ParseCoinList splits a comma or space separated coin list, dropping
// duplicates after alias resolution.
func ParseCoinList(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' })
	seen := map[string]bool{}
	var out []string
	for _, f := range fields {
		sym := ResolveSymbol(f)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, f)
	}
	return out
}
