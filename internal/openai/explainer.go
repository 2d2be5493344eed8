package openai

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// MetricFacts are the computed numbers an explanation is grounded in.
type MetricFacts struct {
	Coin  string
	Days  int
	Facts map[string]string
}

const explainPrompt = `You explain historical crypto metrics to a non-expert in plain language.
Use only the numbers you are given. Structure:

**What it measured:** one sentence.
**What the numbers say:** two or three bullets.
**Caveats:** one bullet on what past data cannot tell.

Never recommend buying or selling.`

// Explain turns computed metrics into a short plain-language note.
func (c *Client) Explain(ctx context.Context, m MetricFacts) (string, error) {
	if len(m.Facts) == 0 {
		return "", fmt.Errorf("explain %s: no metrics", m.Coin)
	}
	return c.complete(ctx, explainPrompt, factsPrompt(m), 500)
}

func factsPrompt(m MetricFacts) string {
	keys := make([]string, 0, len(m.Facts))
	for k := range m.Facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	fmt.Fprintf(&b, "Coin: %s\nWindow: %d days\n", strings.ToUpper(m.Coin), m.Days)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, m.Facts[k])
	}
	return b.String()
}
