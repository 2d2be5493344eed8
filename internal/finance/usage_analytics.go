package finance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"coindash/internal/storage"

	"github.com/vicanso/go-charts/v2"
)

// MakeUsageChart renders the per-category request distribution as a pie chart.
func MakeUsageChart(stats map[string]*storage.UsageStats, days int) ([]byte, error) {
	if len(stats) == 0 {
		return nil, fmt.Errorf("%w: no usage data", ErrDataUnavailable)
	}
	categories := sortedCategories(stats)

	total := 0
	values := make([]float64, 0, len(categories))
	for _, c := range categories {
		values = append(values, float64(stats[c].Count))
		total += stats[c].Count
	}
	labels := make([]string, len(categories))
	for i, c := range categories {
		labels[i] = fmt.Sprintf("%s (%.1f%%)", c, values[i]/float64(total)*100)
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Endpoint Usage (%d days)", days)),
		charts.LegendOptionFunc(charts.LegendOption{Data: labels, Top: charts.PositionTop}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// MakeUsageTimeSeriesChart renders one line per category over the bucketed window.
func MakeUsageTimeSeriesChart(series map[string][]storage.TimeSeriesPoint, days int) ([]byte, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no usage data", ErrDataUnavailable)
	}
	seen := map[int64]bool{}
	var stamps []int64
	for _, pts := range series {
		for _, p := range pts {
			if !seen[p.Timestamp] {
				seen[p.Timestamp] = true
				stamps = append(stamps, p.Timestamp)
			}
		}
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	layout := "01/02"
	switch {
	case days <= 1:
		layout = "15:04"
	case days <= 7:
		layout = "Mon 15:04"
	}
	xAxis := make([]string, len(stamps))
	for i, ts := range stamps {
		xAxis[i] = time.Unix(ts, 0).UTC().Format(layout)
	}

	names := make([]string, 0, len(series))
	for c := range series {
		names = append(names, c)
	}
	sort.Strings(names)
	values := make([][]float64, 0, len(names))
	for _, c := range names {
		byTS := make(map[int64]int, len(series[c]))
		for _, p := range series[c] {
			byTS[p.Timestamp] = p.Count
		}
		row := make([]float64, len(stamps))
		for i, ts := range stamps {
			row[i] = float64(byTS[ts])
		}
		values = append(values, row)
	}

	p, err := charts.LineRender(
		values,
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xAxis}),
		charts.TitleTextOptionFunc(fmt.Sprintf("Endpoint Usage Over Time (%d days)", days)),
		charts.LegendOptionFunc(charts.LegendOption{Data: names, Top: charts.PositionTop}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// FormatUsageText summarizes usage as plain text, top 5 commands per category.
func FormatUsageText(stats map[string]*storage.UsageStats, days int) string {
	if len(stats) == 0 {
		return "No usage data available for the specified period."
	}
	categories := sortedCategories(stats)
	total := 0
	for _, c := range categories {
		total += stats[c].Count
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Usage (%d days)\nTotal requests: %d\n\n", days, total)
	for _, c := range categories {
		st := stats[c]
		fmt.Fprintf(&b, "%s: %d (%.1f%%)\n", c, st.Count, float64(st.Count)/float64(total)*100)

		type cmdCount struct {
			cmd   string
			count int
		}
		cmds := make([]cmdCount, 0, len(st.Commands))
		for cmd, n := range st.Commands {
			cmds = append(cmds, cmdCount{cmd, n})
		}
		sort.Slice(cmds, func(i, j int) bool {
			if cmds[i].count != cmds[j].count {
				return cmds[i].count > cmds[j].count
			}
			return cmds[i].cmd < cmds[j].cmd
		})
		for i, cc := range cmds {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "  • %s: %d\n", cc.cmd, cc.count)
		}
	}
	return b.String()
}

func sortedCategories(stats map[string]*storage.UsageStats) []string {
	out := make([]string, 0, len(stats))
	for c := range stats {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
