package export

import (
	"bytes"
	"fmt"
	"math"
	"text/template"
)

// Chart geometry in SVG user units
const (
	chartPlotHeight = 320.0
	chartBarWidth   = 18.0
	chartGroupGap   = 24.0
	chartMarginLeft = 72.0
	chartMarginTop  = 48.0
	chartMarginBot  = 64.0
	chartLegendRow  = 18.0
)

var chartPalette = []string{"#f72a30", "#2a6ff7", "#1fa37a", "#f7a12a", "#8a2af7", "#2ac4f7", "#7a7a7a"}

type chartBar struct {
	X, Y, Width, Height float64
	Color               string
	Title               string
}

type chartLabel struct {
	X, Y float64
	Text string
}

type chartView struct {
	Width, Height float64
	Title         string
	PlotLeft      float64
	PlotTop       float64
	PlotBottom    float64
	PlotRight     float64
	Bars          []chartBar
	QueryLabels   []chartLabel
	Ticks         []chartLabel
	Legend        []chartBar
}

var chartTemplate = template.Must(template.New("chart").Funcs(template.FuncMap{
	"f": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{f .Width}}" height="{{f .Height}}" viewBox="0 0 {{f .Width}} {{f .Height}}" font-family="sans-serif" font-size="12">
<rect width="100%" height="100%" fill="#ffffff"/>
<text x="{{f .PlotLeft}}" y="24" font-size="16" font-weight="bold">{{html .Title}}</text>
<line x1="{{f .PlotLeft}}" y1="{{f .PlotBottom}}" x2="{{f .PlotRight}}" y2="{{f .PlotBottom}}" stroke="#333333"/>
<line x1="{{f .PlotLeft}}" y1="{{f .PlotTop}}" x2="{{f .PlotLeft}}" y2="{{f .PlotBottom}}" stroke="#333333"/>
{{- range .Ticks}}
<text x="{{f .X}}" y="{{f .Y}}" text-anchor="end">{{.Text}}</text>
{{- end}}
{{- range .Bars}}
<rect x="{{f .X}}" y="{{f .Y}}" width="{{f .Width}}" height="{{f .Height}}" fill="{{.Color}}"><title>{{html .Title}}</title></rect>
{{- end}}
{{- range .QueryLabels}}
<text x="{{f .X}}" y="{{f .Y}}" text-anchor="middle">{{html .Text}}</text>
{{- end}}
{{- range .Legend}}
<rect x="{{f .X}}" y="{{f .Y}}" width="{{f .Width}}" height="{{f .Height}}" fill="{{.Color}}"/>
<text x="{{f .X}}" y="{{f .Y}}" dx="16" dy="10">{{html .Title}}</text>
{{- end}}
</svg>
`))

// RenderChart draws a grouped bar chart of mean execution time per query,
// one bar per vendor
func RenderChart(s Summary) ([]byte, error) {
	view := layoutChart(s)
	var buf bytes.Buffer
	if err := chartTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}

func layoutChart(s Summary) chartView {
	// queries in first-seen order across vendors
	var queries []string
	seen := map[string]bool{}
	means := map[string]map[string]float64{}
	maxMean := 0.0
	for _, v := range s.Vendors {
		means[v.Vendor] = map[string]float64{}
		for _, q := range v.Queries {
			if !seen[q.QueryName] {
				seen[q.QueryName] = true
				queries = append(queries, q.QueryName)
			}
			means[v.Vendor][q.QueryName] = q.Mean
			maxMean = math.Max(maxMean, q.Mean)
		}
	}
	if maxMean == 0 {
		maxMean = 1
	}

	groupWidth := float64(max(len(s.Vendors), 1))*chartBarWidth + chartGroupGap
	plotWidth := math.Max(float64(len(queries))*groupWidth, 240)
	legendHeight := float64(len(s.Vendors)) * chartLegendRow

	view := chartView{
		Title:      fmt.Sprintf("%s: mean execution time (s)", s.Benchmark),
		PlotLeft:   chartMarginLeft,
		PlotTop:    chartMarginTop,
		PlotBottom: chartMarginTop + chartPlotHeight,
		PlotRight:  chartMarginLeft + plotWidth,
	}
	view.Width = view.PlotRight + 160
	view.Height = math.Max(view.PlotBottom+chartMarginBot, chartMarginTop+legendHeight+chartMarginBot)

	for i := 0; i <= 4; i++ {
		value := maxMean * float64(i) / 4
		view.Ticks = append(view.Ticks, chartLabel{
			X:    view.PlotLeft - 6,
			Y:    view.PlotBottom - chartPlotHeight*float64(i)/4 + 4,
			Text: fmt.Sprintf("%.3f", value),
		})
	}

	for qi, query := range queries {
		groupLeft := view.PlotLeft + float64(qi)*groupWidth + chartGroupGap/2
		for vi, v := range s.Vendors {
			mean, ok := means[v.Vendor][query]
			if !ok {
				continue
			}
			height := chartPlotHeight * mean / maxMean
			view.Bars = append(view.Bars, chartBar{
				X:      groupLeft + float64(vi)*chartBarWidth,
				Y:      view.PlotBottom - height,
				Width:  chartBarWidth - 2,
				Height: height,
				Color:  chartPalette[vi%len(chartPalette)],
				Title:  fmt.Sprintf("%s query %s: %.4fs", v.Vendor, query, mean),
			})
		}
		view.QueryLabels = append(view.QueryLabels, chartLabel{
			X:    groupLeft + (groupWidth-chartGroupGap)/2,
			Y:    view.PlotBottom + 18,
			Text: query,
		})
	}

	for vi, v := range s.Vendors {
		view.Legend = append(view.Legend, chartBar{
			X:      view.PlotRight + 24,
			Y:      view.PlotTop + float64(vi)*chartLegendRow,
			Width:  12,
			Height: 12,
			Color:  chartPalette[vi%len(chartPalette)],
			Title:  v.Vendor,
		})
	}
	return view
}
