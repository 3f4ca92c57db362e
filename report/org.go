package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"
)

var orgFuncs = template.FuncMap{
	"money": Money,
	"pct":   Pct,
	"ratio": ratio,
	"keys":  sortedKeys,
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var orgTemplate = template.Must(template.New("run").Funcs(orgFuncs).Parse(OrgTemplate))

// WriteOrg renders s as an org-mode entry for a research log.
func WriteOrg(w io.Writer, s Summary) error {
	if err := orgTemplate.Execute(w, s); err != nil {
		return fmt.Errorf("render org report: %w", err)
	}
	return nil
}

// WriteOrgFile renders s to path, replacing any existing file.
func WriteOrgFile(path string, s Summary) error {
	var buf bytes.Buffer
	if err := WriteOrg(&buf, s); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write org report: %w", err)
	}
	return nil
}

const OrgTemplate = `* SIMULATION: {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:START_BAL:   {{money .InitialCapital}}
:END_BAL:     {{money .FinalBalance}}
:NET_PL:      {{money .Metrics.NetProfit}}
:RETURN_PCT:  {{pct .Metrics.TotalReturn}}
:MAX_DD_PCT:  {{pct .Metrics.MaxDrawdown}}
:TRADES:      {{.Metrics.TotalTrades}}
:WINS:        {{.Metrics.WinningTrades}}
:LOSSES:      {{.Metrics.LosingTrades}}
:SHARPE:      {{ratio .Metrics.SharpeRatio}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Net P/L:          *{{money .Metrics.NetProfit}}*
- Return:           *{{pct .Metrics.TotalReturn}}*
- Annualized:       *{{pct .Metrics.AnnualizedReturn}}*
- Max Drawdown:     *{{pct .Metrics.MaxDrawdown}}*
- Win Rate:         *{{pct .Metrics.WinRate}}*
- Profit Factor:    *{{ratio .Metrics.ProfitFactor}}*
- Sortino:          *{{ratio .Metrics.SortinoRatio}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Metrics.WinningTrades}} |
| Losses  | {{.Metrics.LosingTrades}} |
| Total   | {{.Metrics.TotalTrades}} |

{{- if .Metrics.MonthlyReturns }}

** Monthly Returns
| Month | Return |
|-------+--------|
{{- range $k := keys .Metrics.MonthlyReturns }}
| {{$k}} | {{pct (index $.Metrics.MonthlyReturns $k)}} |
{{- end }}
{{- end }}

{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
