// Package report aggregates a run session and renders it as JSON, text,
// Markdown and an HTML presentation.
package report

import (
	"sort"
	"time"

	"billdecoder/internal/document"
	"billdecoder/internal/llm"
	"billdecoder/internal/runner"
)

// NoSuccessfulTests marks aggregates that have no successful results to
// summarize.
const NoSuccessfulTests = "No successful tests"

type Report struct {
	SessionID      string          `json:"session_id"`
	Provider       string          `json:"provider"`
	Model          string          `json:"model"`
	Summary        Summary         `json:"test_summary"`
	Performance    Performance     `json:"performance_metrics"`
	Quality        Quality         `json:"quality_metrics"`
	ByDocumentType []Breakdown     `json:"by_document_type"`
	ByPrompt       []Breakdown     `json:"by_prompt"`
	Tokens         llm.Usage       `json:"token_usage"`
	Results        []runner.Result `json:"detailed_results"`
}

type Summary struct {
	TotalTests      int       `json:"total_tests"`
	SuccessfulTests int       `json:"successful_tests"`
	FailedTests     int       `json:"failed_tests"`
	SuccessRate     float64   `json:"success_rate"`
	TestDate        time.Time `json:"test_date"`
	Duration        float64   `json:"duration_seconds"`
}

// Stats summarizes a series of values.
type Stats struct {
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Performance holds response-time stats in seconds, or Error when nothing
// succeeded.
type Performance struct {
	ResponseTime *Stats `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

type Quality struct {
	Accuracy   *Stats `json:"accuracy,omitempty"`
	Clarity    *Stats `json:"clarity,omitempty"`
	Confidence *Stats `json:"confidence,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Breakdown aggregates the results sharing one document type or prompt.
type Breakdown struct {
	Key             string  `json:"key"`
	Total           int     `json:"total"`
	Successful      int     `json:"successful"`
	SuccessRate     float64 `json:"success_rate"`
	AvgResponseTime float64 `json:"avg_response_time"`
	AvgAccuracy     float64 `json:"avg_accuracy"`
	AvgClarity      float64 `json:"avg_clarity"`
	AvgConfidence   float64 `json:"avg_confidence"`
}

// Build aggregates session into a Report.
func Build(session runner.Session) Report {
	r := Report{
		SessionID: session.ID,
		Provider:  session.Provider,
		Model:     session.Model,
		Results:   session.Results,
	}
	if r.Results == nil {
		r.Results = []runner.Result{}
	}

	var ok []runner.Result
	for _, res := range session.Results {
		if res.Success {
			ok = append(ok, res)
		}
		r.Tokens = r.Tokens.Add(res.Usage)
	}
	r.Summary = Summary{
		TotalTests:      len(session.Results),
		SuccessfulTests: len(ok),
		FailedTests:     len(session.Results) - len(ok),
		SuccessRate:     rate(len(ok), len(session.Results)),
		TestDate:        session.StartedAt,
	}
	if !session.FinishedAt.IsZero() && !session.StartedAt.IsZero() {
		r.Summary.Duration = session.FinishedAt.Sub(session.StartedAt).Seconds()
	}

	if len(ok) == 0 {
		r.Performance.Error = NoSuccessfulTests
		r.Quality.Error = NoSuccessfulTests
	} else {
		r.Performance.ResponseTime = statsOf(ok, func(res runner.Result) float64 { return res.ResponseTime })
		r.Quality.Accuracy = statsOf(ok, func(res runner.Result) float64 { return res.Scores.Accuracy })
		r.Quality.Clarity = statsOf(ok, func(res runner.Result) float64 { return res.Scores.Clarity })
		r.Quality.Confidence = statsOf(ok, func(res runner.Result) float64 { return res.Scores.Confidence })
	}

	r.ByDocumentType = breakdown(session.Results, documentTypeOrder, func(res runner.Result) string { return string(res.DocumentType) })
	r.ByPrompt = breakdown(session.Results, nil, func(res runner.Result) string { return res.PromptType })
	return r
}

// Results in document-type order put known types first, in matrix order.
var documentTypeOrder = func() map[string]int {
	order := make(map[string]int)
	for i, t := range document.Types() {
		order[string(t)] = i
	}
	return order
}()

func breakdown(results []runner.Result, order map[string]int, key func(runner.Result) string) []Breakdown {
	groups := make(map[string][]runner.Result)
	for _, res := range results {
		k := key(res)
		groups[k] = append(groups[k], res)
	}
	out := make([]Breakdown, 0, len(groups))
	for k, group := range groups {
		b := Breakdown{Key: k, Total: len(group)}
		var rt, acc, cl, conf float64
		for _, res := range group {
			if !res.Success {
				continue
			}
			b.Successful++
			rt += res.ResponseTime
			acc += res.Scores.Accuracy
			cl += res.Scores.Clarity
			conf += res.Scores.Confidence
		}
		b.SuccessRate = rate(b.Successful, b.Total)
		if b.Successful > 0 {
			n := float64(b.Successful)
			b.AvgResponseTime, b.AvgAccuracy, b.AvgClarity, b.AvgConfidence = rt/n, acc/n, cl/n, conf/n
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, iok := order[out[i].Key]
		oj, jok := order[out[j].Key]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return out[i].Key < out[j].Key
		}
	})
	return out
}

func statsOf(results []runner.Result, value func(runner.Result) float64) *Stats {
	values := make([]float64, 0, len(results))
	var sum float64
	for _, res := range results {
		v := value(res)
		values = append(values, v)
		sum += v
	}
	sort.Float64s(values)
	n := len(values)
	median := values[n/2]
	if n%2 == 0 {
		median = (values[n/2-1] + values[n/2]) / 2
	}
	return &Stats{Average: sum / float64(n), Median: median, Min: values[0], Max: values[n-1]}
}

// rate returns part/total as a percentage.
func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
