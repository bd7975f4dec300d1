package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "Usher API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per URL for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Test URLs covering the supported platforms plus a self-hosted site.
// Replace with live wedding sites before running; platform demo pages go
// stale quickly.
var testURLs = []struct {
	Label string
	URL   string
}{
	{"Zola", "https://www.zola.com/wedding/emma-and-liam"},
	{"TheKnot", "https://www.theknot.com/us/emma-and-liam"},
	{"WithJoy", "https://withjoy.com/emma-and-liam"},
	{"Minted", "https://emmaandliam.minted.us"},
	{"SelfHosted", "https://www.emmaandliam.com"},
}

// --- Request / Response types (mirrors models package) ---

type scrapeRequest struct {
	URL       string `json:"url"`
	Timeout   int    `json:"timeout"`
	SkipCache bool   `json:"skip_cache"`
}

type scrapeResponse struct {
	Success    bool              `json:"success"`
	Platform   string            `json:"platform"`
	Provenance map[string]string `json:"provenance"`
	Warnings   []string          `json:"warnings"`
	Pages      []pageSummary     `json:"pages"`
	Tokens     tokenInfo         `json:"tokens"`
	Timing     timingInfo        `json:"timing"`
	Error      *errorDetail      `json:"error,omitempty"`
}

type pageSummary struct {
	URL     string `json:"url"`
	Kind    string `json:"kind"`
	Via     string `json:"via"`
	Dropped string `json:"dropped,omitempty"`
}

type tokenInfo struct {
	PayloadEstimate  int `json:"payload_estimate"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type timingInfo struct {
	TotalMs       int64 `json:"total_ms"`
	AcquisitionMs int64 `json:"acquisition_ms"`
	SanitizeMs    int64 `json:"sanitize_ms"`
	ExtractionMs  int64 `json:"extraction_ms"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Benchmark result types ---

type runResult struct {
	Run           int    `json:"run"`
	TotalMs       int64  `json:"total_ms"`
	AcquisitionMs int64  `json:"acquisition_ms"`
	SanitizeMs    int64  `json:"sanitize_ms"`
	ExtractionMs  int64  `json:"extraction_ms"`
	PagesKept     int    `json:"pages_kept"`
	BrowserPages  int    `json:"browser_pages"`
	PayloadTokens int    `json:"payload_tokens"`
	FieldsFilled  int    `json:"fields_filled"`
	Warnings      int    `json:"warnings"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
}

type urlAverages struct {
	TotalMs       float64 `json:"total_ms"`
	AcquisitionMs float64 `json:"acquisition_ms"`
	SanitizeMs    float64 `json:"sanitize_ms"`
	ExtractionMs  float64 `json:"extraction_ms"`
	FieldsFilled  float64 `json:"fields_filled"`
}

type urlResult struct {
	URL      string       `json:"url"`
	Label    string       `json:"label"`
	Runs     []runResult  `json:"runs"`
	Averages *urlAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string      `json:"timestamp"`
	APIURL     string      `json:"api_url"`
	RunsPerURL int         `json:"runs_per_url"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	client := &http.Client{Timeout: 320 * time.Second}
	report := benchmarkReport{
		Timestamp:  time.Now().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	for _, tu := range testURLs {
		fmt.Printf("Benchmarking %s (%s)...\n", tu.Label, tu.URL)
		ur := urlResult{URL: tu.URL, Label: tu.Label}

		for i := 1; i <= *runs; i++ {
			rr := scrapeOnce(client, tu.URL, i)
			ur.Runs = append(ur.Runs, rr)
			if rr.Success {
				fmt.Printf("  run %d: %dms (acquire %dms, sanitize %dms, extract %dms)\n",
					i, rr.TotalMs, rr.AcquisitionMs, rr.SanitizeMs, rr.ExtractionMs)
			} else {
				fmt.Printf("  run %d: FAILED: %s\n", i, rr.Error)
			}
		}

		ur.Averages = average(ur.Runs)
		report.Results = append(report.Results, ur)
	}

	printSummary(&report)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal report: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write report: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nReport written to %s\n", *output)
}

// scrapeOnce performs one scrape request and folds the response into a
// run result. skip_cache is always set so every run does real work.
func scrapeOnce(client *http.Client, url string, run int) runResult {
	rr := runResult{Run: run}

	body, err := json.Marshal(scrapeRequest{URL: url, Timeout: 300, SkipCache: true})
	if err != nil {
		rr.Error = err.Error()
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/scrape", bytes.NewReader(body))
	if err != nil {
		rr.Error = err.Error()
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("X-API-Key", *apiKey)
	}

	httpResp, err := client.Do(req)
	if err != nil {
		rr.Error = err.Error()
		return rr
	}
	defer httpResp.Body.Close()

	var resp scrapeResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		rr.Error = fmt.Sprintf("decode response: %v", err)
		return rr
	}

	rr.Success = resp.Success
	rr.TotalMs = resp.Timing.TotalMs
	rr.AcquisitionMs = resp.Timing.AcquisitionMs
	rr.SanitizeMs = resp.Timing.SanitizeMs
	rr.ExtractionMs = resp.Timing.ExtractionMs
	rr.PayloadTokens = resp.Tokens.PayloadEstimate
	rr.FieldsFilled = len(resp.Provenance)
	rr.Warnings = len(resp.Warnings)

	for _, p := range resp.Pages {
		if p.Dropped == "" {
			rr.PagesKept++
		}
		if p.Via == "browser" {
			rr.BrowserPages++
		}
	}

	if resp.Error != nil {
		rr.Error = fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
	}
	return rr
}

// average computes per-URL averages over the successful runs.
func average(runs []runResult) *urlAverages {
	var n int
	var avg urlAverages
	for _, r := range runs {
		if !r.Success {
			continue
		}
		n++
		avg.TotalMs += float64(r.TotalMs)
		avg.AcquisitionMs += float64(r.AcquisitionMs)
		avg.SanitizeMs += float64(r.SanitizeMs)
		avg.ExtractionMs += float64(r.ExtractionMs)
		avg.FieldsFilled += float64(r.FieldsFilled)
	}
	if n == 0 {
		return nil
	}
	avg.TotalMs /= float64(n)
	avg.AcquisitionMs /= float64(n)
	avg.SanitizeMs /= float64(n)
	avg.ExtractionMs /= float64(n)
	avg.FieldsFilled /= float64(n)
	return &avg
}

// printSummary renders the per-URL averages as an aligned table.
func printSummary(report *benchmarkReport) {
	fmt.Println("\n=== Summary (averages over successful runs) ===")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tTOTAL\tACQUIRE\tSANITIZE\tEXTRACT\tFIELDS")
	for _, ur := range report.Results {
		if ur.Averages == nil {
			fmt.Fprintf(w, "%s\tall runs failed\t\t\t\t\n", ur.Label)
			continue
		}
		a := ur.Averages
		fmt.Fprintf(w, "%s\t%.0fms\t%.0fms\t%.0fms\t%.0fms\t%.1f\n",
			ur.Label, a.TotalMs, a.AcquisitionMs, a.SanitizeMs, a.ExtractionMs, a.FieldsFilled)
	}
	w.Flush()
}
