package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scrapeRequest mirrors the Usher API scrape request model.
type scrapeRequest struct {
	URL            string `json:"url"`
	SkipExtraction bool   `json:"skip_extraction,omitempty"`
	SkipCache      bool   `json:"skip_cache,omitempty"`
	Timeout        int    `json:"timeout,omitempty"`
}

// weddingData mirrors the extracted record in API responses.
type weddingData struct {
	Partner1Name string `json:"partner1_name"`
	Partner2Name string `json:"partner2_name"`
	WeddingDate  string `json:"wedding_date"`
	WeddingTime  string `json:"wedding_time"`
	DressCode    string `json:"dress_code"`

	CeremonyVenueName    string `json:"ceremony_venue_name"`
	CeremonyVenueAddress string `json:"ceremony_venue_address"`
	ReceptionVenueName   string `json:"reception_venue_name"`

	Events []struct {
		Name      string `json:"name"`
		Date      string `json:"date"`
		StartTime string `json:"start_time"`
		Venue     string `json:"venue"`
	} `json:"events"`
	Accommodations []struct {
		HotelName     string `json:"hotel_name"`
		BookingURL    string `json:"booking_url"`
		RoomBlockName string `json:"room_block_name"`
		RoomBlockRate string `json:"room_block_rate"`
	} `json:"accommodations"`
	FAQs []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	} `json:"faqs"`

	RegistryURLs []string `json:"registry_urls"`
	RSVPURL      string   `json:"rsvp_url"`
}

// errorDetail mirrors the API error shape.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// scrapeResponse mirrors the Usher API scrape response model.
type scrapeResponse struct {
	Success    bool              `json:"success"`
	SourceURL  string            `json:"source_url"`
	Platform   string            `json:"platform"`
	Data       *weddingData      `json:"data"`
	Provenance map[string]string `json:"provenance"`
	Warnings   []string          `json:"warnings"`
	Error      *errorDetail      `json:"error"`
}

// jobResponse mirrors the async job creation response.
type jobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// jobStatusResponse mirrors the job polling response.
type jobStatusResponse struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Progress int             `json:"progress"`
	Message  string          `json:"message"`
	Result   json.RawMessage `json:"result"`
	Error    *errorDetail    `json:"error"`
}

// importResponse mirrors the import response.
type importResponse struct {
	Success   bool         `json:"success"`
	WeddingID string       `json:"wedding_id"`
	Created   bool         `json:"created"`
	Data      *weddingData `json:"data"`
	Warnings  []string     `json:"warnings"`
	Error     *errorDetail `json:"error"`
}

// mapResponse mirrors the map response.
type mapResponse struct {
	Success  bool   `json:"success"`
	Platform string `json:"platform"`
	Subpages []struct {
		URL  string `json:"url"`
		Kind string `json:"kind"`
	} `json:"subpages"`
	Skipped []string     `json:"skipped"`
	Error   *errorDetail `json:"error"`
}

func main() {
	apiURL := os.Getenv("USHER_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("USHER_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "USHER_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"usher",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeTool := mcp.NewTool("scrape_wedding_site",
		mcp.WithDescription("Scrape a couple's wedding website and return the structured wedding record (partners, date, venues, schedule, hotel blocks, FAQs). Escalates to a stealth headless browser when the site blocks plain HTTP."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the wedding website to scrape"),
		),
		mcp.WithBoolean("skip_extraction",
			mcp.Description("Skip the LLM extraction pass and return only heuristic fields (faster, cheaper, less complete)"),
		),
	)
	s.AddTool(scrapeTool, handleScrape(apiURL, apiKey))

	asyncTool := mcp.NewTool("scrape_wedding_site_async",
		mcp.WithDescription("Scrape a wedding website as a background job and wait for it to finish. Prefer this for bot-hostile platforms where a browser render can take a minute or more."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the wedding website to scrape"),
		),
	)
	s.AddTool(asyncTool, handleScrapeAsync(apiURL, apiKey))

	importTool := mcp.NewTool("import_wedding_site",
		mcp.WithDescription("Scrape a wedding website and persist the extracted record. Re-importing the same site or wedding_id updates the existing record."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the wedding website to import"),
		),
		mcp.WithString("wedding_id",
			mcp.Description("Existing wedding identifier to update; defaults to the normalized site URL"),
		),
	)
	s.AddTool(importTool, handleImport(apiURL, apiKey))

	mapTool := mcp.NewTool("map_wedding_site",
		mcp.WithDescription("Preview which subpages of a wedding website would be scraped (travel, schedule, FAQ, ...) and which are skipped, without extracting anything."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the wedding website to map"),
		),
	)
	s.AddTool(mapTool, handleMap(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleScrape(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 300 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := scrapeRequest{
			URL:            url,
			SkipExtraction: request.GetBool("skip_extraction", false),
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scrape", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
		}

		var resp scrapeResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse scrape response: %v", err)), nil
		}

		return mcp.NewToolResultText(formatScrape(&resp)), nil
	}
}

func handleScrapeAsync(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scrape/async", scrapeRequest{URL: url})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
		}

		var job jobResponse
		if err := json.Unmarshal(respBody, &job); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse job response: %v", err)), nil
		}
		if job.ID == "" {
			return mcp.NewToolResultError("scrape job creation failed"), nil
		}

		resultBody, err := pollJob(ctx, client, apiURL, apiKey, "/api/v1/jobs/"+job.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling scrape job failed: %v", err)), nil
		}

		var status jobStatusResponse
		if err := json.Unmarshal(resultBody, &status); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse job status: %v", err)), nil
		}

		if status.Status == "failed" {
			msg := "scrape job failed"
			if status.Error != nil {
				msg = fmt.Sprintf("[%s] %s", status.Error.Code, status.Error.Message)
			}
			return mcp.NewToolResultError(msg), nil
		}

		var resp scrapeResponse
		if err := json.Unmarshal(status.Result, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse job result: %v", err)), nil
		}

		return mcp.NewToolResultText(formatScrape(&resp)), nil
	}
}

func handleImport(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 300 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := map[string]string{"url": url}
		if weddingID := request.GetString("wedding_id", ""); weddingID != "" {
			payload["wedding_id"] = weddingID
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/import", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("import request failed: %v", err)), nil
		}

		var resp importResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse import response: %v", err)), nil
		}

		if !resp.Success {
			msg := "import failed"
			if resp.Error != nil {
				msg = fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
			}
			return mcp.NewToolResultError(msg), nil
		}

		action := "updated"
		if resp.Created {
			action = "created"
		}
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Wedding record %s: %s\n\n", action, resp.WeddingID))
		sb.WriteString(prettyJSON(resp.Data))
		appendWarnings(&sb, resp.Warnings)

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleMap(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/map", map[string]string{"url": url})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("map request failed: %v", err)), nil
		}

		var resp mapResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse map response: %v", err)), nil
		}

		if !resp.Success {
			msg := "map failed"
			if resp.Error != nil {
				msg = fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
			}
			return mcp.NewToolResultError(msg), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Platform: %s\n\nSubpages to scrape (%d):\n", resp.Platform, len(resp.Subpages)))
		for _, sp := range resp.Subpages {
			sb.WriteString(fmt.Sprintf("  [%s] %s\n", sp.Kind, sp.URL))
		}
		if len(resp.Skipped) > 0 {
			sb.WriteString(fmt.Sprintf("\nSkipped (%d):\n", len(resp.Skipped)))
			for _, u := range resp.Skipped {
				sb.WriteString("  " + u + "\n")
			}
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

// formatScrape renders a scrape response as readable tool output.
func formatScrape(resp *scrapeResponse) string {
	if !resp.Success {
		if resp.Error != nil {
			return fmt.Sprintf("Scrape failed: [%s] %s", resp.Error.Code, resp.Error.Message)
		}
		return "Scrape failed"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Scraped %s (platform: %s)\n\n", resp.SourceURL, resp.Platform))
	sb.WriteString(prettyJSON(resp.Data))
	appendWarnings(&sb, resp.Warnings)
	return sb.String()
}

func appendWarnings(sb *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	sb.WriteString("\n\nWarnings:\n")
	for _, w := range warnings {
		sb.WriteString("  " + w + "\n")
	}
}

func prettyJSON(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("(unrenderable: %v)", err)
	}
	return string(out)
}

// apiPost sends a POST request to the Usher API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollJob polls a job endpoint until status is no longer pending/processing
// or the context is cancelled.
func pollJob(ctx context.Context, client *http.Client, apiURL, apiKey, endpoint string) ([]byte, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+endpoint, nil)
			if err != nil {
				return nil, fmt.Errorf("create request: %w", err)
			}
			req.Header.Set("X-API-Key", apiKey)

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("poll request failed: %w", err)
			}
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read poll response: %w", err)
			}

			var status jobStatusResponse
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll response: %w", err)
			}
			if status.Status != "pending" && status.Status != "processing" {
				return body, nil
			}
		}
	}
}
