package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

// searchResult is one normalized hit, whichever provider produced it.
type searchResult struct {
	Title   string
	URL     string
	Snippet string
}

// formatSearchResults renders a provider's raw JSON into a numbered
// human-readable list. Both provider shapes are tried: Google CSE's
// items[].{title,link,snippet} and Brave's web.results[].{title,url,
// description}. Unrecognized JSON renders as nothing rather than an
// error; formatting here is best-effort, the tool path always carries the
// raw JSON.
func formatSearchResults(body []byte, max int) string {
	results := parseGoogleResults(body)
	if len(results) == 0 {
		results = parseBraveResults(body)
	}
	if len(results) == 0 {
		return ""
	}
	if max > 0 && len(results) > max {
		results = results[:max]
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		if r.URL != "" {
			fmt.Fprintf(&b, "   %s\n", r.URL)
		}
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", strings.TrimSpace(r.Snippet))
		}
	}
	return b.String()
}

func parseGoogleResults(body []byte) []searchResult {
	var doc struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil
	}
	results := make([]searchResult, 0, len(doc.Items))
	for _, item := range doc.Items {
		if item.Title == "" && item.Link == "" {
			continue
		}
		results = append(results, searchResult{Title: item.Title, URL: item.Link, Snippet: item.Snippet})
	}
	return results
}

func parseBraveResults(body []byte) []searchResult {
	var doc struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil
	}
	results := make([]searchResult, 0, len(doc.Web.Results))
	for _, item := range doc.Web.Results {
		if item.Title == "" && item.URL == "" {
			continue
		}
		results = append(results, searchResult{Title: item.Title, URL: item.URL, Snippet: item.Description})
	}
	return results
}
