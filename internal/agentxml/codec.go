// Package agentxml encodes and decodes the job payload exchanged with
// the external scraping agent.
//
// One job is one top-level <scraping_request> document carrying a
// <site> block per URL and an ISO-8601 <timestamp>.
package agentxml

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// ScrapingRequest is the wire shape of a job payload.
type ScrapingRequest struct {
	XMLName   xml.Name `xml:"scraping_request"`
	Sites     []Site   `xml:"site"`
	Timestamp string   `xml:"timestamp"`
}

// Site pairs one target URL with the keywords to extract for it.
type Site struct {
	URL      string   `xml:"url"`
	Keywords []string `xml:"keywords>keyword"`
}

// Generate builds a scraping_request payload for the given URLs. Every
// site block carries the full keyword list.
func Generate(urls, keywords []string, now time.Time) ([]byte, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("at least one url is required")
	}
	req := ScrapingRequest{
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	for _, u := range urls {
		req.Sites = append(req.Sites, Site{URL: u, Keywords: keywords})
	}
	body, err := xml.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scraping request: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// Parse decodes a scraping_request payload and validates that it names
// at least one site with a non-empty URL.
func Parse(data []byte) (ScrapingRequest, error) {
	var req ScrapingRequest
	if err := xml.Unmarshal(data, &req); err != nil {
		return ScrapingRequest{}, fmt.Errorf("invalid XML format: %w", err)
	}
	if len(req.Sites) == 0 {
		return ScrapingRequest{}, fmt.Errorf("scraping request names no sites")
	}
	for _, site := range req.Sites {
		if strings.TrimSpace(site.URL) == "" {
			return ScrapingRequest{}, fmt.Errorf("scraping request contains a site with no url")
		}
	}
	return req, nil
}

// URLs returns the site URLs named by the request, in document order.
func (r ScrapingRequest) URLs() []string {
	urls := make([]string, 0, len(r.Sites))
	for _, site := range r.Sites {
		urls = append(urls, site.URL)
	}
	return urls
}

// Keywords returns the union of keywords across sites, deduplicated and
// in first-seen order.
func (r ScrapingRequest) Keywords() []string {
	seen := make(map[string]struct{})
	var keywords []string
	for _, site := range r.Sites {
		for _, kw := range site.Keywords {
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			keywords = append(keywords, kw)
		}
	}
	return keywords
}
