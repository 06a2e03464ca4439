package etl

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Djennat/web-scraping/internal/metrics"
	"github.com/Djennat/web-scraping/internal/scraping"
)

// Transformer validates raw scrape records and produces canonical
// results. Validation failures reject the record; a malformed date only
// warns.
type Transformer struct {
	clock  scraping.Clock
	logger *zap.Logger
}

// NewTransformer constructs a Transformer.
func NewTransformer(clock scraping.Clock, logger *zap.Logger) *Transformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transformer{clock: clock, logger: logger}
}

// Transform normalizes one raw record into its canonical form.
//
// The canonical result carries a singleton bare-domain website list and
// a singleton keyword list, and is timestamped with the current time
// since the agent protocol supplies no scrape time.
func (t *Transformer) Transform(raw scraping.RawScrapeRecord) (scraping.Result, error) {
	missing := missingRequiredFields(raw)
	if len(missing) > 0 {
		t.logger.Error("raw record missing required fields",
			zap.Strings("missing_fields", missing))
		metrics.ObserveTransform("rejected")
		return scraping.Result{}, &scraping.ValidationError{MissingFields: missing}
	}

	content := CleanText(raw.Content)

	domain, ok := ExtractDomain(strings.TrimSpace(raw.URL))
	if !ok {
		t.logger.Error("could not extract domain from URL", zap.String("url", raw.URL))
		metrics.ObserveTransform("rejected")
		return scraping.Result{}, &scraping.ValidationError{Reason: "could not extract domain from URL"}
	}

	date, dateValid := FormatDate(strings.TrimSpace(raw.Date))
	if date != "" && !dateValid {
		t.logger.Warn("invalid date format, keeping original", zap.String("date", raw.Date))
	}

	count := raw.CharacterCount
	if count <= 0 {
		count = utf8.RuneCountInString(content)
	}

	result := scraping.Result{
		UserID:      strings.TrimSpace(raw.UserID),
		RequestID:   strings.TrimSpace(raw.RequestID),
		WebsiteURLs: []string{domain},
		Keywords:    []string{strings.TrimSpace(raw.Keyword)},
		Fields: scraping.ResultFields{
			Title:          CleanText(raw.Title),
			Content:        content,
			Date:           date,
			Authors:        CleanText(raw.Authors),
			CharacterCount: count,
			DateValid:      dateValid,
		},
		ScrapedAt: t.clock.Now(),
	}

	t.logger.Debug("transformed raw record", zap.String("url", raw.URL), zap.String("domain", domain))
	metrics.ObserveTransform("succeeded")
	return result, nil
}

// TransformBatch applies Transform to each record independently and
// silently drops failures, returning only the successes.
func (t *Transformer) TransformBatch(raws []scraping.RawScrapeRecord) []scraping.Result {
	results := make([]scraping.Result, 0, len(raws))
	for _, raw := range raws {
		result, err := t.Transform(raw)
		if err != nil {
			continue
		}
		results = append(results, result)
	}
	t.logger.Info("transformed batch",
		zap.Int("attempted", len(raws)),
		zap.Int("succeeded", len(results)))
	return results
}

func missingRequiredFields(raw scraping.RawScrapeRecord) []string {
	var missing []string
	if strings.TrimSpace(raw.URL) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(raw.Keyword) == "" {
		missing = append(missing, "keyword")
	}
	if strings.TrimSpace(raw.Content) == "" {
		missing = append(missing, "content")
	}
	return missing
}
