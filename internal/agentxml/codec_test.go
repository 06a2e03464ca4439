package agentxml

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	payload, err := Generate([]string{"https://site.org", "https://news.example.com"}, []string{"economy", "prices"}, now)
	require.NoError(t, err)

	doc := string(payload)
	assert.True(t, strings.HasPrefix(doc, "<?xml"))
	assert.Contains(t, doc, "<scraping_request>")
	assert.Contains(t, doc, "<url>https://site.org</url>")
	assert.Contains(t, doc, "<url>https://news.example.com</url>")
	assert.Contains(t, doc, "<keyword>economy</keyword>")
	assert.Contains(t, doc, "<timestamp>2024-03-20T12:00:00Z</timestamp>")
}

func TestGenerate_RequiresURL(t *testing.T) {
	t.Parallel()

	_, err := Generate(nil, []string{"economy"}, time.Now())
	assert.Error(t, err)
}

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	payload, err := Generate([]string{"https://site.org", "https://other.org"}, []string{"economy", "prices"}, time.Now())
	require.NoError(t, err)

	req, err := Parse(payload)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://site.org", "https://other.org"}, req.URLs())
	assert.Equal(t, []string{"economy", "prices"}, req.Keywords(), "keywords are deduplicated across sites")
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{name: "malformed xml", in: "<scraping_request><site>"},
		{name: "no sites", in: "<scraping_request><timestamp>2024-03-20T12:00:00Z</timestamp></scraping_request>"},
		{name: "site without url", in: "<scraping_request><site><url> </url></site></scraping_request>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.in))
			assert.Error(t, err)
		})
	}
}
