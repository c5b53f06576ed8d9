package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const extractionSystemPrompt = "You extract funding opportunities for Zambian small businesses from web page text. You only respond with valid JSON."

// ExtractRequest describes one cleaned page.
type ExtractRequest struct {
	Source string
	URL    string
	Text   string
	Today  time.Time
}

// ExtractedOpportunity is the raw model output before normalization. Amounts
// and dates are kept as text since models format them inconsistently.
type ExtractedOpportunity struct {
	Title       string   `json:"title"`
	Funder      string   `json:"funder"`
	Description string   `json:"description"`
	Kind        string   `json:"kind"`
	Sectors     []string `json:"sectors"`
	AmountMin   any      `json:"amount_min"`
	AmountMax   any      `json:"amount_max"`
	Currency    string   `json:"currency"`
	Deadline    string   `json:"deadline"`
	URL         string   `json:"url"`
	Eligibility string   `json:"eligibility"`
}

type extractionPayload struct {
	Opportunities []ExtractedOpportunity `json:"opportunities"`
}

func buildExtractionPrompt(req ExtractRequest) string {
	today := req.Today
	if today.IsZero() {
		today = time.Now()
	}
	sb := &strings.Builder{}
	sb.WriteString("Respond strictly with JSON matching this schema: ")
	sb.WriteString(`{"opportunities":[{"title":string,"funder":string,"description":string,"kind":"grant"|"loan"|"equity"|"competition"|"other","sectors":string[],"amount_min":number|null,"amount_max":number|null,"currency":string,"deadline":"YYYY-MM-DD"|null,"url":string,"eligibility":string}]}`)
	fmt.Fprintf(sb, ". Today is %s. Only include opportunities open to businesses in Zambia. Use absolute URLs where possible, otherwise relative to %q. If the page lists none, return {\"opportunities\":[]}.", today.Format("2006-01-02"), req.URL)
	fmt.Fprintf(sb, "\nSource: %s\nPage text:\n%s", req.Source, req.Text)
	return sb.String()
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

func parseModelPayload[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
