package funding

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"wathaci/internal/domain"
	"wathaci/internal/providers/openai"
)

// ErrRejected marks an extracted opportunity that failed validation.
var ErrRejected = errors.New("opportunity rejected")

var kinds = map[string]bool{"grant": true, "loan": true, "equity": true, "competition": true, "other": true}

var deadlineLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"2006-01-02T15:04:05Z07:00",
}

var ordinalSuffix = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)

// Normalize turns one model result into a stored opportunity, resolving the
// URL against pageURL. Opportunities without a title or whose deadline is
// before today are rejected.
func Normalize(raw openai.ExtractedOpportunity, source, pageURL string, today time.Time) (*domain.FundingOpportunity, error) {
	title := strings.Join(strings.Fields(raw.Title), " ")
	if title == "" {
		return nil, fmt.Errorf("%w: missing title", ErrRejected)
	}
	title = cases.Title(language.English, cases.NoLower).String(title)

	link, err := resolveURL(raw.URL, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRejected, title, err)
	}

	opp := &domain.FundingOpportunity{
		Title:       title,
		Funder:      strings.Join(strings.Fields(raw.Funder), " "),
		Description: strings.TrimSpace(raw.Description),
		Kind:        strings.ToLower(strings.TrimSpace(raw.Kind)),
		Sectors:     normalizeSectors(raw.Sectors),
		AmountMin:   parseAmount(raw.AmountMin),
		AmountMax:   parseAmount(raw.AmountMax),
		Currency:    strings.ToUpper(strings.TrimSpace(raw.Currency)),
		URL:         link,
		Source:      source,
		Eligibility: strings.TrimSpace(raw.Eligibility),
	}
	if !kinds[opp.Kind] {
		opp.Kind = "other"
	}
	if opp.AmountMin != nil && opp.AmountMax != nil && *opp.AmountMin > *opp.AmountMax {
		opp.AmountMin, opp.AmountMax = opp.AmountMax, opp.AmountMin
	}
	if len(opp.Currency) != 3 {
		opp.Currency = ""
	}
	if opp.Currency == "" && (opp.AmountMin != nil || opp.AmountMax != nil) {
		opp.Currency = "ZMW"
	}

	if d, ok := parseDeadline(raw.Deadline); ok {
		day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		if d.Before(day) {
			return nil, fmt.Errorf("%w: %s: deadline %s has passed", ErrRejected, title, d.Format("2006-01-02"))
		}
		opp.Deadline = &d
	}
	opp.Hash = Hash(opp.Title, opp.URL)
	return opp, nil
}

// Hash identifies an opportunity across crawls.
func Hash(title, link string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(title) + "|" + link))
	return hex.EncodeToString(sum[:])
}

func resolveURL(raw, pageURL string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = pageURL
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q", raw)
	}
	if base, err := url.Parse(pageURL); err == nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" || ref.Host == "" {
		return "", fmt.Errorf("url %q is not http(s)", raw)
	}
	ref.Fragment = ""
	return ref.String(), nil
}

func normalizeSectors(in []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, s := range in {
		s = strings.ToLower(strings.Join(strings.Fields(s), " "))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// parseDeadline accepts the date layouts models commonly emit. Empty, null
// and unparseable values mean no deadline.
func parseDeadline(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "null") {
		return time.Time{}, false
	}
	raw = ordinalSuffix.ReplaceAllString(raw, "$1")
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

var amountPattern = regexp.MustCompile(`(?i)([0-9][0-9,]*(?:\.[0-9]+)?)\s*(k|thousand|m|mn|million|bn|billion)?\b`)

// parseAmount reads a whole currency amount from a JSON number or text such
// as "K50,000" or "ZMW 1.5 million".
func parseAmount(v any) *int64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		m := amountPattern.FindStringSubmatch(x)
		if m == nil {
			return nil
		}
		n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			return nil
		}
		switch strings.ToLower(m[2]) {
		case "k", "thousand":
			n *= 1e3
		case "m", "mn", "million":
			n *= 1e6
		case "bn", "billion":
			n *= 1e9
		}
		f = n
	default:
		return nil
	}
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64/2 {
		return nil
	}
	out := int64(math.Round(f))
	return &out
}
