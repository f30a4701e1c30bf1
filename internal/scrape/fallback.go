package scrape

import (
	"regexp"
	"strings"
)

// fallbackWindow bounds the text slice inspected around a located symbol.
const fallbackWindow = 1500

var bareNumberPattern = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)

// ExtractNear scans raw page text for a symbol-adjacent amount/usd pair.
// The first whole-word occurrence of the symbol anchors a bounded window;
// inside it the first dollar amount and the first bare number (one not
// prefixed with $) must both appear, or there is no result at all.
func ExtractNear(html, symbol string) (TokenHit, bool) {
	if symbol == "" {
		return TokenHit{}, false
	}

	symbolPattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(symbol) + `\b`)
	if err != nil {
		return TokenHit{}, false
	}

	loc := symbolPattern.FindStringIndex(html)
	if loc == nil {
		return TokenHit{}, false
	}

	start := loc[0] - fallbackWindow
	if start < 0 {
		start = 0
	}
	end := loc[1] + fallbackWindow
	if end > len(html) {
		end = len(html)
	}
	window := html[start:end]

	usd := usdPattern.FindString(window)
	amount := firstBareNumber(window)
	if usd == "" || amount == "" {
		return TokenHit{}, false
	}

	return TokenHit{Amount: amount, USD: usd}, true
}

// ExtractLabeledUSD matches a dollar amount immediately preceding the label
// phrase, whitespace and newlines allowed in between.
func ExtractLabeledUSD(html, labelPhrase string) (string, bool) {
	words := strings.Fields(labelPhrase)
	if len(words) == 0 {
		return "", false
	}

	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	pattern, err := regexp.Compile(`(?i)(\$[\d.,]+)\s*[\r\n\s]*` + strings.Join(words, `\s+`))
	if err != nil {
		return "", false
	}

	m := pattern.FindStringSubmatch(html)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func firstBareNumber(window string) string {
	for _, loc := range bareNumberPattern.FindAllStringIndex(window, -1) {
		if loc[0] > 0 && window[loc[0]-1] == '$' {
			continue
		}
		return window[loc[0]:loc[1]]
	}
	return ""
}
