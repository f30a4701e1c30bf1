package scrape

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Traversal bounds for untrusted payloads. Trees decoded by encoding/json
// cannot be cyclic, so the node budget doubles as the loop guard.
const (
	maxWalkDepth = 64
	maxWalkNodes = 100_000
)

var (
	usdPattern        = regexp.MustCompile(`\$[\d.,]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// TokenHit is one extracted token record: a raw amount string paired with a
// USD string, exactly as found in the source.
type TokenHit struct {
	Amount string
	USD    string
}

type frame struct {
	node  any
	depth int
}

// FindUSDNearLabel walks the tree depth-first. An object qualifies when one
// of its string fields contains every label word (normalized, order
// independent); the first dollar-amount string found anywhere inside that
// object wins. Returns false when no object satisfies the label predicate.
func FindUSDNearLabel(tree any, labelWords []string) (string, bool) {
	if tree == nil || len(labelWords) == 0 {
		return "", false
	}

	words := make([]string, len(labelWords))
	for i, w := range labelWords {
		words[i] = strings.ToLower(w)
	}

	budget := maxWalkNodes
	stack := []frame{{node: tree, depth: 0}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.depth > maxWalkDepth {
			continue
		}
		budget--
		if budget < 0 {
			return "", false
		}

		switch node := top.node.(type) {
		case map[string]any:
			for _, key := range sortedKeys(node) {
				if s, ok := node[key].(string); ok && matchesLabel(s, words) {
					if usd, found := findUSDInContainer(node); found {
						return usd, true
					}
					break
				}
			}
			pushChildren(&stack, node, top.depth+1)
		case []any:
			pushSlice(&stack, node, top.depth+1)
		}
	}

	return "", false
}

// FindToken walks the tree depth-first looking for an object whose
// symbol-like field matches the target case-insensitively and which carries
// both an amount-like and a usd-like value. Partially populated objects are
// skipped, not fatal: the walk continues until a fully populated match.
func FindToken(tree any, symbol string) (TokenHit, bool) {
	if tree == nil || symbol == "" {
		return TokenHit{}, false
	}

	budget := maxWalkNodes
	stack := []frame{{node: tree, depth: 0}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.depth > maxWalkDepth {
			continue
		}
		budget--
		if budget < 0 {
			return TokenHit{}, false
		}

		switch node := top.node.(type) {
		case map[string]any:
			if hit, ok := tokenRecordFrom(node, symbol); ok {
				return hit, true
			}
			pushChildren(&stack, node, top.depth+1)
		case []any:
			pushSlice(&stack, node, top.depth+1)
		}
	}

	return TokenHit{}, false
}

var (
	symbolFields = []string{"symbol", "ticker", "name"}
	amountFields = []string{"amount", "balance", "qty"}
	usdFields    = []string{"usd", "usdValue", "valueUsd", "value", "priceUsd"}
)

func tokenRecordFrom(node map[string]any, symbol string) (TokenHit, bool) {
	var candidate string
	for _, field := range symbolFields {
		if s, ok := node[field].(string); ok && s != "" {
			candidate = s
			break
		}
	}
	if candidate == "" || !strings.EqualFold(candidate, symbol) {
		return TokenHit{}, false
	}

	amount, okAmount := firstScalar(node, amountFields)
	usd, okUSD := firstScalar(node, usdFields)
	if !okAmount || !okUSD {
		return TokenHit{}, false
	}

	return TokenHit{Amount: amount, USD: usd}, true
}

func firstScalar(node map[string]any, fields []string) (string, bool) {
	for _, field := range fields {
		value, present := node[field]
		if !present || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			return v, true
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		}
	}
	return "", false
}

// findUSDInContainer searches the enclosing object, not just the matched
// field, for the first dollar-amount string.
func findUSDInContainer(container any) (string, bool) {
	budget := maxWalkNodes
	stack := []frame{{node: container, depth: 0}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.depth > maxWalkDepth {
			continue
		}
		budget--
		if budget < 0 {
			return "", false
		}

		switch node := top.node.(type) {
		case map[string]any:
			pushChildren(&stack, node, top.depth+1)
		case []any:
			pushSlice(&stack, node, top.depth+1)
		case string:
			if m := usdPattern.FindString(node); m != "" {
				return m, true
			}
		}
	}

	return "", false
}

func matchesLabel(s string, words []string) bool {
	norm := whitespacePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
	for _, w := range words {
		if !strings.Contains(norm, w) {
			return false
		}
	}
	return true
}

// sortedKeys pins traversal order; Go map iteration would otherwise make
// "first match wins" nondeterministic across runs.
func sortedKeys(node map[string]any) []string {
	keys := make([]string, 0, len(node))
	for key := range node {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// pushChildren and pushSlice append in reverse so the stack pops children in
// their natural order.
func pushChildren(stack *[]frame, node map[string]any, depth int) {
	keys := sortedKeys(node)
	for i := len(keys) - 1; i >= 0; i-- {
		*stack = append(*stack, frame{node: node[keys[i]], depth: depth})
	}
}

func pushSlice(stack *[]frame, node []any, depth int) {
	for i := len(node) - 1; i >= 0; i-- {
		*stack = append(*stack, frame{node: node[i], depth: depth})
	}
}
