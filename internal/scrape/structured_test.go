package scrape

import (
	"encoding/json"
	"strings"
	"testing"
)

func mustTree(t *testing.T, payload string) any {
	t.Helper()
	var tree any
	if err := json.Unmarshal([]byte(payload), &tree); err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return tree
}

func TestFindUSDNearLabel(t *testing.T) {
	tree := mustTree(t, `{
		"props": {
			"stats": [
				{"label": "Total Volume", "value": "$1,000,000"},
				{"label": "Historical Fees Claimed", "value": "$45,230.10"}
			]
		}
	}`)

	usd, found := FindUSDNearLabel(tree, []string{"historical", "fees", "claimed"})
	if !found {
		t.Fatal("label search should find the fees object")
	}
	if usd != "$45,230.10" {
		t.Fatalf("expected $45,230.10, got %q", usd)
	}
}

func TestFindUSDNearLabelWordsOrderIndependent(t *testing.T) {
	tree := mustTree(t, `{"card": {"title": "Fees   Claimed (Historical)", "display": "$12"}}`)

	usd, found := FindUSDNearLabel(tree, []string{"historical", "fees", "claimed"})
	if !found || usd != "$12" {
		t.Fatalf("expected $12 regardless of word order, got %q found=%v", usd, found)
	}
}

func TestFindUSDNearLabelSearchesWholeContainer(t *testing.T) {
	// The dollar amount lives in a sibling subtree of the matched field.
	tree := mustTree(t, `{
		"widget": {
			"name": "historical fees claimed",
			"nested": {"deep": ["noise", {"figure": "$99"}]}
		}
	}`)

	usd, found := FindUSDNearLabel(tree, []string{"historical", "fees", "claimed"})
	if !found || usd != "$99" {
		t.Fatalf("container search should reach sibling subtrees, got %q found=%v", usd, found)
	}
}

func TestFindUSDNearLabelNoMatch(t *testing.T) {
	tree := mustTree(t, `{"a": {"b": "unrelated text", "c": "$5"}}`)

	if _, found := FindUSDNearLabel(tree, []string{"historical", "fees", "claimed"}); found {
		t.Fatal("no object satisfies the label predicate; search must return not-found")
	}
}

func TestFindUSDNearLabelNilTree(t *testing.T) {
	if _, found := FindUSDNearLabel(nil, []string{"fees"}); found {
		t.Fatal("nil tree must return not-found")
	}
}

func TestFindTokenStructured(t *testing.T) {
	tree := mustTree(t, `{
		"holdings": [
			{"symbol": "WETH", "amount": "2.5", "usd": "$5,000"},
			{"symbol": "DRB", "amount": "1,234,567", "usd": "$9,876"}
		]
	}`)

	hit, found := FindToken(tree, "drb")
	if !found {
		t.Fatal("symbol match should be case-insensitive")
	}
	if hit.Amount != "1,234,567" || hit.USD != "$9,876" {
		t.Fatalf("unexpected hit: %+v", hit)
	}
}

func TestFindTokenFieldPriority(t *testing.T) {
	tree := mustTree(t, `{"ticker": "DRB", "balance": 42, "value": "$84"}`)

	hit, found := FindToken(tree, "DRB")
	if !found {
		t.Fatal("ticker/balance/value aliases should match")
	}
	if hit.Amount != "42" || hit.USD != "$84" {
		t.Fatalf("unexpected hit: %+v", hit)
	}
}

func TestFindTokenSkipsPartialMatch(t *testing.T) {
	// The first DRB object lacks a usd-like field; the walk must continue to
	// the fully populated record instead of stopping empty-handed.
	tree := mustTree(t, `{
		"rows": [
			{"symbol": "DRB", "amount": "100"},
			{"symbol": "DRB", "amount": "200", "usd": "$400"}
		]
	}`)

	hit, found := FindToken(tree, "DRB")
	if !found {
		t.Fatal("a later fully-populated match should win")
	}
	if hit.Amount != "200" || hit.USD != "$400" {
		t.Fatalf("expected the complete record, got %+v", hit)
	}
}

func TestFindTokenNullFieldsDoNotCount(t *testing.T) {
	tree := mustTree(t, `{"symbol": "DRB", "amount": null, "usd": "$1"}`)

	if _, found := FindToken(tree, "DRB"); found {
		t.Fatal("null amount must not count as present")
	}
}

func TestWalkDepthBound(t *testing.T) {
	payload := strings.Repeat(`{"next":`, maxWalkDepth+10) + `{"label":"historical fees claimed","value":"$7"}` + strings.Repeat("}", maxWalkDepth+10)
	tree := mustTree(t, payload)

	if _, found := FindUSDNearLabel(tree, []string{"historical", "fees", "claimed"}); found {
		t.Fatal("nodes beyond the depth bound must be unreachable")
	}
}
