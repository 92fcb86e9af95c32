package es

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestBuildListingQuery(t *testing.T) {
	q := BuildListingQuery(ListingSearch{Keyword: "deniz manzaralı", Kind: "property", Category: "Konut"})
	raw, err := json.Marshal(q)
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)
	for _, frag := range []string{`"multi_match"`, `"title^3"`, `"deniz manzaralı"`, `"kind"`, `"Konut"`} {
		if !strings.Contains(body, frag) {
			t.Errorf("missing %s in %s", frag, body)
		}
	}

	raw, _ = json.Marshal(BuildListingQuery(ListingSearch{}))
	if !strings.Contains(string(raw), `"match_all"`) || strings.Contains(string(raw), `"filter"`) {
		t.Fatalf("empty search must match all without filters: %s", raw)
	}
}
