package namestore

import (
	"sort"

	"github.com/antzucaro/matchr"
)

// Link pairs a stored athlete name with a name from an external roster
// (a different platform's spelling of the same player). Correlation is 1
// for exact matches and Jaro-Winkler similarity otherwise.
type Link struct {
	Name        string  `json:"name"`
	External    string  `json:"external"`
	Correlation float64 `json:"correlation"`
}

// LinkNames matches stored names against external ones greedily: exact
// matches are claimed first, then each remaining name takes its most
// similar unclaimed counterpart. Every name gets at most one link.
func LinkNames(names, external []string) []Link {
	var links []Link
	claimed := make(map[string]struct{}, len(external))

	externalSet := make(map[string]struct{}, len(external))
	for _, e := range external {
		externalSet[e] = struct{}{}
	}

	var unmatched []string
	for _, name := range names {
		if _, ok := externalSet[name]; !ok {
			unmatched = append(unmatched, name)
			continue
		}
		if _, taken := claimed[name]; taken {
			unmatched = append(unmatched, name)
			continue
		}
		claimed[name] = struct{}{}
		links = append(links, Link{Name: name, External: name, Correlation: 1})
	}

	for _, name := range unmatched {
		best := ""
		bestScore := 0.0
		for _, e := range external {
			if _, taken := claimed[e]; taken {
				continue
			}
			score := matchr.JaroWinkler(name, e, false)
			if score > bestScore {
				bestScore = score
				best = e
			}
		}
		if bestScore > 0 {
			claimed[best] = struct{}{}
			links = append(links, Link{Name: name, External: best, Correlation: bestScore})
		}
	}

	sort.Slice(links, func(i, j int) bool {
		if links[i].Correlation != links[j].Correlation {
			return links[i].Correlation > links[j].Correlation
		}
		return links[i].Name < links[j].Name
	})
	return links
}
