package main

import (
	"sort"

	"github.com/liserjrqlxue/DNA/pkg/util"
)

// ReverseComplemented returns a copy of the annotations keyed by the reverse
// complement of each barcode.
func (a Annotations) ReverseComplemented() Annotations {
	rc := make(Annotations, len(a))
	for bc, cluster := range a {
		rc[util.ReverseComplement(bc)] = cluster
	}
	return rc
}

// WithMismatches expands every barcode to all sequences within distance
// substitutions. Exact barcodes keep their own cluster; a variant claimed by
// two different clusters is ambiguous and dropped. Dropped variants are
// returned sorted.
func (a Annotations) WithMismatches(distance int) (expanded Annotations, conflicts []string) {
	if distance <= 0 {
		return a, nil
	}
	expanded = make(Annotations, len(a))
	ambiguous := make(map[string]struct{})

	for bc, cluster := range a {
		for _, variant := range mismatches(bc, distance) {
			if _, exact := a[variant]; exact && variant != bc {
				continue
			}
			if prev, seen := expanded[variant]; seen && prev != cluster {
				ambiguous[variant] = struct{}{}
				continue
			}
			expanded[variant] = cluster
		}
	}
	for variant := range ambiguous {
		delete(expanded, variant)
		conflicts = append(conflicts, variant)
	}
	sort.Strings(conflicts)
	return expanded, conflicts
}

// mismatches
func mismatches(input string, distance int) (out []string) {
	mutations := []rune{'A', 'C', 'G', 'T', 'N'}
	toCheck := []string{input}
	seen := make(map[string]struct{}) // avoid double-counting

	for ; distance >= 0; distance-- {
		nextCheck := make([]string, 0, len(input)*(len(mutations)-1))

		for _, curBC := range toCheck {
			seen[curBC] = struct{}{}
			if distance == 0 {
				continue
			}
			for i, c := range curBC {
				switch c {
				case 'A', 'C', 'G', 'T', 'N':
					for _, replacement := range mutations {
						if replacement == c {
							continue
						}
						newBC := curBC[:i] + string(replacement) + curBC[i+1:]
						if _, alreadySeen := seen[newBC]; !alreadySeen {
							nextCheck = append(nextCheck, newBC)
						}
					}
				default:
					// nothing
				}
			}
		}
		toCheck = nextCheck
	}
	for k := range seen {
		out = append(out, k)
	}
	return out
}
