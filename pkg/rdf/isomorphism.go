package rdf

import (
	"fmt"
	"sort"
	"strings"
)

// Isomorphic reports whether two graphs are equal up to blank node
// relabelling, looking inside formulas as well.
func Isomorphic(a, b *Graph) bool {
	return AreGraphsIsomorphic(a.triples, b.triples)
}

// AreGraphsIsomorphic checks if two sets of triples are isomorphic,
// accounting for blank node label differences.
// Two graphs are isomorphic if there exists a bijection between their
// blank nodes such that when applied, the graphs are identical.
func AreGraphsIsomorphic(expected, actual []*Triple) bool {
	// Quick check: same number of triples
	if len(expected) != len(actual) {
		return false
	}

	expectedBlanks := extractBlankNodeLabels(expected)
	actualBlanks := extractBlankNodeLabels(actual)

	if len(expectedBlanks) != len(actualBlanks) {
		return false
	}

	actualSet := make(map[string]bool, len(actual))
	for _, triple := range actual {
		actualSet[tripleKey(triple, nil)] = true
	}

	// If no blank nodes, use simple comparison
	if len(expectedBlanks) == 0 {
		return verifyMapping(expected, actualSet, nil)
	}

	// Match high-degree nodes first
	expectedBlanks = sortByDegree(expectedBlanks, expected)
	actualBlanks = sortByDegree(actualBlanks, actual)

	mapping := make(map[string]string)
	usedTargets := make(map[string]bool)
	return backtrack(expected, actualSet, expectedBlanks, actualBlanks, mapping, usedTargets, 0)
}

// blankKey identifies a blank node across scopes
func blankKey(b *BlankNode) string {
	return b.Scope + "#" + b.ID
}

// extractBlankNodeLabels extracts all unique blank nodes from a set of triples
func extractBlankNodeLabels(triples []*Triple) []string {
	blanks := make(map[string]bool)
	for _, triple := range triples {
		extractBlanksFromTerm(triple.Subject, blanks)
		extractBlanksFromTerm(triple.Object, blanks)
	}

	result := make([]string, 0, len(blanks))
	for label := range blanks {
		result = append(result, label)
	}
	sort.Strings(result)
	return result
}

// extractBlanksFromTerm collects blank nodes from a term, descending into formulas
func extractBlanksFromTerm(term Term, blanks map[string]bool) {
	switch t := term.(type) {
	case *BlankNode:
		blanks[blankKey(t)] = true
	case *Formula:
		for _, inner := range t.graph.triples {
			extractBlanksFromTerm(inner.Subject, blanks)
			extractBlanksFromTerm(inner.Object, blanks)
		}
	}
}

func countBlanksInTerm(term Term, degrees map[string]int) {
	switch t := term.(type) {
	case *BlankNode:
		degrees[blankKey(t)]++
	case *Formula:
		for _, inner := range t.graph.triples {
			countBlanksInTerm(inner.Subject, degrees)
			countBlanksInTerm(inner.Object, degrees)
		}
	}
}

// sortByDegree sorts blank nodes by the number of times they occur
func sortByDegree(blanks []string, triples []*Triple) []string {
	degrees := make(map[string]int)
	for _, triple := range triples {
		countBlanksInTerm(triple.Subject, degrees)
		countBlanksInTerm(triple.Object, degrees)
	}

	sort.SliceStable(blanks, func(i, j int) bool {
		return degrees[blanks[i]] > degrees[blanks[j]]
	})
	return blanks
}

// backtrack recursively tries to find a valid mapping between blank nodes
func backtrack(expected []*Triple, actualSet map[string]bool, expectedBlanks, actualBlanks []string,
	mapping map[string]string, usedTargets map[string]bool, index int) bool {

	if index == len(expectedBlanks) {
		return verifyMapping(expected, actualSet, mapping)
	}

	currentBlank := expectedBlanks[index]

	for _, candidateBlank := range actualBlanks {
		if usedTargets[candidateBlank] {
			continue
		}

		mapping[currentBlank] = candidateBlank
		usedTargets[candidateBlank] = true

		if isConsistentSoFar(expected, actualSet, mapping) {
			if backtrack(expected, actualSet, expectedBlanks, actualBlanks, mapping, usedTargets, index+1) {
				return true
			}
		}

		delete(mapping, currentBlank)
		delete(usedTargets, candidateBlank)
	}

	return false
}

// isTermFullyMapped checks if all blank nodes in a term are mapped
func isTermFullyMapped(term Term, mapping map[string]string) bool {
	switch t := term.(type) {
	case *BlankNode:
		_, exists := mapping[blankKey(t)]
		return exists
	case *Formula:
		for _, inner := range t.graph.triples {
			if !isTermFullyMapped(inner.Subject, mapping) || !isTermFullyMapped(inner.Object, mapping) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// isConsistentSoFar prunes the search: every triple whose blank nodes are
// all mapped must already exist in the other graph.
func isConsistentSoFar(expected []*Triple, actualSet map[string]bool, mapping map[string]string) bool {
	for _, triple := range expected {
		if isTermFullyMapped(triple.Subject, mapping) && isTermFullyMapped(triple.Object, mapping) {
			if !actualSet[tripleKey(triple, mapping)] {
				return false
			}
		}
	}
	return true
}

// verifyMapping checks if the given mapping makes the graphs identical
func verifyMapping(expected []*Triple, actualSet map[string]bool, mapping map[string]string) bool {
	expectedMapped := make(map[string]bool, len(expected))
	for _, triple := range expected {
		key := tripleKey(triple, mapping)
		if !actualSet[key] {
			return false
		}
		expectedMapped[key] = true
	}
	return len(expectedMapped) == len(actualSet)
}

// tripleKey creates a string key for a triple, applying blank node mapping if provided
func tripleKey(triple *Triple, mapping map[string]string) string {
	subject := termString(triple.Subject, mapping)
	predicate := termString(triple.Predicate, mapping)
	object := termString(triple.Object, mapping)
	return fmt.Sprintf("%s|%s|%s", subject, predicate, object)
}

// termString converts a term to an identity string, applying the blank
// node mapping if one is given
func termString(term Term, mapping map[string]string) string {
	switch t := term.(type) {
	case *BlankNode:
		key := blankKey(t)
		if mapped, exists := mapping[key]; exists {
			return "_:" + mapped
		}
		return "_:" + key
	case *Literal:
		if t.Language != "" {
			return fmt.Sprintf(`"%s"@%s`, EscapeString(t.Value), strings.ToLower(t.Language))
		}
		return fmt.Sprintf(`"%s"^^<%s>`, EscapeString(t.Value), t.DatatypeIRI())
	case *Variable:
		return fmt.Sprintf("?%s<%s>%d", t.Name, t.IRI, t.Quantifier)
	case *Formula:
		if mapping == nil && t.key != "" {
			return t.key
		}
		return formulaKey(t, mapping)
	default:
		return term.String()
	}
}

// formulaKey renders a formula independent of triple order
func formulaKey(f *Formula, mapping map[string]string) string {
	keys := make([]string, 0, len(f.graph.triples))
	for _, t := range f.graph.triples {
		keys = append(keys, tripleKey(t, mapping))
	}
	sort.Strings(keys)
	vars := make([]string, 0, len(f.universals)+len(f.existentials))
	for _, v := range f.universals {
		vars = append(vars, termString(v, nil))
	}
	for _, v := range f.existentials {
		vars = append(vars, termString(v, nil))
	}
	sort.Strings(vars)
	return "{" + strings.Join(keys, " . ") + " @ " + strings.Join(vars, " ") + "}"
}
