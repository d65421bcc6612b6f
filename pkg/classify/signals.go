package classify

import (
	"fmt"
	"net/url"
	"strings"
)

// Confidence assigned to structure matches. Path segments are more specific
// than breadcrumb labels, so they score higher.
const (
	structurePathConfidence       = 0.85
	structureBreadcrumbConfidence = 0.8
)

// structureSignal inspects URL path segments and breadcrumb labels against
// the structure lexicon. Deterministic and free.
func structureSignal(input Input) *Signal {
	sig := &Signal{Source: SourceStructure}

	for _, seg := range urlPathSegments(input.URL) {
		if cat, ok := structureLexicon[seg]; ok && sig.Category == "" {
			sig.Category = cat
			sig.Confidence = structurePathConfidence
			sig.Evidence = append(sig.Evidence, fmt.Sprintf("url segment %q", seg))
		}
		if dom, ok := structureDomainLexicon[seg]; ok && sig.Domain == "" {
			sig.Domain = dom
			sig.Evidence = append(sig.Evidence, fmt.Sprintf("url segment %q", seg))
		}
	}

	for _, crumb := range input.Breadcrumbs {
		label := normalizeToken(crumb)
		if cat, ok := structureLexicon[label]; ok && sig.Category == "" {
			sig.Category = cat
			sig.Confidence = structureBreadcrumbConfidence
			sig.Evidence = append(sig.Evidence, fmt.Sprintf("breadcrumb %q", crumb))
		}
		if dom, ok := structureDomainLexicon[label]; ok && sig.Domain == "" {
			sig.Domain = dom
			sig.Evidence = append(sig.Evidence, fmt.Sprintf("breadcrumb %q", crumb))
		}
	}

	if sig.Category == "" && sig.Domain == "" {
		return nil
	}
	return sig
}

// keywordSignal scans the text for bilingual legal vocabulary. Confidence
// scales with how many distinct terms match and how often they occur.
func keywordSignal(input Input) *Signal {
	text := strings.ToLower(input.Text)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	bestCat, catHits, catEvidence := bestKeywordMatch(text, keywordLexicon)
	bestDom, _, domEvidence := bestKeywordMatch(text, domainLexicon)

	if bestCat == "" && bestDom == "" {
		return nil
	}

	sig := &Signal{
		Source:   SourceKeywords,
		Category: bestCat,
		Domain:   bestDom,
		Evidence: append(catEvidence, domEvidence...),
	}
	if bestCat != "" {
		sig.Confidence = keywordConfidence(catHits)
	}
	return sig
}

// bestKeywordMatch returns the key with the highest weighted hit count.
// Distinct terms weigh more than repeated occurrences of one term.
func bestKeywordMatch[K ~string](text string, lexicon map[K][]string) (K, float64, []string) {
	var best K
	var bestScore float64
	var bestEvidence []string

	for key, terms := range lexicon {
		var score float64
		var evidence []string
		for _, term := range terms {
			n := strings.Count(text, strings.ToLower(term))
			if n == 0 {
				continue
			}
			score += 1 + 0.25*float64(n-1)
			evidence = append(evidence, fmt.Sprintf("%s (x%d)", term, n))
		}
		if score > bestScore {
			best, bestScore, bestEvidence = key, score, evidence
		}
	}
	return best, bestScore, bestEvidence
}

// keywordConfidence maps a weighted hit score into [0, 0.9].
func keywordConfidence(score float64) float64 {
	conf := 0.2 + 0.12*score
	if conf > 0.9 {
		conf = 0.9
	}
	return conf
}

func urlPathSegments(raw string) []string {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	var out []string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg = normalizeToken(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
