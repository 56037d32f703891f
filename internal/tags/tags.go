package tags

import (
	"regexp"
	"strings"
)

// tagRe matches <lora:NAME>, <lora:NAME:weight>, <lyco:NAME> and <lyco:NAME:weight>.
// The name runs up to the next ':' or '>'.
var tagRe = regexp.MustCompile(`(?i)<(?:lora|lyco):([^:>]+)(?::[^>]+)?>`)

// Extract returns the model names referenced by tags in texts, in first-seen
// order across all inputs. Duplicates are dropped case-insensitively; the
// casing of the first occurrence is kept.
func Extract(texts ...string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, t := range texts {
		if t == "" {
			continue
		}
		for _, m := range tagRe.FindAllStringSubmatch(t, -1) {
			n := strings.TrimSpace(m[1])
			if n == "" {
				continue
			}
			k := strings.ToLower(n)
			if seen[k] {
				continue
			}
			seen[k] = true
			names = append(names, n)
		}
	}
	return names
}

const negativeMarker = "Negative prompt:"

// SplitInfotext splits a generation-parameters text block of the form
//
//	<positive prompt>
//	Negative prompt: <negative prompt>
//	Steps: 20, Sampler: ...
//
// into its positive and negative prompt parts. Either part may span several
// lines. The trailing settings line (the last line containing "Steps:") is
// dropped.
func SplitInfotext(infotext string) (positive, negative string) {
	lines := strings.Split(strings.ReplaceAll(infotext, "\r\n", "\n"), "\n")
	if n := len(lines); n > 0 && strings.HasPrefix(strings.TrimSpace(lines[n-1]), "Steps:") {
		lines = lines[:n-1]
	}
	var pos, neg []string
	inNeg := false
	for _, l := range lines {
		if !inNeg && strings.HasPrefix(l, negativeMarker) {
			inNeg = true
			l = strings.TrimPrefix(l, negativeMarker)
		}
		if inNeg {
			neg = append(neg, l)
		} else {
			pos = append(pos, l)
		}
	}
	return strings.TrimSpace(strings.Join(pos, "\n")), strings.TrimSpace(strings.Join(neg, "\n"))
}
