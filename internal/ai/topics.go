package ai

import (
	"regexp"
	"strings"
)

// Lines starting with these are prompt echoes, not topics.
var headerPrefixes = []string{"Ejemplo", "Formato", "INSTRUCCIONES", "ARTÍCULO", "EJEMPLOS"}

var listMarker = regexp.MustCompile(`^(\d+[\.\)]|[-*•])\s*`)

// NormalizeTopics turns a raw model answer into exactly n topics of at most
// maxWords words each. Missing topics are filled from fallbacks, and once
// those run out the last topic is repeated.
func NormalizeTopics(raw string, n, maxWords int, fallbacks []string) []string {
	if n <= 0 {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || hasHeaderPrefix(line) {
			continue
		}
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		line = strings.Trim(line, `"'«»“”`)
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 1 && strings.Contains(lines[0], "|") {
		parts := strings.Split(lines[0], "|")
		lines = lines[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				lines = append(lines, p)
			}
		}
	}

	topics := make([]string, 0, n)
	seen := make(map[string]bool)
	add := func(t string) {
		t = limitWords(t, maxWords)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			return
		}
		seen[key] = true
		topics = append(topics, t)
	}

	for _, line := range lines {
		if len(topics) == n {
			break
		}
		add(line)
	}
	for _, f := range fallbacks {
		if len(topics) == n {
			break
		}
		add(strings.TrimSpace(f))
	}
	for len(topics) < n {
		if len(topics) == 0 {
			topics = append(topics, "productos relacionados")
			continue
		}
		topics = append(topics, topics[len(topics)-1])
	}
	return topics
}

func hasHeaderPrefix(line string) bool {
	for _, p := range headerPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func limitWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if maxWords > 0 && len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}
