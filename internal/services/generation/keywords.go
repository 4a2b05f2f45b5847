package generation

import (
	"strings"
)

// stopWords are filtered out before keyword extraction
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"for": true, "with": true, "about": true, "into": true, "onto": true,
	"of": true, "to": true, "in": true, "on": true, "at": true, "by": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"our": true, "your": true, "their": true, "this": true, "that": true,
	"new": true, "it": true, "its": true, "as": true, "from": true,
}

// ExtractKeywords pulls the most salient words from a piece of text for
// image prompt construction. Order follows first appearance.
func ExtractKeywords(text string, max int) []string {
	seen := make(map[string]bool)
	var keywords []string

	for _, raw := range strings.Fields(text) {
		word := strings.ToLower(strings.Trim(raw, ".,;:!?\"'()[]"))
		if len(word) < 3 || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) >= max {
			break
		}
	}
	return keywords
}

// ClassifyTone buckets a brand voice description into a coarse visual tone
// used when building image prompts.
func ClassifyTone(voice string) string {
	lower := strings.ToLower(voice)
	switch {
	case strings.Contains(lower, "playful"), strings.Contains(lower, "fun"), strings.Contains(lower, "quirky"):
		return "vibrant and playful"
	case strings.Contains(lower, "luxury"), strings.Contains(lower, "premium"), strings.Contains(lower, "elegant"):
		return "elegant and refined"
	case strings.Contains(lower, "bold"), strings.Contains(lower, "energetic"), strings.Contains(lower, "daring"):
		return "bold and high-contrast"
	case strings.Contains(lower, "professional"), strings.Contains(lower, "corporate"), strings.Contains(lower, "formal"):
		return "clean and professional"
	case strings.Contains(lower, "warm"), strings.Contains(lower, "friendly"), strings.Contains(lower, "approachable"):
		return "warm and inviting"
	}
	return "modern and polished"
}

// buildImagePrompt constructs an image prompt from the generated post text,
// its extracted keywords, and the brand voice.
func buildImagePrompt(text, voice string) string {
	var sb strings.Builder
	sb.WriteString("Social media marketing image: ")
	sb.WriteString(text)

	if keywords := ExtractKeywords(text, 5); len(keywords) > 0 {
		sb.WriteString(". Key themes: ")
		sb.WriteString(strings.Join(keywords, ", "))
	}

	sb.WriteString(". Visual tone: ")
	sb.WriteString(ClassifyTone(voice))
	sb.WriteString(". No text or lettering in the image.")
	return sb.String()
}
