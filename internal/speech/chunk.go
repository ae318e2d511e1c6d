package speech

import (
	"regexp"
	"strings"
)

var (
	hyphenBreak   = regexp.MustCompile(`-\s*\n\s*`)
	newlineRun    = regexp.MustCompile(`\s*\n\s*`)
	whitespaceRun = regexp.MustCompile(`\s{2,}`)
	sentenceSplit = regexp.MustCompile(`[.!?]\s+`)
)

// CleanupText flattens document text for synthesis: hyphenated line
// breaks are joined, newlines become spaces, whitespace collapses.
func CleanupText(raw string) string {
	if raw == "" {
		return ""
	}
	txt := hyphenBreak.ReplaceAllString(raw, "")
	txt = newlineRun.ReplaceAllString(txt, " ")
	txt = whitespaceRun.ReplaceAllString(txt, " ")
	return strings.TrimSpace(txt)
}

// Sentences splits cleaned text at sentence boundaries, keeping the
// terminal punctuation with each sentence.
func Sentences(text string) []string {
	text = CleanupText(text)
	if text == "" {
		return nil
	}
	var sents []string
	rest := text
	for {
		loc := sentenceSplit.FindStringIndex(rest)
		if loc == nil {
			break
		}
		if s := strings.TrimSpace(rest[:loc[0]+1]); s != "" {
			sents = append(sents, s)
		}
		rest = rest[loc[1]:]
	}
	if s := strings.TrimSpace(rest); s != "" {
		sents = append(sents, s)
	}
	return sents
}

// PackSentences greedily packs sentences into chunks of at most limit
// characters. A single sentence longer than the limit falls back to a
// word-wrap split so no chunk exceeds the provider's request cap.
func PackSentences(sents []string, limit int) []string {
	var chunks []string
	cur := ""
	for _, s := range sents {
		switch {
		case cur == "":
			cur = s
		case len(cur)+1+len(s) <= limit:
			cur += " " + s
		default:
			chunks = append(chunks, cur)
			cur = s
		}
		if len(cur) > limit {
			words := strings.Fields(cur)
			cur = ""
			for _, w := range words {
				switch {
				case cur == "":
					cur = w
				case len(cur)+1+len(w) <= limit:
					cur += " " + w
				default:
					chunks = append(chunks, cur)
					cur = w
				}
			}
		}
	}
	if cur != "" {
		chunks = append(chunks, cur)
	}
	return chunks
}

// ChunkText prepares text for synthesis as provider-sized chunks.
func ChunkText(text string, limit int) []string {
	sents := Sentences(text)
	if len(sents) == 0 {
		return nil
	}
	return PackSentences(sents, limit)
}
