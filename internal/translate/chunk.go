package translate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ChunkText splits text into pieces of at most maxRunes runes for the
// translation service. Text that fits is returned as a single chunk with
// its inner spacing untouched. Longer text is split after sentence
// terminators (.!?。！？) followed by whitespace and greedily packed, the
// sentences of a chunk joined by single spaces. A single sentence longer
// than maxRunes becomes a chunk of its own. Surrounding whitespace is
// trimmed; blank text yields no chunks.
func ChunkText(text string, maxRunes int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return []string{text}
	}

	var (
		chunks  []string
		current []string
		size    int
	)
	for _, sentence := range splitSentences(text) {
		n := utf8.RuneCountInString(sentence)
		if size+n+1 > maxRunes && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = []string{sentence}
			size = n
			continue
		}
		current = append(current, sentence)
		size += n + 1
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// splitSentences splits text after every sentence terminator that is
// followed by whitespace, dropping that whitespace.
func splitSentences(text string) []string {
	var (
		sentences []string
		start     int
		prev      rune
	)
	for i, r := range text {
		if start >= 0 && unicode.IsSpace(r) && isTerminator(prev) {
			sentences = append(sentences, text[start:i])
			start = -1
		}
		if start == -1 && !unicode.IsSpace(r) {
			start = i
		}
		prev = r
	}
	if start >= 0 && start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}
