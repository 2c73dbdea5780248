package notify

import "strings"

// ChunkMessage splits text into pieces no longer than limit, breaking on
// line boundaries so HTML tags and numbers are never cut mid-token. A single
// line longer than the limit is hard-split as a last resort.
func ChunkMessage(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		for len(line) > limit {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		need := len(line)
		if current.Len() > 0 {
			need++ // rejoining newline
		}
		if current.Len()+need > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
