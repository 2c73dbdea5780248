package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkMessage_ShortTextSingleChunk(t *testing.T) {
	chunks := ChunkMessage("hello\nworld", 100)
	assert.Equal(t, []string{"hello\nworld"}, chunks)
}

func TestChunkMessage_SplitsOnLineBoundaries(t *testing.T) {
	lines := []string{
		"first line of the alert",
		"second line of the alert",
		"third line of the alert",
	}
	text := strings.Join(lines, "\n")

	chunks := ChunkMessage(text, 50)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 50)
		assert.Equal(t, lines[i], chunk, "each chunk holds whole lines")
	}
}

func TestChunkMessage_NoLineCutMidway(t *testing.T) {
	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, "wallet 4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T bought")
	}
	text := strings.Join(lines, "\n")

	chunks := ChunkMessage(text, 4000)
	require.Greater(t, len(chunks), 1)

	var rejoined []string
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 4000)
		rejoined = append(rejoined, strings.Split(chunk, "\n")...)
	}
	// Every original line survives intact.
	assert.Equal(t, lines, rejoined)
}

func TestChunkMessage_OversizedLineHardSplit(t *testing.T) {
	text := strings.Repeat("x", 95)
	chunks := ChunkMessage(text, 40)
	require.Len(t, chunks, 3)
	assert.Equal(t, 40, len(chunks[0]))
	assert.Equal(t, 40, len(chunks[1]))
	assert.Equal(t, 15, len(chunks[2]))
}
