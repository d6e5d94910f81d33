package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "w%d", i)
	}
	return b.String()
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{name: "valid", size: 1000, overlap: 200},
		{name: "zero overlap", size: 100, overlap: 0},
		{name: "zero size", size: 0, overlap: 0, wantErr: true},
		{name: "negative overlap", size: 100, overlap: -1, wantErr: true},
		{name: "overlap equals size", size: 100, overlap: 100, wantErr: true},
		{name: "overlap exceeds size", size: 100, overlap: 150, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.size, tt.overlap)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, c.Size())
			assert.Equal(t, tt.overlap, c.Overlap())
		})
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	c, err := New(1000, 200)
	require.NoError(t, err)

	chunks := c.Split(words(1000))
	require.Len(t, chunks, 1)
	assert.Equal(t, 1000, len(strings.Fields(chunks[0])))
}

func TestSplit_EmptyText(t *testing.T) {
	c, err := New(1000, 200)
	require.NoError(t, err)

	assert.Nil(t, c.Split(""))
	assert.Nil(t, c.Split("   \n\t  "))
}

func TestSplit_OverlapBoundaries(t *testing.T) {
	c, err := New(1000, 200)
	require.NoError(t, err)

	// 5000 words with stride 800: starts at 0, 800, ..., 4000; the
	// final window ends exactly at the last word.
	chunks := c.Split(words(5000))
	require.Len(t, chunks, 6)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(strings.Fields(chunk)), 1000)
	}

	for i := 0; i < len(chunks)-1; i++ {
		cur := strings.Fields(chunks[i])
		next := strings.Fields(chunks[i+1])
		// Last 200 words of each chunk open the next one.
		assert.Equal(t, cur[len(cur)-200:], next[:200], "chunk %d/%d boundary", i, i+1)
	}
}

func TestSplit_ZeroOverlapReconstructsText(t *testing.T) {
	c, err := New(100, 0)
	require.NoError(t, err)

	text := words(950)
	chunks := c.Split(text)
	require.Len(t, chunks, 10)
	assert.Equal(t, text, strings.Join(chunks, " "))
}

func TestSplit_Deterministic(t *testing.T) {
	c, err := New(1000, 200)
	require.NoError(t, err)

	text := words(3456)
	first := c.Split(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Split(text))
	}
}

func TestSplit_NoEmptyChunks(t *testing.T) {
	c, err := New(10, 3)
	require.NoError(t, err)

	for _, n := range []int{1, 7, 10, 11, 17, 70, 71} {
		chunks := c.Split(words(n))
		for j, chunk := range chunks {
			assert.NotEmpty(t, strings.TrimSpace(chunk), "n=%d chunk=%d", n, j)
		}
	}
}

func TestSplit_EveryWordCovered(t *testing.T) {
	c, err := New(50, 10)
	require.NoError(t, err)

	text := words(333)
	chunks := c.Split(text)

	seen := make(map[string]bool)
	for _, chunk := range chunks {
		for _, w := range strings.Fields(chunk) {
			seen[w] = true
		}
	}
	for _, w := range strings.Fields(text) {
		assert.True(t, seen[w], "word %s missing from chunks", w)
	}
}

func TestSplit_NormalizesWhitespace(t *testing.T) {
	c, err := New(1000, 200)
	require.NoError(t, err)

	chunks := c.Split("hello   world\n\nfoo\tbar")
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world foo bar", chunks[0])
}
