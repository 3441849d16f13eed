package document_test

import (
	"testing"

	"github.com/rpggio/prdinsights/internal/domain/document"
	"github.com/stretchr/testify/require"
)

func split(t *testing.T, cfg document.ChunkerConfig, content string) []document.Chunk {
	t.Helper()
	c, err := document.NewChunker(cfg)
	require.NoError(t, err)
	return c.Split(content)
}

func TestChunker_SplitsOnHeaders(t *testing.T) {
	content := "Intro text\n\n# Title\nBody\n## Cart\nAdd items\n### Limits\nTen max\n#### Detail\nstays with Limits"

	chunks := split(t, document.DefaultChunkerConfig(), content)
	require.Len(t, chunks, 4)
	require.Equal(t, "Intro text", chunks[0].Content)
	require.Equal(t, "# Title\nBody", chunks[1].Content)
	require.Equal(t, "## Cart\nAdd items", chunks[2].Content)
	require.Equal(t, "### Limits\nTen max\n#### Detail\nstays with Limits", chunks[3].Content)
	for i, c := range chunks {
		require.Equal(t, i, c.Index)
	}
}

func TestChunker_IgnoresHeadersInFences(t *testing.T) {
	content := "# API\n```bash\n# not a header\necho hi\n```\n## Next\ntext"

	chunks := split(t, document.ChunkerConfig{}, content)
	require.Len(t, chunks, 2)
	require.Contains(t, chunks[0].Content, "# not a header")
	require.Equal(t, "## Next\ntext", chunks[1].Content)
}

func TestChunker_DropsBlankChunks(t *testing.T) {
	chunks := split(t, document.ChunkerConfig{}, "\n\n# A\n\n\n# B\nb\n")
	require.Len(t, chunks, 2)
	require.Equal(t, "# A", chunks[0].Content)
	require.Equal(t, 1, chunks[1].Index)

	require.Empty(t, split(t, document.ChunkerConfig{}, "  \n\t\n"))
}

func TestChunker_HeaderDepth(t *testing.T) {
	content := "# A\n## B\n### C"

	chunks := split(t, document.ChunkerConfig{MaxHeaderLevel: 1}, content)
	require.Len(t, chunks, 1)

	chunks = split(t, document.ChunkerConfig{MaxHeaderLevel: 2}, content)
	require.Len(t, chunks, 2)
}

func TestChunker_NotHeaders(t *testing.T) {
	chunks := split(t, document.ChunkerConfig{}, "#hashtag\n    # indented code\n# Real")
	require.Len(t, chunks, 2)
	require.Equal(t, "# Real", chunks[1].Content)
}

func TestChunkerConfig_Validate(t *testing.T) {
	_, err := document.NewChunker(document.ChunkerConfig{MaxHeaderLevel: 7})
	require.Error(t, err)
}
