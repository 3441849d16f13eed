package document

import (
	"fmt"
	"strings"
)

// ChunkerConfig holds markdown chunking configuration.
type ChunkerConfig struct {
	// MaxHeaderLevel is the deepest heading level that starts a new chunk.
	MaxHeaderLevel int
}

// DefaultChunkerConfig splits on #, ## and ### headings.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{MaxHeaderLevel: 3}
}

// Validate checks if the configuration is valid.
func (c ChunkerConfig) Validate() error {
	if c.MaxHeaderLevel < 1 || c.MaxHeaderLevel > 6 {
		return fmt.Errorf("MaxHeaderLevel must be between 1 and 6, got %d", c.MaxHeaderLevel)
	}
	return nil
}

// Chunker splits markdown documents at heading boundaries.
type Chunker struct {
	config ChunkerConfig
}

// NewChunker creates a chunker. A zero config selects the defaults.
func NewChunker(cfg ChunkerConfig) (*Chunker, error) {
	if cfg.MaxHeaderLevel == 0 {
		cfg = DefaultChunkerConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{config: cfg}, nil
}

// Split returns the chunks of content in document order. Headings stay in
// the chunk they open; text before the first heading forms its own chunk.
func (c *Chunker) Split(content string) []Chunk {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var chunks []Chunk
	var current []string
	inFence := false
	fence := ""

	flush := func() {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		current = current[:0]
		if text == "" {
			return
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Content: text})
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if marker, ok := fenceMarker(trimmed); ok {
			switch {
			case !inFence:
				inFence, fence = true, marker
			case strings.HasPrefix(trimmed, fence):
				inFence, fence = false, ""
			}
		}
		if !inFence && c.isBoundary(line) {
			flush()
		}
		current = append(current, line)
	}
	flush()

	return chunks
}

func (c *Chunker) isBoundary(line string) bool {
	level := headingLevel(line)
	return level > 0 && level <= c.config.MaxHeaderLevel
}

// headingLevel returns the ATX heading level of line, or 0.
func headingLevel(line string) int {
	if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
		return 0
	}
	trimmed := strings.TrimLeft(line, " ")
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0
	}
	if level < len(trimmed) && trimmed[level] != ' ' && trimmed[level] != '\t' {
		return 0
	}
	return level
}

func fenceMarker(trimmed string) (string, bool) {
	switch {
	case strings.HasPrefix(trimmed, "```"):
		return "```", true
	case strings.HasPrefix(trimmed, "~~~"):
		return "~~~", true
	}
	return "", false
}
