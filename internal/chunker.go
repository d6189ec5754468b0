package internal

import (
	"fmt"
	"unicode/utf8"
)

const (
	// StrategyMessageBased is the only chunking strategy with defined behavior
	StrategyMessageBased = "message_based"

	// MinChunkTargetSize is the smallest accepted token target
	MinChunkTargetSize = 1000
	// DefaultChunkTargetSize is used when no target is configured
	DefaultChunkTargetSize = 4000
	// DefaultThresholdRatio is the fraction of the target at which a user turn starts a new chunk
	DefaultThresholdRatio = 0.8
)

// EstimateTokens approximates the token cost of s: zero for the empty string,
// otherwise a quarter of its length plus one
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return utf8.RuneCountInString(s)/4 + 1
}

// Chunker partitions a message list into size-bounded chunks that never split
// a user/assistant exchange
type Chunker struct {
	targetSize     int
	thresholdRatio float64
	strategy       string
}

// NewChunker validates the settings and creates a chunker
func NewChunker(targetSize int, thresholdRatio float64, strategy string) (*Chunker, error) {
	if strategy == "" {
		strategy = StrategyMessageBased
	}
	if targetSize < MinChunkTargetSize {
		return nil, &ChunkerConfigError{
			Field:  "target_size",
			Value:  targetSize,
			Reason: fmt.Sprintf("must be at least %d", MinChunkTargetSize),
		}
	}
	if !(thresholdRatio > 0 && thresholdRatio <= 1) {
		return nil, &ChunkerConfigError{
			Field:  "threshold_ratio",
			Value:  thresholdRatio,
			Reason: "must be in (0, 1]",
		}
	}
	if strategy != StrategyMessageBased {
		return nil, &ChunkerConfigError{
			Field:  "strategy",
			Value:  strategy,
			Reason: "only " + StrategyMessageBased + " is supported",
		}
	}
	return &Chunker{targetSize: targetSize, thresholdRatio: thresholdRatio, strategy: strategy}, nil
}

// TargetSize returns the configured token target
func (c *Chunker) TargetSize() int { return c.targetSize }

// ThresholdRatio returns the configured coherence threshold
func (c *Chunker) ThresholdRatio() float64 { return c.thresholdRatio }

// Plan scans messages once and returns the chunk descriptors
func (c *Chunker) Plan(messages []Message) ([]ChunkDescriptor, error) {
	if len(messages) == 0 {
		return nil, &ChunkerConfigError{Field: "messages", Value: 0, Reason: "no messages to chunk"}
	}

	costs := make([]int, len(messages))
	for i, msg := range messages {
		costs[i] = EstimateTokens(msg.Content)
	}

	var ranges [][2]int
	flush := func(start, end int) {
		if end >= start {
			ranges = append(ranges, [2]int{start, end})
		}
	}

	threshold := float64(c.targetSize) * c.thresholdRatio
	start, running := 0, 0
	for i, msg := range messages {
		t := costs[i]
		switch {
		case t > c.targetSize:
			flush(start, i-1)
			flush(i, i)
			start, running = i+1, 0
		case msg.Role == RoleUser && float64(running+t) >= threshold && i > start:
			flush(start, i-1)
			start, running = i, t
		case running+t > c.targetSize:
			if i > start {
				flush(start, i-1)
				start, running = i, t
			} else {
				running += t
			}
		default:
			running += t
		}
	}
	flush(start, len(messages)-1)

	descriptors := make([]ChunkDescriptor, len(ranges))
	for n, r := range ranges {
		tokens := 0
		for i := r[0]; i <= r[1]; i++ {
			tokens += costs[i]
		}
		descriptors[n] = ChunkDescriptor{
			ChunkID:        fmt.Sprintf("chunk_%d", n+1),
			SequenceNumber: n + 1,
			MessageRange:   r,
			TokenCount:     tokens,
			TimestampRange: TimestampRange{
				Start: messages[r[0]].Timestamp,
				End:   messages[r[1]].Timestamp,
			},
		}
	}
	return descriptors, nil
}

// Apply plans chunks for doc and records them in doc.Metadata.Chunking. The
// messages themselves are left untouched.
func (c *Chunker) Apply(doc *CanonicalDoc) error {
	if doc == nil {
		return &ChunkerConfigError{Field: "messages", Value: nil, Reason: "no document"}
	}
	descriptors, err := c.Plan(doc.Messages)
	if err != nil {
		return err
	}
	doc.Metadata.Chunking = &ChunkingInfo{
		Strategy:       c.strategy,
		TargetSize:     c.targetSize,
		ThresholdRatio: c.thresholdRatio,
		TotalChunks:    len(descriptors),
		ChunkMetadata:  descriptors,
	}
	LogDebug("chunked %d messages into %d chunks (target %d)", len(doc.Messages), len(descriptors), c.targetSize)
	return nil
}

// ValidateChunkCoverage checks that the chunk ranges are contiguous,
// non-overlapping, increasing and together cover [0, n-1]
func ValidateChunkCoverage(info *ChunkingInfo, n int) error {
	if info == nil {
		return nil
	}
	if info.TotalChunks != len(info.ChunkMetadata) {
		return fmt.Errorf("total_chunks is %d but %d descriptors present", info.TotalChunks, len(info.ChunkMetadata))
	}
	next := 0
	for i, d := range info.ChunkMetadata {
		if d.SequenceNumber != i+1 {
			return fmt.Errorf("chunk %d has sequence number %d", i+1, d.SequenceNumber)
		}
		start, end := d.MessageRange[0], d.MessageRange[1]
		if start != next {
			return fmt.Errorf("chunk %d starts at %d, expected %d", i+1, start, next)
		}
		if end < start {
			return fmt.Errorf("chunk %d has inverted range [%d,%d]", i+1, start, end)
		}
		next = end + 1
	}
	if next != n {
		return fmt.Errorf("chunks cover %d of %d messages", next, n)
	}
	return nil
}
