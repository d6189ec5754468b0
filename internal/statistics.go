package internal

import (
	"math"
	"strings"
	"time"
)

// tokensPerWord is the word to token ratio used for statistics.token_count
const tokensPerWord = 1.3

// ComputeStatistics derives Statistics from a message list
func ComputeStatistics(messages []Message) Statistics {
	stats := Statistics{MessageCount: len(messages)}
	for _, msg := range messages {
		stats.WordCount += len(strings.Fields(msg.Content))
	}
	stats.TokenCount = int(math.Round(float64(stats.WordCount) * tokensPerWord))

	first, last, ok := timestampBounds(messages)
	if ok {
		if d := last.Sub(first); d > 0 {
			stats.DurationSeconds = int64(d / time.Second)
		}
	}
	return stats
}

// timestampBounds returns the first and last parseable message timestamps
func timestampBounds(messages []Message) (time.Time, time.Time, bool) {
	var first, last time.Time
	found := false
	for _, msg := range messages {
		if msg.Timestamp == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, msg.Timestamp)
		if err != nil {
			continue
		}
		if !found {
			first = t
			found = true
		}
		last = t
	}
	return first, last, found
}

// Analysis is the summary printed by --analyze
type Analysis struct {
	MessageCount    int          `json:"message_count" yaml:"message_count"`
	WordCount       int          `json:"word_count" yaml:"word_count"`
	TokenEstimate   int          `json:"token_estimate" yaml:"token_estimate"`
	TotalExchanges  int          `json:"total_exchanges" yaml:"total_exchanges"`
	RoleCounts      map[Role]int `json:"role_counts" yaml:"role_counts"`
	DurationSeconds int64        `json:"duration_seconds" yaml:"duration_seconds"`
}

// Analyze summarizes a document. An exchange is a user turn answered by at
// least one assistant turn before the next user turn.
func Analyze(doc *CanonicalDoc) Analysis {
	stats := ComputeStatistics(doc.Messages)
	a := Analysis{
		MessageCount:    stats.MessageCount,
		WordCount:       stats.WordCount,
		RoleCounts:      make(map[Role]int),
		DurationSeconds: stats.DurationSeconds,
	}

	pendingUser := false
	for _, msg := range doc.Messages {
		a.RoleCounts[msg.Role]++
		a.TokenEstimate += EstimateTokens(msg.Content)
		switch msg.Role {
		case RoleUser:
			pendingUser = true
		case RoleAssistant:
			if pendingUser {
				a.TotalExchanges++
				pendingUser = false
			}
		}
	}
	return a
}
