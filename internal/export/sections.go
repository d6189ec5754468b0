package export

import (
	"fmt"
	"time"

	"github.com/iksnae/chat-convert/internal"
)

// section is a run of messages rendered under one header
type section struct {
	Heading  string
	Messages []internal.Message
	// Offset is the index of the first message in the document
	Offset int
}

// Anchor is the GitHub style link target of the heading
func (s section) Anchor() string {
	return internal.HeadingSlug(s.Heading)
}

// splitSections groups messages into sessions when grouping is on, starting
// a new one whenever consecutive timestamps are more than gap apart.
// Otherwise every message gets its own section.
func splitSections(messages []internal.Message, opts Options) []section {
	var out []section
	if !opts.GroupByTime {
		for i, msg := range messages {
			out = append(out, section{
				Heading:  heading("Message", i+1, msg.Timestamp),
				Messages: messages[i : i+1],
				Offset:   i,
			})
		}
		return out
	}

	gap := time.Duration(opts.GapSeconds) * time.Second
	var prev time.Time
	start := 0
	for i, msg := range messages {
		t, ok := internal.ParseTimestamp(msg.Timestamp)
		split := i > 0 && ok && !prev.IsZero() && t.Sub(prev) > gap
		if split {
			out = append(out, section{Messages: messages[start:i], Offset: start})
			start = i
		}
		if ok {
			prev = t
		}
	}
	if len(messages) > 0 {
		out = append(out, section{Messages: messages[start:], Offset: start})
	}
	for i := range out {
		out[i].Heading = heading("Session", i+1, out[i].Messages[0].Timestamp)
	}
	return out
}

func heading(kind string, n int, timestamp string) string {
	if timestamp == "" {
		return fmt.Sprintf("%s %d", kind, n)
	}
	return fmt.Sprintf("%s %d (%s)", kind, n, timestamp)
}
