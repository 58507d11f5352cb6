package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNotSentence is returned for lines that carry no sentence prefix.
	ErrNotSentence = errors.New("not a sentence")

	// ErrMalformedSentence is returned for sentences with fewer than seven fields
	// or a fragment index outside 1..total.
	ErrMalformedSentence = errors.New("malformed sentence")
)

// Fragment is one parsed line of a possibly multi-part sentence message.
type Fragment struct {
	Line    int    // 1-based line number in the source file
	Total   int    // fragment count of the logical message
	Index   int    // 1-based position of this fragment
	Seq     string // sequential message id, empty for single-part messages
	Channel string
	Payload string
	Fill    int
}

// Message is a complete logical message ready for payload decoding.
type Message struct {
	Payload   string
	Fill      int
	Channel   string
	FirstLine int
	Parts     int
}

// ParseSentence splits a line of the form
// "!AIVDM,<total>,<index>,<seq>,<channel>,<payload>,<fill>*<checksum>".
// Anything before the prefix (tag blocks, receiver timestamps) is ignored.
// Non-numeric totals and indexes default to 1. The checksum is not verified.
func ParseSentence(line string) (Fragment, error) {
	start := -1
	for _, p := range sentencePrefixes {
		if i := strings.Index(line, p); i >= 0 && (start < 0 || i < start) {
			start = i
		}
	}
	if start < 0 {
		return Fragment{}, ErrNotSentence
	}

	parts := strings.Split(strings.TrimSpace(line[start:]), ",")
	if len(parts) < 7 {
		return Fragment{}, fmt.Errorf("%w: %d fields", ErrMalformedSentence, len(parts))
	}

	fill := parts[6]
	if i := strings.IndexByte(fill, '*'); i >= 0 {
		fill = fill[:i]
	}

	total, index := atoiOr(parts[1], 1), atoiOr(parts[2], 1)
	if index < 1 || index > max(total, 1) {
		return Fragment{}, fmt.Errorf("%w: fragment %d of %d", ErrMalformedSentence, index, total)
	}

	return Fragment{
		Total:   total,
		Index:   index,
		Seq:     strings.TrimSpace(parts[3]),
		Channel: strings.TrimSpace(parts[4]),
		Payload: strings.TrimSpace(parts[5]),
		Fill:    atoiOr(fill, 0),
	}, nil
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
