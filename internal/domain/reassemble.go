package domain

import (
	"sort"
	"strings"
)

// IncompleteMessage describes a fragment group that never completed.
type IncompleteMessage struct {
	Seq       string
	Channel   string
	Total     int
	Received  int
	FirstLine int
}

type fragmentKey struct {
	seq     string
	channel string
}

type fragmentGroup struct {
	total     int
	firstLine int
	parts     map[int]Fragment
}

func (g *fragmentGroup) incomplete(k fragmentKey) IncompleteMessage {
	return IncompleteMessage{
		Seq:       k.seq,
		Channel:   k.channel,
		Total:     g.total,
		Received:  len(g.parts),
		FirstLine: g.firstLine,
	}
}

// Reassembler joins multi-part sentence fragments into complete messages.
// Groups are keyed by (sequence id, channel). It is not safe for concurrent
// use; one Reassembler serves one file.
type Reassembler struct {
	groups    map[fragmentKey]*fragmentGroup
	abandoned []IncompleteMessage
}

// NewReassembler returns an empty Reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{groups: make(map[fragmentKey]*fragmentGroup)}
}

// Add feeds one fragment. It returns the completed message and true once the
// final fragment of a group arrives. Single-part messages complete at once
// without touching group state.
//
// A repeated fragment index, or a fragment announcing a different total than
// the group it joins, closes the existing group as incomplete and starts a
// new one from this fragment. Closed groups are reported by Flush. Fragments
// whose index falls outside 1..total are dropped.
func (r *Reassembler) Add(f Fragment) (Message, bool) {
	if f.Total > 1 && (f.Index < 1 || f.Index > f.Total) {
		return Message{}, false
	}
	if f.Total <= 1 {
		return Message{
			Payload:   f.Payload,
			Fill:      f.Fill,
			Channel:   f.Channel,
			FirstLine: f.Line,
			Parts:     1,
		}, true
	}

	k := fragmentKey{seq: f.Seq, channel: f.Channel}
	g, ok := r.groups[k]
	if ok {
		_, dup := g.parts[f.Index]
		if dup || g.total != f.Total {
			r.abandoned = append(r.abandoned, g.incomplete(k))
			ok = false
		}
	}
	if !ok {
		g = &fragmentGroup{total: f.Total, firstLine: f.Line, parts: make(map[int]Fragment, f.Total)}
		r.groups[k] = g
	}
	g.parts[f.Index] = f

	if len(g.parts) < g.total {
		return Message{}, false
	}

	delete(r.groups, k)
	return g.assemble(), true
}

func (g *fragmentGroup) assemble() Message {
	indexes := make([]int, 0, len(g.parts))
	for i := range g.parts {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	var sb strings.Builder
	var last Fragment
	for _, i := range indexes {
		last = g.parts[i]
		sb.WriteString(last.Payload)
	}
	return Message{
		Payload:   sb.String(),
		Fill:      last.Fill,
		Channel:   last.Channel,
		FirstLine: g.firstLine,
		Parts:     len(indexes),
	}
}

// Pending returns the number of groups still collecting fragments.
func (r *Reassembler) Pending() int {
	return len(r.groups)
}

// Flush reports every group that did not complete, ordered by the line of its
// first fragment, and resets the Reassembler.
func (r *Reassembler) Flush() []IncompleteMessage {
	out := r.abandoned
	for k, g := range r.groups {
		out = append(out, g.incomplete(k))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FirstLine < out[j].FirstLine })

	r.groups = make(map[fragmentKey]*fragmentGroup)
	r.abandoned = nil
	return out
}
