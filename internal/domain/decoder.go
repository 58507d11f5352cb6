package domain

import "errors"

// ErrNoResult is returned by a PayloadDecoder for messages that carry no usable
// position (unsupported message type, or position "not available").
var ErrNoResult = errors.New("no decodable position")

// PayloadDecoder turns one reassembled sentence message into a raw field map
// keyed by the canonical vessel field names.
type PayloadDecoder interface {
	Decode(msg Message) (RawRecord, error)
}
