package wire

import "errors"

// Decode error sentinels, named per the spec's abstract error vocabulary.
// Wrap with fmt.Errorf("%w: ...") at call sites that want extra context;
// callers on the hot path should compare with errors.Is.
var (
	ErrTooShort          = errors.New("wire: frame shorter than minimum for its declared type")
	ErrBadMagic          = errors.New("wire: bad magic bytes")
	ErrUnknownPacketType = errors.New("wire: unknown packet type")
	ErrUnknownControlType = errors.New("wire: unknown control type")
	ErrUnknownDataType   = errors.New("wire: unknown data type")
	ErrBadHopCount       = errors.New("wire: heartbeat hop count is zero")
)
