package model

// Segment names a filter predicate over the cached customer table used to
// select campaign recipients.
type Segment string

const (
	SegmentAll     Segment = "all"
	SegmentVIP     Segment = "vip"
	SegmentDormant Segment = "dormant"
	SegmentNew     Segment = "new"
)

// Valid reports whether s is a known segment name.
func (s Segment) Valid() bool {
	switch s {
	case SegmentAll, SegmentVIP, SegmentDormant, SegmentNew:
		return true
	}
	return false
}

// SegmentCount pairs a segment with its current member count.
type SegmentCount struct {
	Segment Segment `json:"segment"`
	Count   int     `json:"count"`
}
