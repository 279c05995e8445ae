package imagesize

import (
	"time"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
)

// State is the compression lifecycle of one rendition. It is one of Idle,
// Requested, Completed or Failed.
type State interface {
	isState()
}

// Idle means nothing has been tracked for the rendition yet.
type Idle struct{}

// Requested means the rendition was sent to the compression service and no
// outcome has been recorded.
type Requested struct {
	Start time.Time
}

// Completed holds the outcome of a successful compression. Input is nil for
// records that only kept the output.
type Completed struct {
	End    time.Time
	Input  *models.FileStats
	Output models.FileStats
}

// Failed holds the error reported by the compression service.
type Failed struct {
	At      time.Time
	Code    string
	Message string
}

func (Idle) isState()      {}
func (Requested) isState() {}
func (Completed) isState() {}
func (Failed) isState()    {}

// Decode maps a persisted record onto a state. Records written by older
// versions may carry an output with only a timestamp; the timestamp then
// stands in for the end time.
func Decode(r models.SizeRecord) State {
	switch {
	case r.Output != nil:
		c := Completed{Output: *r.Output}
		if r.Input != nil {
			in := *r.Input
			c.Input = &in
		}
		switch {
		case r.End != nil:
			c.End = unix(*r.End)
		case r.Timestamp != nil:
			c.End = unix(*r.Timestamp)
		}
		return c
	case r.Error != "" || r.Message != "":
		f := Failed{Code: r.Error, Message: r.Message}
		if r.Timestamp != nil {
			f.At = unix(*r.Timestamp)
		}
		return f
	case r.Start != nil:
		return Requested{Start: unix(*r.Start)}
	default:
		return Idle{}
	}
}

// Encode is the inverse of Decode.
func Encode(s State) models.SizeRecord {
	var r models.SizeRecord
	switch s := s.(type) {
	case Requested:
		r.Start = stamp(s.Start)
	case Completed:
		r.End = stamp(s.End)
		if s.Input != nil {
			in := *s.Input
			r.Input = &in
		}
		out := s.Output
		r.Output = &out
	case Failed:
		r.Timestamp = stamp(s.At)
		r.Error = s.Code
		r.Message = s.Message
	}
	return r
}

func unix(sec int64) time.Time {
	return time.Unix(sec, 0)
}

func stamp(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	sec := t.Unix()
	return &sec
}
