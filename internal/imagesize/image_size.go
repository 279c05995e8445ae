package imagesize

import (
	"errors"
	"time"

	"github.com/juju/clock"
	"github.com/spf13/afero"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
	"github.com/phambaophuc/tiny-compress-images/internal/tinify"
)

// DefaultInProgressWindow is how long a request marker counts as in flight.
// Older markers are treated as abandoned.
const DefaultInProgressWindow = 10 * time.Minute

// ImageSize is a view over the tracked compression state of one rendition.
// It is not safe for concurrent use.
type ImageSize struct {
	Name string
	Path string

	state  State
	fs     afero.Fs
	clock  clock.Clock
	window time.Duration
}

type Option func(*ImageSize)

func WithFs(fs afero.Fs) Option {
	return func(s *ImageSize) { s.fs = fs }
}

func WithClock(c clock.Clock) Option {
	return func(s *ImageSize) { s.clock = c }
}

func WithInProgressWindow(d time.Duration) Option {
	return func(s *ImageSize) {
		if d > 0 {
			s.window = d
		}
	}
}

func New(name, path string, record models.SizeRecord, opts ...Option) *ImageSize {
	s := &ImageSize{
		Name:   name,
		Path:   path,
		state:  Decode(record),
		fs:     afero.NewOsFs(),
		clock:  clock.WallClock,
		window: DefaultInProgressWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ImageSize) State() State {
	return s.state
}

// Record returns the persisted form of the current state.
func (s *ImageSize) Record() models.SizeRecord {
	return Encode(s.state)
}

// AddRequest marks the rendition as sent. Any earlier outcome is discarded.
func (s *ImageSize) AddRequest() {
	s.state = Requested{Start: s.now()}
}

// AddResponse records a successful compression. It does nothing unless a
// request is pending.
func (s *ImageSize) AddResponse(result models.CompressionResult) {
	if _, ok := s.state.(Requested); !ok {
		return
	}
	in := result.Input
	s.state = Completed{
		End:    s.now(),
		Input:  &in,
		Output: result.Output,
	}
}

// AddException records a failed compression. It does nothing unless a
// request is pending.
func (s *ImageSize) AddException(err error) {
	if _, ok := s.state.(Requested); !ok {
		return
	}
	failed := Failed{At: s.now(), Code: "Error", Message: err.Error()}
	var terr *tinify.Error
	if errors.As(err, &terr) {
		failed.Code = terr.Code
		failed.Message = terr.Message
	}
	s.state = failed
}

// EndTime returns when the last attempt finished, falling back to the
// failure timestamp.
func (s *ImageSize) EndTime() (time.Time, bool) {
	switch st := s.state.(type) {
	case Completed:
		return st.End, !st.End.IsZero()
	case Failed:
		return st.At, !st.At.IsZero()
	}
	return time.Time{}, false
}

func (s *ImageSize) HasBeenCompressed() bool {
	_, ok := s.output()
	return ok
}

func (s *ImageSize) StillExists() bool {
	_, ok := s.fileSize()
	return ok
}

func (s *ImageSize) Compressed() bool {
	size, exists := s.fileSize()
	out, ok := s.output()
	return exists && ok && size == out.Size
}

// Modified reports whether the file changed since it was last compressed.
func (s *ImageSize) Modified() bool {
	size, exists := s.fileSize()
	out, ok := s.output()
	return exists && ok && size != out.Size
}

func (s *ImageSize) Uncompressed() bool {
	return s.StillExists() && (!s.HasBeenCompressed() || s.Modified())
}

func (s *ImageSize) InProgress() bool {
	req, ok := s.state.(Requested)
	if !ok {
		return false
	}
	return s.now().Sub(req.Start) < s.window
}

// Resized reports whether the service returned a file of a different size
// than it was given. Without a recorded input it is false.
func (s *ImageSize) Resized() bool {
	c, ok := s.state.(Completed)
	if !ok || c.Input == nil {
		return false
	}
	return c.Input.Size != c.Output.Size
}

func (s *ImageSize) output() (models.FileStats, bool) {
	if c, ok := s.state.(Completed); ok {
		return c.Output, true
	}
	return models.FileStats{}, false
}

func (s *ImageSize) fileSize() (int64, bool) {
	if s.Path == "" {
		return 0, false
	}
	info, err := s.fs.Stat(s.Path)
	if err != nil || info.IsDir() {
		return 0, false
	}
	return info.Size(), true
}

func (s *ImageSize) now() time.Time {
	return s.clock.Now()
}
