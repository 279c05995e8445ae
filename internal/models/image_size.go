package models

// FileStats describes one side of a compression round trip.
type FileStats struct {
	Size   int64   `json:"size"`
	Type   string  `json:"type,omitempty"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
	Ratio  float64 `json:"ratio,omitempty"`
}

// SizeRecord is the persisted form of a rendition's compression state.
type SizeRecord struct {
	Start     *int64     `json:"start,omitempty"`
	End       *int64     `json:"end,omitempty"`
	Timestamp *int64     `json:"timestamp,omitempty"`
	Input     *FileStats `json:"input,omitempty"`
	Output    *FileStats `json:"output,omitempty"`
	Error     string     `json:"error,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// IsEmpty reports whether the record holds no state at all.
func (r SizeRecord) IsEmpty() bool {
	return r.Start == nil && r.End == nil && r.Timestamp == nil &&
		r.Input == nil && r.Output == nil && r.Error == "" && r.Message == ""
}

// CompressionResult is what the compression service reports for one image.
type CompressionResult struct {
	Input  FileStats `json:"input"`
	Output FileStats `json:"output"`
}
