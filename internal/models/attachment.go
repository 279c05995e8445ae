package models

// Attachment lists the files of an uploaded image, keyed by rendition name.
// The original lives under OriginalSize.
type Attachment struct {
	ID    int64             `json:"id"`
	File  string            `json:"file"`
	Sizes map[string]string `json:"sizes,omitempty"`
}

func (a *Attachment) Path(size string) (string, bool) {
	if size == OriginalSize {
		return a.File, a.File != ""
	}
	p, ok := a.Sizes[size]
	return p, ok && p != ""
}

type RenditionStatus struct {
	Size       string     `json:"size"`
	Path       string     `json:"path"`
	Exists     bool       `json:"exists"`
	Compressed bool       `json:"compressed"`
	Modified   bool       `json:"modified"`
	InProgress bool       `json:"in_progress"`
	Resized    bool       `json:"resized"`
	EndTime    *int64     `json:"end_time,omitempty"`
	Output     *FileStats `json:"output,omitempty"`
	Error      string     `json:"error,omitempty"`
}

type CompressionSummary struct {
	AttachmentID int64    `json:"attachment_id"`
	Compressed   []string `json:"compressed"`
	Failed       []string `json:"failed"`
	Skipped      []string `json:"skipped"`
}
