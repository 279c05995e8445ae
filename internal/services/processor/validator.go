package processor

import "fmt"

// Validate checks that data may be sent to the compression service.
func (p *ImageProcessor) Validate(data []byte) error {
	size := int64(len(data))
	if size == 0 {
		return fmt.Errorf("file is empty")
	}
	if size > p.maxSize {
		return fmt.Errorf("file size %d exceeds maximum allowed size %d", size, p.maxSize)
	}
	if ct := DetectType(data); !IsCompressible(ct) {
		return fmt.Errorf("unsupported image type %s", ct)
	}
	return nil
}
