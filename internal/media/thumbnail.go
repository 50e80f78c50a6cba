package media

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	ThumbnailWidth  = 640
	ThumbnailHeight = 360
	thumbnailJPEGQ  = 85
)

// NormalizeThumbnail decodes a provider thumbnail in any supported format,
// crops it to fill ThumbnailWidth x ThumbnailHeight around the centre and
// re-encodes it as JPEG. It returns the encoded bytes.
func NormalizeThumbnail(src []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	thumb := imaging.Fill(img, ThumbnailWidth, ThumbnailHeight, imaging.Center, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(thumbnailJPEGQ)); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}
