package avatar

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	syntheticProviderName = "synthetic"
	syntheticThumbWidth   = 360
	syntheticThumbHeight  = 640
	// wordsPerSecond approximates speaking pace for placeholder durations.
	wordsPerSecond = 2.5
)

// Synthetic returns placeholder artifacts without calling a provider.
type Synthetic struct{}

func NewSynthetic() *Synthetic {
	return &Synthetic{}
}

func (s *Synthetic) Render(ctx context.Context, req RenderRequest) (*Render, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(req.AvatarID + "\x00" + req.Script))
	// ISO base media "ftyp" box so players recognise the container.
	video := append([]byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0, 0, 2, 0, 'i', 's', 'o', 'm', 'm', 'p', '4', '1'}, sum[:]...)

	frame := imaging.New(syntheticThumbWidth, syntheticThumbHeight, color.NRGBA{R: sum[0], G: sum[1], B: sum[2], A: 255})
	var thumb bytes.Buffer
	if err := imaging.Encode(&thumb, frame, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode placeholder thumbnail: %w", err)
	}

	words := len(bytes.Fields([]byte(req.Script)))
	return &Render{
		Video:           video,
		Thumbnail:       thumb.Bytes(),
		DurationSeconds: float64(words) / wordsPerSecond,
		Provider:        syntheticProviderName,
	}, nil
}

var _ Renderer = (*Synthetic)(nil)
