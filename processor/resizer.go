package processor

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
)

var (
	// ErrDecode means the source bytes are not a decodable raster image.
	ErrDecode = errors.New("unsupported or corrupt image data")
	// ErrEncode means the JPEG encoder rejected the resized image.
	ErrEncode = errors.New("failed to encode thumbnail")
)

const defaultJPEGQuality = 90

// Resizer converts source image bytes into JPEG thumbnails at a target
// height. It holds no mutable state and is safe for concurrent use from
// multiple jobs.
type Resizer struct {
	Quality int
}

func NewResizer() *Resizer {
	return &Resizer{Quality: defaultJPEGQuality}
}

// ResizeToHeight decodes src (JPEG or PNG), scales it to the target
// height with a Lanczos filter keeping the aspect ratio, and returns the
// JPEG-encoded result along with the computed width round(W*h/H).
func (r *Resizer) ResizeToHeight(src []byte, height int) ([]byte, int, error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// Width 0 lets imaging derive it from the aspect ratio.
	resized := imaging.Resize(img, 0, height, imaging.Lanczos)

	quality := r.Quality
	if quality == 0 {
		quality = defaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return buf.Bytes(), resized.Bounds().Dx(), nil
}

// Dimensions decodes just enough of src to report its pixel size.
func Dimensions(src []byte) (width, height int, err error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy(), nil
}
