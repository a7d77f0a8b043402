package assets

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
)

// DecodedImage is a tightly-packed RGBA8 image ready to upload into a
// bindless-allocated rg.Image.
type DecodedImage struct {
	Width, Height int
	Pixels        []byte // width*height*4 bytes, row-major, no padding
}

// DecodeImageFile decodes a PNG, JPEG, or BMP file into RGBA8 pixels,
// feeding the image ingestion path a glTF-decoded document would
// otherwise produce (glTF parsing itself is out of scope here).
//
// Grounded on the teacher's engine/assets/loaders/image.go ImageLoader,
// replacing its cgo stb_image binding with the stdlib image codecs plus
// golang.org/x/image/bmp for the one common format the stdlib lacks.
func DecodeImageFile(path string) (*DecodedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("assets: open image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("assets: decode image %s: %w", path, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	return &DecodedImage{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: rgba.Pix,
	}, nil
}
