package images

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog/log"
)

// DefaultMIMEType is declared for every image unless content sniffing is
// enabled. PNG, GIF and WebP files are therefore labelled as JPEG.
const DefaultMIMEType = "image/jpeg"

// ImageFile is a photo as read from disk.
type ImageFile struct {
	Path string
	Data []byte
}

// EncodedImage is an image ready to be embedded in a request payload.
type EncodedImage struct {
	Path     string
	Base64   string
	MIMEType string
	Size     int
}

// Read loads the full contents of the file at p.
func Read(fs billy.Filesystem, p string) (*ImageFile, error) {
	data, err := util.ReadFile(fs, p)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrIO, p, err)
	}
	return &ImageFile{Path: p, Data: data}, nil
}

// Encode reads the file at p and base64-encodes its bytes as-is.
func Encode(fs billy.Filesystem, p string, detectMIME bool) (*EncodedImage, error) {
	img, err := Read(fs, p)
	if err != nil {
		return nil, err
	}
	return EncodeFile(img, detectMIME), nil
}

// EncodeFile encodes an already loaded image.
func EncodeFile(img *ImageFile, detectMIME bool) *EncodedImage {
	mimeType := DefaultMIMEType
	if detectMIME {
		mimeType = sniffMIMEType(img.Data)
	}
	return &EncodedImage{
		Path:     img.Path,
		Base64:   base64.StdEncoding.EncodeToString(img.Data),
		MIMEType: mimeType,
		Size:     len(img.Data),
	}
}

// EncodeAll encodes the files one at a time, in order, and stops at the
// first failure.
func EncodeAll(fs billy.Filesystem, paths []string, detectMIME bool) ([]*EncodedImage, error) {
	encoded := make([]*EncodedImage, 0, len(paths))
	for _, p := range paths {
		img, err := Encode(fs, p, detectMIME)
		if err != nil {
			return nil, err
		}
		log.Debug().
			Str("path", p).
			Int("bytes", img.Size).
			Str("mimeType", img.MIMEType).
			Msg("encoded image")
		encoded = append(encoded, img)
	}
	return encoded, nil
}

// Decode returns the raw bytes of an encoded image.
func Decode(img *EncodedImage) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(img.Base64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", img.Path, err)
	}
	return data, nil
}

// DataURL renders the image as a data URL.
func DataURL(img *EncodedImage) string {
	return fmt.Sprintf("data:%s;base64,%s", img.MIMEType, img.Base64)
}

func sniffMIMEType(data []byte) string {
	mt := mimetype.Detect(data)
	if mt == nil || !strings.HasPrefix(mt.String(), "image/") {
		return DefaultMIMEType
	}
	return mt.String()
}
