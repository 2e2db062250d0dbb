package asset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	// 压缩后最长边上限与缩略图边长（像素）。
	maxImageDimension = 1600
	thumbnailSize     = 300
)

// ErrBadCrop 表示裁剪矩形超出图片边界或为空。
var ErrBadCrop = errors.New("crop rectangle out of bounds")

// CropRect 是以像素计的裁剪矩形。
type CropRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ImageProcessor 负责上传图片的压缩、缩略图与裁剪，统一重编码为 JPEG。
type ImageProcessor struct {
	quality int
}

// NewImageProcessor 构造图片处理器；quality 超出 (0,100] 时取 85。
func NewImageProcessor(quality int) *ImageProcessor {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &ImageProcessor{quality: quality}
}

// Compress 把图片等比缩放到最长边不超过 maxImageDimension 并重编码。
// 小于上限的图片不放大，只做重编码。
func (p *ImageProcessor) Compress(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return p.encode(p.downscale(img, maxImageDimension))
}

// Thumbnail 生成最长边为 thumbnailSize 的 JPEG 缩略图。
func (p *ImageProcessor) Thumbnail(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return p.encode(p.downscale(img, thumbnailSize))
}

// Crop 先裁剪再压缩。
func (p *ImageProcessor) Crop(data []byte, rect CropRect) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	region := image.Rect(rect.X, rect.Y, rect.X+rect.Width, rect.Y+rect.Height)
	if rect.Width <= 0 || rect.Height <= 0 || !region.In(img.Bounds()) {
		return nil, ErrBadCrop
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Width, rect.Height))
	draw.Copy(dst, image.Point{}, img, region, draw.Src, nil)

	return p.encode(p.downscale(dst, maxImageDimension))
}

// downscale 等比缩放到最长边不超过 maxDim，不放大。
func (p *ImageProcessor) downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= maxDim && height <= maxDim {
		return img
	}

	ratio := float64(width) / float64(height)
	newWidth := maxDim
	newHeight := maxDim
	if ratio > 1 {
		newHeight = int(float64(maxDim) / ratio)
	} else {
		newWidth = int(float64(maxDim) * ratio)
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func (p *ImageProcessor) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
