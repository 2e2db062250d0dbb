package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumeforge/internal/database"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("expected jpeg output, got %s", format)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestCompressDownscalesLargeImages(t *testing.T) {
	p := NewImageProcessor(85)

	out, err := p.Compress(pngBytes(t, 2000, 1000))
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	w, h := decodeDims(t, out)
	if w != 1600 || h != 800 {
		t.Fatalf("expected 1600x800, got %dx%d", w, h)
	}
}

func TestCompressKeepsSmallImages(t *testing.T) {
	p := NewImageProcessor(85)

	out, err := p.Compress(pngBytes(t, 120, 80))
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if w, h := decodeDims(t, out); w != 120 || h != 80 {
		t.Fatalf("small image should not be resized, got %dx%d", w, h)
	}
}

func TestThumbnailBounds(t *testing.T) {
	p := NewImageProcessor(85)

	out, err := p.Thumbnail(pngBytes(t, 600, 400))
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	if w, h := decodeDims(t, out); w != 300 || h != 200 {
		t.Fatalf("expected 300x200 thumbnail, got %dx%d", w, h)
	}
}

func TestCrop(t *testing.T) {
	p := NewImageProcessor(85)
	src := pngBytes(t, 100, 100)

	out, err := p.Crop(src, CropRect{X: 10, Y: 10, Width: 50, Height: 40})
	if err != nil {
		t.Fatalf("crop: %v", err)
	}
	if w, h := decodeDims(t, out); w != 50 || h != 40 {
		t.Fatalf("expected 50x40 crop, got %dx%d", w, h)
	}

	if _, err := p.Crop(src, CropRect{X: 80, Y: 80, Width: 50, Height: 50}); !errors.Is(err, ErrBadCrop) {
		t.Fatalf("expected ErrBadCrop, got %v", err)
	}
	if _, err := p.Crop(src, CropRect{X: 0, Y: 0, Width: 0, Height: 10}); !errors.Is(err, ErrBadCrop) {
		t.Fatalf("expected ErrBadCrop for empty rect, got %v", err)
	}
}

// fakeStore 记录上传与删除的对象。
type fakeStore struct {
	objects map[string][]byte
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.objects[objectName] = data
	return nil
}

func (f *fakeStore) DeleteObject(_ context.Context, objectKey string) error {
	delete(f.objects, objectKey)
	f.deleted = append(f.deleted, objectKey)
	return nil
}

type infectedScanner struct{}

func (infectedScanner) Scan(context.Context, io.Reader) error { return ErrInfected }

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestUploadImage(t *testing.T) {
	store := newFakeStore()
	db := openTestDB(t)
	svc := NewService(store, db, nil, DefaultLimits(), nil)

	up, err := svc.Upload(context.Background(), UploadRequest{
		UserID:   7,
		Filename: "photo.png",
		Data:     pngBytes(t, 400, 400),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if up.Kind != KindImage {
		t.Fatalf("expected image kind, got %s", up.Kind)
	}
	if up.ContentType != "image/jpeg" {
		t.Fatalf("images should be re-encoded to jpeg, got %s", up.ContentType)
	}
	if _, ok := store.objects[up.ObjectKey]; !ok {
		t.Fatal("object not stored")
	}
	if up.ThumbnailKey == "" {
		t.Fatal("expected thumbnail for image upload")
	}
	if _, ok := store.objects[up.ThumbnailKey]; !ok {
		t.Fatal("thumbnail not stored")
	}

	var count int64
	db.Model(&database.Asset{}).Where("user_id = ?", 7).Count(&count)
	if count != 1 {
		t.Fatalf("expected one asset row, got %d", count)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc := NewService(newFakeStore(), openTestDB(t), nil, DefaultLimits(), nil)

	_, err := svc.Upload(context.Background(), UploadRequest{
		UserID: 1,
		Data:   []byte("#!/bin/sh\nrm -rf /\n"),
	})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestUploadRejectsOversize(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxSizeBytes = 16
	svc := NewService(newFakeStore(), openTestDB(t), nil, limits, nil)

	_, err := svc.Upload(context.Background(), UploadRequest{UserID: 1, Data: pngBytes(t, 50, 50)})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestUploadEnforcesFileCount(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxFilesPerUser = 1
	svc := NewService(newFakeStore(), openTestDB(t), nil, limits, nil)

	if _, err := svc.Upload(context.Background(), UploadRequest{UserID: 1, Data: pngBytes(t, 20, 20)}); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if _, err := svc.Upload(context.Background(), UploadRequest{UserID: 1, Data: pngBytes(t, 20, 20)}); !errors.Is(err, ErrTooManyFiles) {
		t.Fatalf("expected ErrTooManyFiles, got %v", err)
	}
	// 其他用户不受影响
	if _, err := svc.Upload(context.Background(), UploadRequest{UserID: 2, Data: pngBytes(t, 20, 20)}); err != nil {
		t.Fatalf("other user upload: %v", err)
	}
}

func TestUploadRejectsInfectedFile(t *testing.T) {
	svc := NewService(newFakeStore(), openTestDB(t), infectedScanner{}, DefaultLimits(), nil)

	_, err := svc.Upload(context.Background(), UploadRequest{UserID: 1, Data: pngBytes(t, 20, 20)})
	if !errors.Is(err, ErrInfected) {
		t.Fatalf("expected ErrInfected, got %v", err)
	}
}

func TestUploadWithCrop(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, openTestDB(t), nil, DefaultLimits(), nil)

	up, err := svc.Upload(context.Background(), UploadRequest{
		UserID: 1,
		Data:   pngBytes(t, 100, 100),
		Crop:   &CropRect{X: 0, Y: 0, Width: 60, Height: 30},
	})
	if err != nil {
		t.Fatalf("upload with crop: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(store.objects[up.ObjectKey]))
	if err != nil {
		t.Fatalf("decode stored object: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 60 || b.Dy() != 30 {
		t.Fatalf("expected 60x30 stored image, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	store := newFakeStore()
	db := openTestDB(t)
	svc := NewService(store, db, nil, DefaultLimits(), nil)

	up, err := svc.Upload(context.Background(), UploadRequest{UserID: 3, Data: pngBytes(t, 40, 40)})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := up.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok := store.objects[up.ObjectKey]; ok {
		t.Fatal("object should be deleted")
	}
	var count int64
	db.Model(&database.Asset{}).Where("user_id = ?", 3).Count(&count)
	if count != 0 {
		t.Fatalf("asset row should be deleted, got %d", count)
	}

	deletions := len(store.deleted)
	if err := up.Release(context.Background()); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if len(store.deleted) != deletions {
		t.Fatal("second release must be a no-op")
	}
}
