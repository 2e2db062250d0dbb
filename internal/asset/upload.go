package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"resumeforge/internal/database"
)

// Kind 是按 MIME 前缀归类的资产类型。
type Kind string

const (
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindDocument Kind = "document"
)

var (
	ErrTooLarge        = errors.New("file exceeds size limit")
	ErrTooManyFiles    = errors.New("per-user file limit reached")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Limits 约束单次上传与单用户的文件规模。
type Limits struct {
	MaxSizeBytes    int64
	MaxFilesPerUser int64
	AllowedTypes    []string
	ImageQuality    int
}

// DefaultLimits 返回默认上传限制。
func DefaultLimits() Limits {
	return Limits{
		MaxSizeBytes:    10 << 20,
		MaxFilesPerUser: 100,
		AllowedTypes: []string{
			"image/jpeg", "image/png", "image/gif",
			"video/mp4", "video/webm",
			"application/pdf",
		},
		ImageQuality: 85,
	}
}

// ObjectStore 是上传服务依赖的对象存储操作子集。
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	DeleteObject(ctx context.Context, objectKey string) error
}

// Service 执行上传校验、图片加工与对象落盘。
type Service struct {
	store   ObjectStore
	db      *gorm.DB
	scanner Scanner
	images  *ImageProcessor
	limits  Limits
	logger  *slog.Logger
}

// NewService 构造上传服务；scanner 为 nil 时跳过病毒扫描。
func NewService(store ObjectStore, db *gorm.DB, scanner Scanner, limits Limits, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	quality := limits.ImageQuality
	if quality <= 0 {
		quality = 85
	}
	return &Service{
		store:   store,
		db:      db,
		scanner: scanner,
		images:  NewImageProcessor(quality),
		limits:  limits,
		logger:  logger,
	}
}

// UploadRequest 描述一次上传。Crop 只对图片生效。
type UploadRequest struct {
	UserID   uint
	Filename string
	Data     []byte
	Crop     *CropRect
}

// FileUpload 是一次成功上传的结果。Release 删除落盘对象与记录，
// 幂等：第二次调用是空操作。
type FileUpload struct {
	ID           string
	ObjectKey    string
	ThumbnailKey string
	Kind         Kind
	ContentType  string
	SizeBytes    int64

	svc      *Service
	recordID uint
	released atomic.Bool
}

// RecordID 返回资产记录的数据库主键，删除接口以它定位记录。
func (u *FileUpload) RecordID() uint {
	return u.recordID
}

// Upload 校验并保存一个上传文件。
// 校验顺序：大小、MIME 允许列表、单用户数量、病毒扫描。
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*FileUpload, error) {
	if int64(len(req.Data)) > s.limits.MaxSizeBytes {
		s.logger.Warn("upload rejected: too large",
			slog.Uint64("user_id", uint64(req.UserID)),
			slog.Int("size", len(req.Data)),
		)
		return nil, ErrTooLarge
	}

	mtype := mimetype.Detect(req.Data)
	if !s.typeAllowed(mtype) {
		s.logger.Warn("upload rejected: unsupported type",
			slog.Uint64("user_id", uint64(req.UserID)),
			slog.String("detected", mtype.String()),
		)
		return nil, ErrUnsupportedType
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&database.Asset{}).
		Where("user_id = ?", req.UserID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count user assets: %w", err)
	}
	if count >= s.limits.MaxFilesPerUser {
		s.logger.Warn("upload rejected: file limit reached",
			slog.Uint64("user_id", uint64(req.UserID)),
			slog.Int64("count", count),
		)
		return nil, ErrTooManyFiles
	}

	if s.scanner != nil {
		if err := s.scanner.Scan(ctx, bytes.NewReader(req.Data)); err != nil {
			if errors.Is(err, ErrInfected) {
				s.logger.Warn("upload rejected: scan hit", slog.Uint64("user_id", uint64(req.UserID)))
				return nil, err
			}
			return nil, fmt.Errorf("virus scan: %w", err)
		}
	}

	kind := classifyKind(mtype.String())
	data := req.Data
	contentType := mtype.String()
	ext := mtype.Extension()
	var thumbnail []byte

	if kind == KindImage {
		var err error
		if req.Crop != nil {
			data, err = s.images.Crop(data, *req.Crop)
		} else {
			data, err = s.images.Compress(data)
		}
		if err != nil {
			return nil, fmt.Errorf("process image: %w", err)
		}
		contentType = "image/jpeg"
		ext = ".jpg"

		thumbnail, err = s.images.Thumbnail(req.Data)
		if err != nil {
			s.logger.Warn("thumbnail generation failed, continuing", slog.Any("error", err))
			thumbnail = nil
		}
	}

	id := uuid.NewString()
	objectKey := fmt.Sprintf("user-assets/%d/%s%s", req.UserID, id, ext)
	if err := s.store.UploadFile(ctx, objectKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, fmt.Errorf("store object: %w", err)
	}

	thumbnailKey := ""
	if len(thumbnail) > 0 {
		thumbnailKey = fmt.Sprintf("user-assets/%d/%s_thumb.jpg", req.UserID, id)
		if err := s.store.UploadFile(ctx, thumbnailKey, bytes.NewReader(thumbnail), int64(len(thumbnail)), "image/jpeg"); err != nil {
			s.logger.Warn("store thumbnail failed, continuing", slog.Any("error", err))
			thumbnailKey = ""
		}
	}

	row := database.Asset{
		UserID:       req.UserID,
		ObjectKey:    objectKey,
		ThumbnailKey: thumbnailKey,
		Kind:         string(kind),
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		// 记录失败时回收已落盘对象，避免孤儿
		_ = s.store.DeleteObject(ctx, objectKey)
		if thumbnailKey != "" {
			_ = s.store.DeleteObject(ctx, thumbnailKey)
		}
		return nil, fmt.Errorf("record asset: %w", err)
	}

	return &FileUpload{
		ID:           id,
		ObjectKey:    objectKey,
		ThumbnailKey: thumbnailKey,
		Kind:         kind,
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
		svc:          s,
		recordID:     row.ID,
	}, nil
}

// Release 删除对象、缩略图与数据库记录。重复调用直接返回 nil。
func (u *FileUpload) Release(ctx context.Context) error {
	if !u.released.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if err := u.svc.store.DeleteObject(ctx, u.ObjectKey); err != nil {
		errs = append(errs, err)
	}
	if u.ThumbnailKey != "" {
		if err := u.svc.store.DeleteObject(ctx, u.ThumbnailKey); err != nil {
			errs = append(errs, err)
		}
	}
	if err := u.svc.db.WithContext(ctx).Delete(&database.Asset{}, u.recordID).Error; err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Delete 删除用户的一个资产：对象、缩略图与数据库记录。
// 资产不属于该用户或不存在时返回 gorm.ErrRecordNotFound。
func (s *Service) Delete(ctx context.Context, userID, assetID uint) error {
	var row database.Asset
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", assetID, userID).
		First(&row).Error; err != nil {
		return err
	}

	var errs []error
	if err := s.store.DeleteObject(ctx, row.ObjectKey); err != nil {
		errs = append(errs, err)
	}
	if row.ThumbnailKey != "" {
		if err := s.store.DeleteObject(ctx, row.ThumbnailKey); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.db.WithContext(ctx).Delete(&database.Asset{}, row.ID).Error; err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Service) typeAllowed(mtype *mimetype.MIME) bool {
	for _, allowed := range s.limits.AllowedTypes {
		if mtype.Is(allowed) {
			return true
		}
	}
	return false
}

func classifyKind(contentType string) Kind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return KindImage
	case strings.HasPrefix(contentType, "video/"):
		return KindVideo
	default:
		return KindDocument
	}
}
