package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumeforge/internal/asset"
	"resumeforge/internal/database"
)

// AssetHandler 处理用户文件上传、列举与访问链接签发。
// 扫描、压缩、缩略图等上传流水线在 asset.Service 中完成。
type AssetHandler struct {
	svc     *asset.Service
	db      *gorm.DB
	storage objectStorage
	logger  *slog.Logger
}

// NewAssetHandler 构造资产处理器。
func NewAssetHandler(svc *asset.Service, db *gorm.DB, storageClient objectStorage, logger *slog.Logger) *AssetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetHandler{svc: svc, db: db, storage: storageClient, logger: logger}
}

const (
	assetListURLTTL = 10 * time.Minute
	assetViewURLTTL = 15 * time.Minute
)

// UploadAsset 接收 multipart 上传，可选携带裁剪矩形（仅对图片生效）。
func (h *AssetHandler) UploadAsset(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file field")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		BadRequest(c, "failed to open uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		Internal(c, "failed to read uploaded file")
		return
	}

	crop, err := cropFromForm(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	upload, err := h.svc.Upload(c.Request.Context(), asset.UploadRequest{
		UserID:   userID,
		Filename: fileHeader.Filename,
		Data:     data,
		Crop:     crop,
	})
	if err != nil {
		h.replyUploadError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":            upload.RecordID(),
		"object_key":    upload.ObjectKey,
		"thumbnail_key": upload.ThumbnailKey,
		"kind":          upload.Kind,
		"content_type":  upload.ContentType,
		"size":          upload.SizeBytes,
	})
}

func (h *AssetHandler) replyUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, asset.ErrTooLarge):
		Error(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, asset.ErrUnsupportedType):
		Error(c, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, asset.ErrTooManyFiles):
		Forbidden(c, err.Error())
	case errors.Is(err, asset.ErrInfected):
		BadRequest(c, err.Error())
	case errors.Is(err, asset.ErrBadCrop):
		BadRequest(c, err.Error())
	default:
		h.logger.Error("asset upload failed", slog.Any("error", err))
		Internal(c, "failed to store file")
	}
}

type assetListItem struct {
	ID           uint   `json:"id"`
	Kind         string `json:"kind"`
	ContentType  string `json:"content_type"`
	SizeBytes    int64  `json:"size"`
	URL          string `json:"url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// ListAssets 列出当前用户的资产，附带短期有效的访问链接。
func (h *AssetHandler) ListAssets(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var rows []database.Asset
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		Internal(c, "failed to query assets")
		return
	}

	items := make([]assetListItem, 0, len(rows))
	for _, row := range rows {
		item := assetListItem{
			ID:          row.ID,
			Kind:        row.Kind,
			ContentType: row.ContentType,
			SizeBytes:   row.SizeBytes,
		}
		item.URL = h.presignQuiet(c, row.ObjectKey, assetListURLTTL)
		if row.ThumbnailKey != "" {
			item.ThumbnailURL = h.presignQuiet(c, row.ThumbnailKey, assetListURLTTL)
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{"assets": items})
}

// ViewAsset 为指定对象键签发临时访问链接，只允许访问自己的前缀。
func (h *AssetHandler) ViewAsset(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	key := c.Query("key")
	if !isValidUserAssetObjectKey(userID, key) {
		BadRequest(c, "invalid object key")
		return
	}

	url, err := h.storage.GeneratePresignedURL(c.Request.Context(), key, assetViewURLTTL)
	if err != nil {
		h.logger.Error("presign asset failed", slog.String("key", key), slog.Any("error", err))
		Internal(c, "failed to generate link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// DeleteAsset 删除资产及其缩略图。
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	assetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || assetID == 0 {
		BadRequest(c, "invalid asset id")
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, uint(assetID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "asset not found")
			return
		}
		h.logger.Error("delete asset failed", slog.Uint64("asset_id", assetID), slog.Any("error", err))
		Internal(c, "failed to delete asset")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AssetHandler) presignQuiet(c *gin.Context, key string, ttl time.Duration) string {
	url, err := h.storage.GeneratePresignedURL(c.Request.Context(), key, ttl)
	if err != nil {
		h.logger.Warn("presign asset failed", slog.String("key", key), slog.Any("error", err))
		return ""
	}
	return url
}

// cropFromForm 从表单字段解析裁剪矩形，四个字段必须同时出现。
func cropFromForm(c *gin.Context) (*asset.CropRect, error) {
	raw := [4]string{
		c.PostForm("crop_x"),
		c.PostForm("crop_y"),
		c.PostForm("crop_w"),
		c.PostForm("crop_h"),
	}
	if raw[0] == "" && raw[1] == "" && raw[2] == "" && raw[3] == "" {
		return nil, nil
	}

	var vals [4]int
	for i, s := range raw {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.New("invalid crop parameters")
		}
		vals[i] = v
	}
	return &asset.CropRect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}
