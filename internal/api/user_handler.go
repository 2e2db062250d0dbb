package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumeforge/internal/database"
)

// UserHandler 提供管理端的用户查询与删除。
type UserHandler struct {
	db      *gorm.DB
	storage objectStorage
	logger  *slog.Logger
}

// NewUserHandler 构造用户管理处理器。
func NewUserHandler(db *gorm.DB, storageClient objectStorage, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{db: db, storage: storageClient, logger: logger}
}

type userListItem struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Permissions string    `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListUsers 返回全部账号。
func (h *UserHandler) ListUsers(c *gin.Context) {
	var users []database.User
	if err := h.db.WithContext(c.Request.Context()).Order("id").Find(&users).Error; err != nil {
		Internal(c, "failed to query users")
		return
	}

	items := make([]userListItem, 0, len(users))
	for _, u := range users {
		items = append(items, userListItem{
			ID:          u.ID,
			Username:    u.Username,
			Email:       u.Email,
			Permissions: u.Permissions,
			CreatedAt:   u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": items})
}

// DeleteUser 删除账号及其简历，对象存储中的资产前缀做尽力清理。
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "invalid user id")
		return
	}

	if requesterID, ok := userIDFromContext(c); ok && requesterID == uint(id) {
		BadRequest(c, "cannot delete own account")
		return
	}

	ctx := c.Request.Context()
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&database.Resume{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&database.Asset{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&database.ExportRecord{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&database.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			NotFound(c, "user not found")
			return
		}
		h.logger.Error("delete user failed", slog.Uint64("user_id", id), slog.Any("error", err))
		Internal(c, "failed to delete user")
		return
	}

	// 对象清理失败不回滚账号删除，留给后台巡检兜底。
	if err := h.storage.DeletePrefix(ctx, fmt.Sprintf("user-assets/%d/", id)); err != nil {
		h.logger.Warn("cleanup user assets failed", slog.Uint64("user_id", id), slog.Any("error", err))
	}

	c.Status(http.StatusNoContent)
}
