package api

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// isValidUserAssetObjectKey 校验对象键只能指向请求者自己的资产前缀。
// 资产类型不止图片，后缀不做白名单限制。
func isValidUserAssetObjectKey(userID uint, key string) bool {
	if key == "" || !utf8.ValidString(key) {
		return false
	}
	expected := fmt.Sprintf("user-assets/%d/", userID)
	if !strings.HasPrefix(key, expected) {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	if len(key) > 200 {
		return false
	}
	return true
}
