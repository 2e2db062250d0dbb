package form

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var richTextPolicy = bluemonday.UGCPolicy()

// Validate 对一次表单提交做校验。
// values 是字段名到候选值的扁平映射；返回字段名到错误消息的映射，
// 空映射表示提交合法。合法提交中的 richtext 值已被就地清洗。
//
// 与前端行为保持一致的已知缺口：select/radio 的值不强制落在 Options 内。
func Validate(fields []FieldConfig, values map[string]any) map[string]string {
	violations := make(map[string]string)

	for _, field := range fields {
		value, present := values[field.Name]

		if field.Required && isEmpty(value) {
			violations[field.Name] = fmt.Sprintf("%s is required", field.Label)
			continue
		}
		if !present || isEmpty(value) {
			continue
		}

		switch field.Type {
		case TypeNumber:
			num, ok := asNumber(value)
			if !ok {
				violations[field.Name] = fmt.Sprintf("%s must be a number", field.Label)
				continue
			}
			if msg := checkNumberBounds(field, num); msg != "" {
				violations[field.Name] = msg
			}
		case TypeMultiSelect:
			set, ok := asStringSlice(value)
			if !ok {
				violations[field.Name] = fmt.Sprintf("%s must be a list of options", field.Label)
				continue
			}
			if msg := checkMultiSelect(field, set); msg != "" {
				violations[field.Name] = msg
			}
		case TypeCheckbox:
			if _, ok := value.(bool); !ok {
				violations[field.Name] = fmt.Sprintf("%s must be true or false", field.Label)
			}
		case TypeRichText:
			text, ok := value.(string)
			if !ok {
				violations[field.Name] = fmt.Sprintf("%s must be text", field.Label)
				continue
			}
			sanitized := richTextPolicy.Sanitize(text)
			if msg := checkStringConstraints(field, sanitized); msg != "" {
				violations[field.Name] = msg
				continue
			}
			values[field.Name] = sanitized
		case TypeFile, TypeImage, TypeVideo:
			// 文件字段的值是上传后的对象键，这里只校验形状；
			// MIME 与大小约束在上传时由 asset 服务执行。
			if msg := checkFileValue(field, value); msg != "" {
				violations[field.Name] = msg
			}
		default:
			text, ok := value.(string)
			if !ok {
				violations[field.Name] = fmt.Sprintf("%s must be text", field.Label)
				continue
			}
			if msg := checkStringConstraints(field, text); msg != "" {
				violations[field.Name] = msg
			}
		}
	}

	return violations
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func asStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func checkStringConstraints(field FieldConfig, text string) string {
	c := field.Validation
	length := len([]rune(text))
	if c.MinLength > 0 && length < c.MinLength {
		return fmt.Sprintf("%s must be at least %d characters", field.Label, c.MinLength)
	}
	if c.MaxLength > 0 && length > c.MaxLength {
		return fmt.Sprintf("%s must be at most %d characters", field.Label, c.MaxLength)
	}
	if c.Pattern != "" {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			// 非法的管理端正则不应拦截用户提交。
			return ""
		}
		if !re.MatchString(text) {
			return fmt.Sprintf("%s has an invalid format", field.Label)
		}
	}
	return ""
}

func checkNumberBounds(field FieldConfig, num float64) string {
	c := field.Validation
	if c.Min != nil && num < *c.Min {
		return fmt.Sprintf("%s must be at least %v", field.Label, *c.Min)
	}
	if c.Max != nil && num > *c.Max {
		return fmt.Sprintf("%s must be at most %v", field.Label, *c.Max)
	}
	return ""
}

func checkMultiSelect(field FieldConfig, set []string) string {
	if len(field.Options) == 0 {
		return ""
	}
	allowed := make(map[string]bool, len(field.Options))
	for _, opt := range field.Options {
		allowed[opt] = true
	}
	for _, item := range set {
		if !allowed[item] {
			return fmt.Sprintf("%s contains an unknown option %q", field.Label, item)
		}
	}
	return ""
}

func checkFileValue(field FieldConfig, value any) string {
	switch v := value.(type) {
	case string:
		return ""
	case []string:
		if field.FileConfig != nil && field.FileConfig.MaxFiles > 0 && len(v) > field.FileConfig.MaxFiles {
			return fmt.Sprintf("%s accepts at most %d files", field.Label, field.FileConfig.MaxFiles)
		}
		return ""
	case []any:
		if field.FileConfig != nil && field.FileConfig.MaxFiles > 0 && len(v) > field.FileConfig.MaxFiles {
			return fmt.Sprintf("%s accepts at most %d files", field.Label, field.FileConfig.MaxFiles)
		}
		return ""
	default:
		return fmt.Sprintf("%s must reference uploaded files", field.Label)
	}
}
