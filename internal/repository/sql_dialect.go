package repository

import (
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

var jsonPathSegmentPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// splitJSONPath 拆分点分隔的字段路径，拒绝非法字符避免注入。
func splitJSONPath(path string) ([]string, error) {
	segments := strings.Split(strings.TrimSpace(path), ".")
	for _, segment := range segments {
		if !jsonPathSegmentPattern.MatchString(segment) {
			return nil, fmt.Errorf("invalid document field path: %q", path)
		}
	}
	return segments, nil
}

// jsonTextExprByDialect 构建 JSON 字段文本提取表达式，兼容 sqlite 与 postgres。
func jsonTextExprByDialect(dialect, column string, segments []string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		// postgres 统一转 jsonb 后再使用 #>> 提取文本
		return fmt.Sprintf("(%s::jsonb #>> '{%s}')", column, strings.Join(segments, ","))
	default:
		return fmt.Sprintf("json_extract(%s, '$.%s')", column, strings.Join(segments, "."))
	}
}

// documentFieldExpr 将字段名映射为 SQL 表达式：保留列直接使用，其余从 body 中提取。
func documentFieldExpr(db *gorm.DB, field string) (string, error) {
	switch strings.TrimSpace(field) {
	case FieldID:
		return "id", nil
	case FieldCreatedAt:
		return "created_at", nil
	case FieldUpdatedAt:
		return "updated_at", nil
	case FieldVersion:
		return "version", nil
	}
	segments, err := splitJSONPath(field)
	if err != nil {
		return "", err
	}
	return jsonTextExprByDialect(dbDialectName(db), "body", segments), nil
}

func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// escapeLike 转义 LIKE 通配符。
func escapeLike(keyword string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(keyword)
}
