package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSON 文档内容，按字段名保存任意结构
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	payload, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

// Scan 实现 sql.Scanner 接口（兼容 []byte 与 string）
func (j *JSON) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*j = JSON{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
	if len(raw) == 0 {
		*j = JSON{}
		return nil
	}
	decoded := JSON{}
	if err := DecodeRaw(raw, &decoded); err != nil {
		return err
	}
	*j = decoded
	return nil
}

// Document 文档存储表，所有集合共用一张表
type Document struct {
	Collection string    `gorm:"primaryKey;size:64" json:"collection"`   // 集合名称
	ID         string    `gorm:"primaryKey;size:64" json:"id"`           // 文档 ID
	Body       JSON      `gorm:"type:text;not null" json:"body"`         // 文档内容
	Version    int64     `gorm:"not null;default:1" json:"version"`      // 版本号（比较交换用）
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt  time.Time `gorm:"index" json:"updated_at"`                // 更新时间
}

// TableName 指定表名
func (Document) TableName() string {
	return "documents"
}

// EncodeJSON 将结构体转为文档内容
func EncodeJSON(value interface{}) (JSON, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	body := JSON{}
	if err := DecodeRaw(payload, &body); err != nil {
		return nil, err
	}
	return body, nil
}

// DecodeJSON 将文档内容解码到结构体
func DecodeJSON(body JSON, dest interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return DecodeRaw(payload, dest)
}

// DecodeRaw 解码时数字保留为 json.Number，避免大整数经 float64 失真
func DecodeRaw(raw []byte, dest interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	return decoder.Decode(dest)
}
