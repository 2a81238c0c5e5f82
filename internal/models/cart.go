package models

import (
	"encoding/json"
	"strings"
)

// MaxLineQuantity 单行数量上限
const MaxLineQuantity = 9999

// ProductSnapshot 商品展示字段快照
type ProductSnapshot struct {
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	Brand         string `json:"brand"`
	Price         Money  `json:"price"`
	OriginalPrice *Money `json:"original_price,omitempty"`
	Image         string `json:"image"`
}

// CartLine 购物车行（下单时整体复制为订单行快照）
type CartLine struct {
	ProductID         string            `json:"product_id"`
	Name              string            `json:"name"`
	Brand             string            `json:"brand"`
	UnitPrice         Money             `json:"unit_price"`
	OriginalUnitPrice *Money            `json:"original_unit_price,omitempty"`
	Image             string            `json:"image"`
	Quantity          int               `json:"quantity"`
	Options           map[string]string `json:"options"`
}

// WishlistItem 心愿单条目
type WishlistItem = ProductSnapshot

// CanonicalOptions 返回规格的规范序列化（键有序），空规格为 {}
func CanonicalOptions(options map[string]string) string {
	if len(options) == 0 {
		return "{}"
	}
	normalized := make(map[string]string, len(options))
	for key, value := range options {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		normalized[k] = strings.TrimSpace(value)
	}
	if len(normalized) == 0 {
		return "{}"
	}
	// encoding/json 对 map 键排序输出
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "{}"
	}
	return string(payload)
}

// LineKey 购物车行身份键：商品 ID + 规格
func LineKey(productID string, options map[string]string) string {
	return strings.TrimSpace(productID) + "|" + CanonicalOptions(options)
}

// Key 返回行身份键
func (l CartLine) Key() string {
	return LineKey(l.ProductID, l.Options)
}

// LineTotal 行金额
func (l CartLine) LineTotal() Money {
	return l.UnitPrice.MulInt(l.Quantity)
}

// Clone 深拷贝购物车行
func (l CartLine) Clone() CartLine {
	cloned := l
	if l.OriginalUnitPrice != nil {
		price := *l.OriginalUnitPrice
		cloned.OriginalUnitPrice = &price
	}
	if l.Options != nil {
		cloned.Options = make(map[string]string, len(l.Options))
		for key, value := range l.Options {
			cloned.Options[key] = value
		}
	}
	return cloned
}

// CloneLines 深拷贝行列表
func CloneLines(lines []CartLine) []CartLine {
	cloned := make([]CartLine, 0, len(lines))
	for _, line := range lines {
		cloned = append(cloned, line.Clone())
	}
	return cloned
}

// Validate 校验远端读取的购物车行
func (l CartLine) Validate() bool {
	if strings.TrimSpace(l.ProductID) == "" {
		return false
	}
	if l.Quantity < 1 || l.Quantity > MaxLineQuantity {
		return false
	}
	if l.UnitPrice.IsNegative() {
		return false
	}
	return true
}
