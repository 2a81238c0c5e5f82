package models

// Product 商品目录文档（products 集合）
type Product struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Brand         string              `json:"brand"`
	Category      string              `json:"category"`
	Description   string              `json:"description"`
	Price         Money               `json:"price"`
	OriginalPrice *Money              `json:"original_price,omitempty"`
	Image         string              `json:"image"`
	Options       map[string][]string `json:"options"` // 可选规格，例如 size: [S, M, L]
	Stock         int                 `json:"stock"`
	IsActive      bool                `json:"is_active"`
}

// Snapshot 生成商品展示字段快照
func (p *Product) Snapshot() ProductSnapshot {
	snapshot := ProductSnapshot{
		ProductID: p.ID,
		Name:      p.Name,
		Brand:     p.Brand,
		Price:     p.Price,
		Image:     p.Image,
	}
	if p.OriginalPrice != nil {
		price := *p.OriginalPrice
		snapshot.OriginalPrice = &price
	}
	return snapshot
}
