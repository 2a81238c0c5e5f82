package repository

import "time"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Category   string
	Search     string
	OnlyActive bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      string
	Status      string
	Search      string // 按订单号、收件人姓名、邮箱模糊匹配
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
