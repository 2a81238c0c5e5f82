package models

import "time"

// PaymentDescriptor 支付方式描述（只保留脱敏信息）
type PaymentDescriptor struct {
	Method    string `json:"method"`               // card / paypal
	CardBrand string `json:"card_brand,omitempty"` // visa / mastercard / amex / discover
	Last4     string `json:"last4,omitempty"`      // 卡号后四位
}

// Order 订单文档（orders 集合）
type Order struct {
	ID                string            `json:"id"`
	UserID            string            `json:"user_id"`
	Items             []CartLine        `json:"items"`
	Subtotal          Money             `json:"subtotal"`
	Tax               Money             `json:"tax"`
	Shipping          Money             `json:"shipping"`
	Total             Money             `json:"total"`
	ShippingAddress   Address           `json:"shipping_address"`
	BillingAddress    Address           `json:"billing_address"`
	Payment           PaymentDescriptor `json:"payment"`
	Status            string            `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	TrackingNumber    *string           `json:"tracking_number"`
	Carrier           *string           `json:"carrier"`
	EstimatedDelivery *time.Time        `json:"estimated_delivery"`
	Version           int64             `json:"-"` // 文档版本，不写入内容
}

// ItemCount 订单商品件数
func (o *Order) ItemCount() int {
	if o == nil {
		return 0
	}
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}
