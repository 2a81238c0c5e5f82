package models

import (
	"strings"
	"time"
)

// Address 收货/账单地址
type Address struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	IsDefault    bool   `json:"is_default"`
}

// Complete 判断地址必填字段是否齐全
func (a Address) Complete() bool {
	required := []string{a.FullName, a.AddressLine1, a.City, a.State, a.ZipCode}
	for _, value := range required {
		if strings.TrimSpace(value) == "" {
			return false
		}
	}
	return true
}

// Profile 用户资料文档（users 集合）
type Profile struct {
	UID         string         `json:"uid"`
	Email       string         `json:"email"`
	DisplayName string         `json:"display_name"`
	Role        string         `json:"role"`
	Phone       string         `json:"phone"`
	Newsletter  bool           `json:"newsletter"`
	Addresses   []Address      `json:"addresses"`
	Cart        []CartLine     `json:"cart"`
	Wishlist    []WishlistItem `json:"wishlist"`
	Orders      []string       `json:"orders"`
	CreatedAt   time.Time      `json:"created_at"`
	LastActive  time.Time      `json:"last_active"`
}

// DefaultAddress 返回默认地址
func (p *Profile) DefaultAddress() *Address {
	if p == nil {
		return nil
	}
	for i := range p.Addresses {
		if p.Addresses[i].IsDefault {
			return &p.Addresses[i]
		}
	}
	return nil
}
