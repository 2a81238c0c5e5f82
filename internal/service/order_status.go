package service

import (
	"strings"

	"github.com/lumenshop/storefront/internal/constants"
)

// orderMainPath 正向履约路径
var orderMainPath = []string{
	constants.OrderStatusPending,
	constants.OrderStatusProcessing,
	constants.OrderStatusShipped,
	constants.OrderStatusDelivered,
}

// NormalizeOrderStatus 统一状态写法
func NormalizeOrderStatus(status string) string {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if normalized == "canceled" {
		return constants.OrderStatusCancelled
	}
	return normalized
}

// IsKnownOrderStatus 判断状态是否合法
func IsKnownOrderStatus(status string) bool {
	return status == constants.OrderStatusCancelled || mainPathIndex(status) >= 0
}

// IsTerminalOrderStatus 终态订单不可再变更
func IsTerminalOrderStatus(status string) bool {
	return status == constants.OrderStatusDelivered || status == constants.OrderStatusCancelled
}

// IsTransitionAllowed 严格状态机：只能前进一步，或由 pending 取消
func IsTransitionAllowed(from, to string) bool {
	if to == constants.OrderStatusCancelled {
		return from == constants.OrderStatusPending
	}
	fromIdx := mainPathIndex(from)
	toIdx := mainPathIndex(to)
	if fromIdx < 0 || toIdx < 0 {
		return false
	}
	return toIdx == fromIdx+1
}

// IsAdminTransitionAllowed 管理端状态变更规则。
// forward：沿正向路径前进任意步，或从非终态取消；
// unrestricted：非终态可改为任意状态。
// 相同状态视为仅更新物流信息，非终态允许。
func IsAdminTransitionAllowed(policy, from, to string) bool {
	if !IsKnownOrderStatus(from) || !IsKnownOrderStatus(to) {
		return false
	}
	if IsTerminalOrderStatus(from) {
		return false
	}
	if from == to {
		return true
	}
	if policy == constants.AdminStatusPolicyUnrestricted {
		return true
	}
	if to == constants.OrderStatusCancelled {
		return true
	}
	return mainPathIndex(to) > mainPathIndex(from)
}

// NormalizeAdminStatusPolicy 非法配置回退为 forward
func NormalizeAdminStatusPolicy(policy string) string {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case constants.AdminStatusPolicyUnrestricted:
		return constants.AdminStatusPolicyUnrestricted
	default:
		return constants.AdminStatusPolicyForward
	}
}

func mainPathIndex(status string) int {
	for i, candidate := range orderMainPath {
		if candidate == status {
			return i
		}
	}
	return -1
}
