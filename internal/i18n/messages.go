package i18n

var catalogs = map[string]map[string]string{
	LocaleZH: {
		"success": "成功",

		"error.bad_request":               "请求参数错误",
		"error.unauthorized":              "请先登录",
		"error.forbidden":                 "无权访问",
		"error.not_found":                 "资源不存在",
		"error.internal":                  "服务器内部错误",
		"error.too_many_requests":         "请求过于频繁，请稍后再试",
		"error.not_authenticated":         "请先登录",
		"error.order_not_found":           "订单不存在",
		"error.profile_not_found":         "用户资料不存在",
		"error.address_not_found":         "地址不存在",
		"error.product_not_found":         "商品不存在",
		"error.invalid_transition":        "当前订单状态不允许该操作",
		"error.empty_order":               "购物车为空，无法下单",
		"error.duplicate_identity":        "该邮箱已注册",
		"error.invalid_credential":        "邮箱或密码错误",
		"error.weak_credential":           "密码强度不足",
		"error.password_min_length":       "密码长度至少 %d 位",
		"error.reauthentication_failed":   "当前密码错误",
		"error.remote_unavailable":        "服务暂时不可用，请稍后重试",
		"error.profile_missing":           "账号资料缺失，请补全资料",
		"error.invalid_email":             "邮箱格式不正确",
		"error.invalid_quantity":          "数量必须为 1 到 9999 之间的整数",
		"error.invalid_product":           "商品信息无效",
		"error.invalid_status":            "订单状态无效",
		"error.order_conflict":            "订单已被其他操作修改，请刷新后重试",
		"error.invalid_address":           "地址信息不完整",
		"error.invalid_payment":           "支付信息无效",
		"error.invalid_reset_token":       "重置链接无效或已过期",
		"error.captcha_required":          "请输入验证码",
		"error.captcha_invalid":           "验证码错误",
		"error.captcha_disabled":          "验证码未启用",
		"error.provisioning_code_invalid": "开通码错误",
		"error.login_too_many":            "登录尝试过多，请 %d 秒后再试",
		"error.rate_limit_unavailable":    "限流服务不可用",
		"error.captcha_config_invalid":    "验证码配置错误",
		"error.cart_sync_failed":          "购物车已更新，但同步到账号失败",

		"order.status.pending":    "待处理",
		"order.status.processing": "处理中",
		"order.status.shipped":    "已发货",
		"order.status.delivered":  "已送达",
		"order.status.cancelled":  "已取消",

		"email.order_status.subject":      "订单状态更新：%s",
		"email.order_status.body":         "订单号：%s\n当前状态：%s\n订单金额：%s",
		"email.order_status.body_shipped": "订单号：%s\n当前状态：%s\n订单金额：%s\n物流：%s %s",
		"email.order_status.body_placed":  "感谢下单！\n\n订单号：%s\n当前状态：%s\n订单金额：%s",
		"email.password_reset.subject":    "重置密码",
		"email.password_reset.body":       "请通过以下链接重置密码：\n%s\n\n链接 %d 分钟内有效，如非本人操作请忽略本邮件。",
	},
	LocaleEN: {
		"success": "success",

		"error.bad_request":               "Invalid request",
		"error.unauthorized":              "Please sign in",
		"error.forbidden":                 "Access denied",
		"error.not_found":                 "Resource not found",
		"error.internal":                  "Internal server error",
		"error.too_many_requests":         "Too many requests, please try again later",
		"error.not_authenticated":         "Please sign in",
		"error.order_not_found":           "Order not found",
		"error.profile_not_found":         "Profile not found",
		"error.address_not_found":         "Address not found",
		"error.product_not_found":         "Product not found",
		"error.invalid_transition":        "This action is not allowed for the current order status",
		"error.empty_order":               "Your cart is empty",
		"error.duplicate_identity":        "This email is already registered",
		"error.invalid_credential":        "Invalid email or password",
		"error.weak_credential":           "Password is too weak",
		"error.password_min_length":       "Password must be at least %d characters",
		"error.reauthentication_failed":   "Current password is incorrect",
		"error.remote_unavailable":        "Service temporarily unavailable, please retry",
		"error.profile_missing":           "Your profile is missing, please complete it",
		"error.invalid_email":             "Invalid email address",
		"error.invalid_quantity":          "Quantity must be between 1 and 9999",
		"error.invalid_product":           "Invalid product",
		"error.invalid_status":            "Invalid order status",
		"error.order_conflict":            "The order was changed by another update, please refresh",
		"error.invalid_address":           "Address is incomplete",
		"error.invalid_payment":           "Invalid payment details",
		"error.invalid_reset_token":       "Reset link is invalid or expired",
		"error.captcha_required":          "Captcha is required",
		"error.captcha_invalid":           "Captcha is incorrect",
		"error.captcha_disabled":          "Captcha is not enabled",
		"error.provisioning_code_invalid": "Invalid provisioning code",
		"error.login_too_many":            "Too many sign-in attempts, retry in %d seconds",
		"error.rate_limit_unavailable":    "Rate limiter unavailable",
		"error.captcha_config_invalid":    "Captcha is misconfigured",
		"error.cart_sync_failed":          "Cart updated but could not be saved to your account",

		"order.status.pending":    "Pending",
		"order.status.processing": "Processing",
		"order.status.shipped":    "Shipped",
		"order.status.delivered":  "Delivered",
		"order.status.cancelled":  "Cancelled",

		"email.order_status.subject":      "Order status updated: %s",
		"email.order_status.body":         "Order: %s\nStatus: %s\nTotal: %s",
		"email.order_status.body_shipped": "Order: %s\nStatus: %s\nTotal: %s\nShipment: %s %s",
		"email.order_status.body_placed":  "Thanks for your order!\n\nOrder: %s\nStatus: %s\nTotal: %s",
		"email.password_reset.subject":    "Reset your password",
		"email.password_reset.body":       "Use the link below to reset your password:\n%s\n\nThe link expires in %d minutes. Ignore this email if you did not request it.",
	},
}
