package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// 管理端订单状态策略
const (
	AdminStatusPolicyForward      = "forward"
	AdminStatusPolicyUnrestricted = "unrestricted"
)

// 用户角色常量
const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

// 文档集合名称
const (
	CollectionUsers    = "users"
	CollectionOrders   = "orders"
	CollectionProducts = "products"
)

// 支付方式常量
const (
	PaymentMethodCard   = "card"
	PaymentMethodPaypal = "paypal"
)

// 银行卡品牌常量
const (
	CardBrandVisa       = "visa"
	CardBrandMastercard = "mastercard"
	CardBrandAmex       = "amex"
	CardBrandDiscover   = "discover"
	CardBrandUnknown    = "card"
)

// 默认国家代码
const DefaultCountry = "US"

// 订单事件类型
const (
	OrderEventCreated       = "order.created"
	OrderEventStatusChanged = "order.status_changed"
)

// 验证码场景
const (
	CaptchaSceneLogin    = "login"
	CaptchaSceneRegister = "register"
)

// 管理端订单列表日期范围
const (
	DateRangeToday = "today"
	DateRangeWeek  = "week"
	DateRangeMonth = "month"
)

// 队列与任务类型
const (
	QueueDefault           = "default"
	TaskOrderStatusEmail   = "order:status_email"
	TaskPasswordResetEmail = "auth:password_reset_email"
)
