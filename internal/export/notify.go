package export

// 通知类型，通过 Redis Pub/Sub 转发给页面上的 WebSocket。
const (
	MessageSubscribed = "subscribed"
	MessageCompleted  = "completed"
	MessageError      = "error"
)

// NotifyMessage 是推送给查看者的截图结果。字段名与页面脚本保持一致。
type NotifyMessage struct {
	Status        string `json:"status"`
	Slug          string `json:"slug"`
	CorrelationID string `json:"correlation_id,omitempty"`
	URL           string `json:"url,omitempty"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message,omitempty"`
	Retryable     bool   `json:"retryable,omitempty"`
}

// Channel 返回作品集的通知频道。
func Channel(slug string) string {
	return "portfolio_notify:" + slug
}

// 内部打印页的请求头，worker 打开页面时携带，API 端校验。
const (
	InternalSecretHeader = "X-Internal-Secret"
	CorrelationIDHeader  = "X-Correlation-ID"
)
