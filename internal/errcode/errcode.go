// Package errcode 定义截图通知里的 error_code，页面脚本据此决定提示文案。
package errcode

// 0 表示成功；4xxx 是作品集本身的问题，重试无用；5xxx 是截图流水线故障。
const (
	OK = 0

	PortfolioMissing = 4004

	SystemError   = 5000
	CaptureFailed = 5001
	UploadFailed  = 5002
)

// Retryable 判断查看者是否值得再点一次导出。
func Retryable(code int) bool {
	return code >= 5000
}
