package portfolio

import "crypto/subtle"

// Gated 报告作品集是否设置了访问密码。
func Gated(accessPassword string) bool {
	return accessPassword != ""
}

// Unlock 以区分大小写的明文精确比较校验访问密码。
// 这是展示层门槛而非安全边界：整行记录（含密码）在比较前已经可以被读取。
// 不限制尝试次数。
func Unlock(accessPassword, attempt string) bool {
	if !Gated(accessPassword) {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(attempt), []byte(accessPassword)) == 1
}
