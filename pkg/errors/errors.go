package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型（不要直接暴露HTTP状态码）
// 2. Message是用户友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端（防止泄露敏感信息）
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较
// 预定义错误经WithCause/WithMessage派生后仍能被errors.Is识别
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// WithCause 基于预定义错误派生一个携带内部原因的新错误
// 不修改包级变量本身
func (e *AppError) WithCause(err error) *AppError {
	return &AppError{Code: e.Code, Message: e.Message, Err: err}
}

// Family 错误码所属类别（百位以上部分），如40403 → 404
func (e *AppError) Family() int {
	return e.Code / 100
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
// 用途：将底层错误转换为业务错误，隐藏实现细节
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// WrapDB 包装数据库错误
func WrapDB(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeDatabaseError,
		Message: message,
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 客户端错误（参数错误、业务规则校验失败）
// - 5xxxx: 服务端错误（数据库异常、外部服务调用失败）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal            = 50000 // 内部错误
	ErrCodeDatabaseError       = 50001 // 数据库错误
	ErrCodeRedisError          = 50002 // Redis错误
	ErrCodeTransient           = 50003 // 并发冲突重试后仍失败（可稍后重试）
	ErrCodeConsistency         = 50004 // 数据一致性被破坏（不应出现）
	ErrCodeMessageBrokerFailed = 50005 // 消息队列错误

	// 设备认证错误（40100-40199）
	ErrCodeUnauthorized   = 40100 // 缺少Token
	ErrCodeMalformedToken = 40101 // Token格式错误
	ErrCodeInvalidToken   = 40102 // Token无效
	ErrCodeTokenExpired   = 40103 // Token过期

	// 资源错误（40400-40499）
	ErrCodeNotFound          = 40400 // 资源不存在(通用)
	ErrCodeItemNotFound      = 40401 // 物品不存在
	ErrCodeLocationNotFound  = 40402 // 库位不存在
	ErrCodeUnitNotFound      = 40403 // 单件不存在
	ErrCodeBarcodeNotFound   = 40404 // 条码池中无此条码
	ErrCodeAggregateNotFound = 40405 // 该库位没有此物品
	ErrCodeUnresolved        = 40406 // 条码无法解析
	ErrCodeEmptyAggregate    = 40407 // 库存记录下没有任何单件

	// 业务规则错误（40000-40099）
	ErrCodeBusinessError     = 40000 // 业务错误(通用)
	ErrCodeValidationFailed  = 40001 // 校验失败
	ErrCodeSameLocation      = 40002 // 移库目标与来源相同
	ErrCodeDuplicateEntry    = 40003 // 条码重复
	ErrCodeSequenceCollision = 40004 // 序号冲突

	// 参数错误（40900-40999）
	ErrCodeInvalidParams = 40900 // 参数错误
	ErrCodeBindError     = 40901 // 参数绑定失败
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError    = New(ErrCodeRedisError, "缓存服务错误")
	ErrTransient     = New(ErrCodeTransient, "操作冲突，请稍后重试")
	ErrConsistency   = New(ErrCodeConsistency, "库存数据不一致")

	// 设备认证
	ErrUnauthorized   = New(ErrCodeUnauthorized, "缺少设备Token")
	ErrMalformedToken = New(ErrCodeMalformedToken, "Token格式错误")
	ErrInvalidToken   = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired   = New(ErrCodeTokenExpired, "Token已过期")
	ErrDeviceRevoked  = New(ErrCodeInvalidToken, "设备已被停用")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
	ErrBindError     = New(ErrCodeBindError, "参数格式错误")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// HasCode 判断错误链中是否存在指定错误码
func HasCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
