package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 错误分类（与对外契约一一对应）：
//   - VALIDATION：输入不合法（空交易集合、缺字段、模式缺必填参数），训练/查询失败
//   - NOT_TRAINED：针对从未完成训练的模型发起查询，区别于"查无结果"的正常空返回
//   - NOT_FOUND / NOT_SUPPORTED：Store 层错误
//
// 注意："查无推荐"不是错误：未知商品、未命中规则等正常业务空结果
// 由各查询接口返回空列表表达，绝不转成 DomainError。
type DomainError struct {
	Code    string // 错误代码（如 "VALIDATION", "NOT_TRAINED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "similarity", "basket", "engine"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeValidation    = "VALIDATION"     // 输入数据/参数不合法
	ErrorCodeNotTrained    = "NOT_TRAINED"    // 模型尚未完成训练
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleLedger     = "ledger"     // 交易流水输入
	ModuleSimilarity = "similarity" // 相似度模型
	ModuleBasket     = "basket"     // 购物篮规则挖掘
	ModuleEngine     = "engine"     // 推荐服务编排
	ModuleEvaluate   = "evaluate"   // 离线评估
	ModuleStore      = "store"      // 存储模块
	ModuleEnrich     = "enrich"     // 结果富化
)

// ErrEmptyTransactions 表示训练输入为空集合
var ErrEmptyTransactions = NewDomainError(ModuleLedger, ErrorCodeValidation,
	"ledger: transaction collection is empty")

// IsDataValidation 检查错误是否为输入校验失败（DataValidationError）
func IsDataValidation(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeValidation
	}
	return false
}

// IsModelNotTrained 检查错误是否为模型未训练（ModelNotTrainedError）
func IsModelNotTrained(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotTrained
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}
