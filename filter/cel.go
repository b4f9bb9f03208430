package filter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/basketkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		// 定义变量类型
		cel.Variable("product", cel.DynType),
		cel.Variable("customer_id", cel.StringType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	if celEnv == nil && err == nil {
		err = fmt.Errorf("cel env not initialized")
	}
	return celEnv, err
}

// CELFilter 是表达式过滤器，用 CEL (Common Expression Language) 声明剔除规则。
// 消费方（API/看板层）可以在配置里下发规则，不用改引擎代码。
//
// 表达式返回 true 表示剔除该候选。可用变量：
//   - product.product_id / product.score / product.reason / product.meta
//   - customer_id
//
// 示例：
//   - `product.score < 0.05`                      → 剔除低分长尾
//   - `product.product_id.startsWith("SAMPLE")`   → 剔除内部试用品
//   - `product.reason == "hybrid" && product.score < 0.1`
//
// 表达式在构造时编译并缓存，ShouldFilter 只做求值，可任意并发。
type CELFilter struct {
	// Expr 是原始表达式文本（用于解释与排查）
	Expr string

	prg cel.Program
}

// NewCELFilter 编译表达式并创建过滤器。
// 表达式非法或结果类型不是布尔时返回 VALIDATION 错误。
func NewCELFilter(expr string) (*CELFilter, error) {
	if expr == "" {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeValidation,
			"filter: cel expression is empty")
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeValidation,
			fmt.Sprintf("filter: compile %q: %v", expr, issues.Err()))
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("cel program: %w", err)
	}

	return &CELFilter{Expr: expr, prg: prg}, nil
}

func (f *CELFilter) Name() string {
	return "filter.cel"
}

func (f *CELFilter) ShouldFilter(
	_ context.Context,
	customerID string,
	p *core.RecommendedProduct,
) (bool, error) {
	if p == nil {
		return true, nil
	}

	meta := p.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	input := map[string]any{
		"product": map[string]any{
			"product_id": p.ProductID,
			"score":      p.Score,
			"reason":     p.Reason,
			"meta":       meta,
		},
		"customer_id": customerID,
	}

	out, _, err := f.prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("cel eval %q: %w", f.Expr, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("cel expression %q must return boolean, got %T", f.Expr, out.Value())
	}
	return result, nil
}
