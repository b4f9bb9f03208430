package filter

import (
	"context"

	"github.com/rushteam/basketkit/core"
)

// Filter 是推荐结果过滤器的抽象接口，用于判断一条候选推荐是否应该被剔除。
// 返回 true 表示剔除，false 表示保留。
//
// 过滤发生在融合打分之后、Top-N 截断之前：被剔除的候选会把位置让给
// 后面的候选，而不是白白占掉一个坑。
type Filter interface {
	// Name 返回过滤器名称（用于解释与排查）
	Name() string

	// ShouldFilter 判断候选是否应该被剔除
	ShouldFilter(ctx context.Context, customerID string, p *core.RecommendedProduct) (bool, error)
}

// Apply 依次执行过滤器，返回保留的候选。
// 任一过滤器报错即中断并上抛——过滤器故障不能被吞成"少推荐了几个"。
func Apply(ctx context.Context, filters []Filter, customerID string, products []core.RecommendedProduct) ([]core.RecommendedProduct, error) {
	if len(filters) == 0 || len(products) == 0 {
		return products, nil
	}
	out := make([]core.RecommendedProduct, 0, len(products))
	for i := range products {
		p := &products[i]
		keep := true
		for _, f := range filters {
			drop, err := f.ShouldFilter(ctx, customerID, p)
			if err != nil {
				return nil, err
			}
			if drop {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, *p)
		}
	}
	return out, nil
}
