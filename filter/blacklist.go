package filter

import (
	"context"

	"github.com/rushteam/basketkit/core"
)

// BlacklistFilter 是黑名单过滤器，剔除下架/停售/合规受限的商品。
type BlacklistFilter struct {
	// ProductIDs 是内存中的黑名单商品 ID 列表
	ProductIDs []string

	// Store 用于从存储中读取黑名单（可选），运营侧可在线更新
	Store core.Store

	// Key 是 Store 中的黑名单 key（可选）
	Key string
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(productIDs []string, store core.Store, key string) *BlacklistFilter {
	return &BlacklistFilter{
		ProductIDs: productIDs,
		Store:      store,
		Key:        key,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ string,
	p *core.RecommendedProduct,
) (bool, error) {
	if p == nil {
		return true, nil
	}

	// 从内存列表检查
	for _, id := range f.ProductIDs {
		if p.ProductID == id {
			return true, nil
		}
	}

	// 从 Store 检查（JSON 数组，key 不存在视为空名单）
	if f.Store != nil && f.Key != "" {
		ids, err := readStringList(ctx, f.Store, f.Key)
		if err != nil {
			return false, err
		}
		for _, id := range ids {
			if p.ProductID == id {
				return true, nil
			}
		}
	}

	return false, nil
}
