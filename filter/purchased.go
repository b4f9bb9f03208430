package filter

import (
	"context"
	"encoding/json"

	"github.com/rushteam/basketkit/core"
)

// PurchasedFilter 是已购过滤器，剔除客户已经买过的商品。
// 交叉销售场景下重复推荐已购商品既浪费坑位也伤体验；
// 复购型类目（耗材等）不要挂这个过滤器。
//
// 已购清单按客户存储：key 为 {KeyPrefix}:{CustomerID}，值为商品 ID 的 JSON 数组，
// 通常由离线任务从交易流水定期刷新。
type PurchasedFilter struct {
	// Store 用于读取客户已购清单
	Store core.Store

	// KeyPrefix 是 Store 中的 key 前缀，默认 "purchased"
	KeyPrefix string
}

// NewPurchasedFilter 创建一个已购过滤器。
func NewPurchasedFilter(store core.Store, keyPrefix string) *PurchasedFilter {
	if keyPrefix == "" {
		keyPrefix = "purchased"
	}
	return &PurchasedFilter{Store: store, KeyPrefix: keyPrefix}
}

func (f *PurchasedFilter) Name() string {
	return "filter.purchased"
}

func (f *PurchasedFilter) ShouldFilter(
	ctx context.Context,
	customerID string,
	p *core.RecommendedProduct,
) (bool, error) {
	if p == nil {
		return true, nil
	}
	// 匿名查询（无客户 ID）没有已购清单可查
	if f.Store == nil || customerID == "" {
		return false, nil
	}

	ids, err := readStringList(ctx, f.Store, f.KeyPrefix+":"+customerID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if p.ProductID == id {
			return true, nil
		}
	}
	return false, nil
}

// readStringList 从 Store 读取 JSON 字符串数组；key 不存在时返回空列表。
func readStringList(ctx context.Context, s core.Store, key string) ([]string, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
