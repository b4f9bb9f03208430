// Package enrich 负责推荐结果的元信息富化。
//
// 引擎产出的推荐只有 {product_id, score, reason}；看板/API 层展示时
// 还需要类目、价格、品牌等商品属性。富化是查询后的可选步骤，
// 由调用方显式执行——富化失败与否不影响推荐本身的正确性，
// 错误如何处理由调用方决定，本包不吞。
package enrich

import (
	"context"

	"github.com/rushteam/basketkit/core"
)

// Enricher 为推荐结果补充商品元信息（写入每条推荐的 Meta）。
type Enricher interface {
	// EnrichResult 就地富化一次推荐应答
	EnrichResult(ctx context.Context, result *core.RecommendationResult) error
}

// FeatureClient 是特征存储访问的领域接口。
//
// 设计原则（与 Store 相同的依赖倒置）：
//   - 领域层定义接口，基础设施层实现
//   - FeastClient 是默认实现；测试用桩实现即可，不需要真实服务
type FeatureClient interface {
	// GetProductFeatures 批量获取商品特征。
	// 返回 map[productID]map[featureName]value；缺失的商品不在结果中。
	GetProductFeatures(ctx context.Context, productIDs []string, features []string) (map[string]map[string]any, error)

	// Close 释放连接资源
	Close() error
}

// MetaEnricher 是基于 FeatureClient 的富化器。
type MetaEnricher struct {
	// Client 是特征存储客户端
	Client FeatureClient

	// Features 是要拉取的特征全名列表，
	// 例如 ["product_stats:category", "product_stats:price"]
	Features []string
}

// NewMetaEnricher 创建富化器。
func NewMetaEnricher(client FeatureClient, features []string) *MetaEnricher {
	return &MetaEnricher{Client: client, Features: features}
}

// EnrichResult 为应答中的每条推荐拉取并写入商品特征。
// 特征存储中没有的商品保持 Meta 为空，不视为错误。
func (e *MetaEnricher) EnrichResult(ctx context.Context, result *core.RecommendationResult) error {
	if result == nil || len(result.RecommendedProducts) == 0 {
		return nil
	}
	if e.Client == nil || len(e.Features) == 0 {
		return nil
	}

	ids := make([]string, 0, len(result.RecommendedProducts))
	for _, p := range result.RecommendedProducts {
		ids = append(ids, p.ProductID)
	}

	features, err := e.Client.GetProductFeatures(ctx, ids, e.Features)
	if err != nil {
		return core.NewDomainError(core.ModuleEnrich, core.ErrorCodeInternalError,
			"enrich: get product features: "+err.Error())
	}

	for i := range result.RecommendedProducts {
		p := &result.RecommendedProducts[i]
		if meta, ok := features[p.ProductID]; ok && len(meta) > 0 {
			p.Meta = meta
		}
	}
	return nil
}

var _ Enricher = (*MetaEnricher)(nil)
