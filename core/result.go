package core

// Mode 是推荐模式。
type Mode string

const (
	// ModeItemBased 基于商品相似度（看了/买了这个，还可能买什么）
	ModeItemBased Mode = "item_based"
	// ModeMarketBasket 基于购物篮关联规则（和篮子里的东西经常一起买什么）
	ModeMarketBasket Mode = "market_basket"
	// ModeHybrid 两路信号加权融合
	ModeHybrid Mode = "hybrid"
)

// Valid 判断模式是否合法。
func (m Mode) Valid() bool {
	switch m {
	case ModeItemBased, ModeMarketBasket, ModeHybrid:
		return true
	}
	return false
}

// ScoredProduct 是单路召回的打分结果（商品 + 分数）。
// SimilarityModel 和 RuleMiner 的查询接口统一返回此结构，便于融合。
type ScoredProduct struct {
	ProductID string
	Score     float64
}

// RecommendedProduct 是对外返回的单条推荐。
// Meta 是可选的商品元信息（类目/价格等），由富化层填充，引擎本身不生产。
type RecommendedProduct struct {
	ProductID string         `json:"product_id"`
	Score     float64        `json:"score"`
	Reason    string         `json:"reason"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// RecommendationResult 是一次推荐查询的完整应答。
//
// 这是引擎对外（API/看板层）的唯一契约，字段与序列化格式保持稳定，
// 内部算法演进不得改变此结构。
//
// 约定：
//   - RecommendedProducts 长度不超过配置的 top_n，商品不重复
//   - ConfidenceScore 为返回分数的算术平均；空结果时为 0.0
//   - 查询本身无副作用，结果按次生成、无持久身份
type RecommendationResult struct {
	CustomerID          string               `json:"customer_id"`
	RecommendedProducts []RecommendedProduct `json:"recommended_products"`
	RecommendationType  Mode                 `json:"recommendation_type"`
	ConfidenceScore     float64              `json:"confidence_score"`
	Explanation         string               `json:"explanation"`
}
