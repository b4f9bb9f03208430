package core

// 默认参数，与线上验证过的原型保持一致。
const (
	DefaultMinSupport    = 0.01 // 单品最低出现频率（购物篮占比）
	DefaultMinConfidence = 0.1  // 规则最低置信度
	DefaultTopN          = 5    // 推荐列表长度上限
	DefaultItemWeight    = 0.6  // hybrid 模式相似度信号权重
	DefaultBasketWeight  = 0.4  // hybrid 模式规则信号权重

	// HybridItemPool 是 hybrid 融合时相似度一路参与的候选数。
	HybridItemPool = 10
)

// EngineConfig 是推荐引擎的可配置参数。
// 零值字段在 Normalized 中回填默认值，使用方可以只设置关心的项。
type EngineConfig struct {
	// MinSupport 是规则挖掘中单品被视为"频繁项"的最低支持度
	MinSupport float64

	// MinConfidence 是候选规则被保留的最低置信度
	MinConfidence float64

	// TopN 是推荐列表长度上限
	TopN int

	// ItemWeight / BasketWeight 是 hybrid 融合权重（固定 0.6/0.4 的契约，
	// 保留为配置仅用于离线实验，线上不建议偏离）
	ItemWeight   float64
	BasketWeight float64

	// Workers 是规则挖掘的并行分片数；<=0 时由挖掘器自行决定
	Workers int
}

// Normalized 返回回填默认值后的副本。
func (c EngineConfig) Normalized() EngineConfig {
	if c.MinSupport <= 0 {
		c.MinSupport = DefaultMinSupport
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = DefaultMinConfidence
	}
	if c.TopN <= 0 {
		c.TopN = DefaultTopN
	}
	if c.ItemWeight <= 0 {
		c.ItemWeight = DefaultItemWeight
	}
	if c.BasketWeight <= 0 {
		c.BasketWeight = DefaultBasketWeight
	}
	return c
}
