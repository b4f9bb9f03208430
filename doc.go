// Package basketkit 是一个交叉销售推荐引擎（Basket Kit）。
//
// 设计要点：
// - 双路信号：商品相似度（item-to-item 余弦）+ 购物篮关联规则（market basket analysis）
// - Hybrid 融合：0.6/0.4 加权合并成一份可解释的排序列表
// - 训练/服务分离：批量训练后原子换指针发布，查询纯读、无锁并发
package basketkit

import (
	"github.com/rushteam/basketkit/core"
	"github.com/rushteam/basketkit/engine"
)

// 轻量 facade：便于用户直接 import "basketkit" 使用核心抽象。
type Service = engine.Service
type Query = engine.Query
type Transaction = core.Transaction
type RecommendationResult = core.RecommendationResult
type EngineConfig = core.EngineConfig

const (
	ModeItemBased    = core.ModeItemBased
	ModeMarketBasket = core.ModeMarketBasket
	ModeHybrid       = core.ModeHybrid
)

// NewService 按配置创建推荐服务（见 engine.NewService）。
var NewService = engine.NewService
