package engine

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/basketkit/basket"
	"github.com/rushteam/basketkit/core"
	"github.com/rushteam/basketkit/filter"
	"github.com/rushteam/basketkit/similarity"
)

// 各模式对外的 reason 标签，属于输出契约，不要随实现调整。
const (
	ReasonItemBased    = "similar item purchase pattern"
	ReasonMarketBasket = "frequently purchased together"
	ReasonHybrid       = "hybrid"
)

// Query 是一次推荐查询的输入。
// 各模式的必填项不同：item_based 要 ProductID，market_basket 要 Basket，
// hybrid 至少给其中之一（给哪路就融合哪路信号）。
type Query struct {
	CustomerID string
	ProductID  string
	Basket     []string
	Mode       core.Mode
}

// Service 是推荐服务的统一入口（hybrid ranker）。
//
// 编排职责：
//   - Train 驱动两个模型的批量训练（相互独立，并行执行）
//   - GetRecommendations 按模式查询只读模型、融合打分、过滤、截断
//
// 并发语义：
//   - 模型发布是原子换指针，查询与重训可以并存
//   - 查询是纯读操作，无需任何同步即可并发调用
type Service struct {
	// Similarity 是商品相似度模型
	Similarity *similarity.Model

	// Rules 是购物篮规则挖掘器
	Rules *basket.RuleMiner

	// Config 是引擎参数；零值字段按 core 默认值解释
	Config core.EngineConfig

	// Filters 是结果过滤链（黑名单/已购/表达式），可为空
	Filters []filter.Filter
}

// NewService 按配置创建推荐服务，模型阈值取自配置。
func NewService(cfg core.EngineConfig) *Service {
	cfg = cfg.Normalized()
	return &Service{
		Similarity: &similarity.Model{},
		Rules: &basket.RuleMiner{
			MinSupport:    cfg.MinSupport,
			MinConfidence: cfg.MinConfidence,
			Workers:       cfg.Workers,
		},
		Config: cfg,
	}
}

// Train 在同一份交易快照上训练两个模型。
// 两次训练相互独立、并行执行；任一失败则整体失败（另一路结果仍会发布）。
// 训练期间旧模型继续服务查询。
func (s *Service) Train(ctx context.Context, transactions []core.Transaction) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return s.Similarity.Build(transactions)
	})
	eg.Go(func() error {
		return s.Rules.Build(ctx, transactions)
	})
	return eg.Wait()
}

// GetRecommendations 执行一次推荐查询。
//
// 错误约定：
//   - 模式非法、缺必填输入 → VALIDATION
//   - 所需模型从未训练 → NOT_TRAINED
//   - 查无推荐不是错误：返回空列表、confidence 0.0 和说明文案
//
// 其余内部错误原样上抛，不翻译成空结果。
func (s *Service) GetRecommendations(ctx context.Context, q Query) (*core.RecommendationResult, error) {
	cfg := s.Config.Normalized()

	var (
		products    []core.RecommendedProduct
		explanation string
		err         error
	)

	switch q.Mode {
	case core.ModeItemBased:
		products, explanation, err = s.itemBased(q)
	case core.ModeMarketBasket:
		products, explanation, err = s.marketBasket(q)
	case core.ModeHybrid:
		products, explanation, err = s.hybrid(q, cfg)
	default:
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeValidation,
			fmt.Sprintf("engine: unknown recommendation mode %q", q.Mode))
	}
	if err != nil {
		return nil, err
	}

	products, err = filter.Apply(ctx, s.Filters, q.CustomerID, products)
	if err != nil {
		return nil, err
	}
	if len(products) > cfg.TopN {
		products = products[:cfg.TopN]
	}

	if len(products) == 0 {
		explanation += "; no recommendations found"
	}

	return &core.RecommendationResult{
		CustomerID:          q.CustomerID,
		RecommendedProducts: products,
		RecommendationType:  q.Mode,
		ConfidenceScore:     meanScore(products),
		Explanation:         explanation,
	}, nil
}

// itemBased 相似商品推荐：委托相似度模型。
func (s *Service) itemBased(q Query) ([]core.RecommendedProduct, string, error) {
	if q.ProductID == "" {
		return nil, "", core.NewDomainError(core.ModuleEngine, core.ErrorCodeValidation,
			"engine: item_based mode requires product_id")
	}
	if !s.Similarity.Trained() {
		return nil, "", core.NewDomainError(core.ModuleSimilarity, core.ErrorCodeNotTrained,
			"similarity: model has not been trained")
	}

	// 不在源头截断：过滤器剔掉的候选要把坑位让给后面的
	scored := s.Similarity.GetSimilar(q.ProductID, 0)
	explanation := fmt.Sprintf("products similar to %s based on customer purchase patterns", q.ProductID)
	return tagged(scored, ReasonItemBased), explanation, nil
}

// marketBasket 购物篮推荐：委托规则挖掘器。
func (s *Service) marketBasket(q Query) ([]core.RecommendedProduct, string, error) {
	if len(q.Basket) == 0 {
		return nil, "", core.NewDomainError(core.ModuleEngine, core.ErrorCodeValidation,
			"engine: market_basket mode requires a non-empty basket")
	}
	if !s.Rules.Trained() {
		return nil, "", core.NewDomainError(core.ModuleBasket, core.ErrorCodeNotTrained,
			"basket: rule set has not been mined")
	}

	scored := s.Rules.GetBasketRecommendations(q.Basket, 0)
	explanation := fmt.Sprintf("products frequently purchased together with the %d item(s) in the basket", len(q.Basket))
	return tagged(scored, ReasonMarketBasket), explanation, nil
}

// hybrid 融合两路信号：score = item_score×ItemWeight + basket_score×BasketWeight。
// 只给了一路输入时另一路贡献恒为 0，候选不会因为缺某路信号被排除。
func (s *Service) hybrid(q Query, cfg core.EngineConfig) ([]core.RecommendedProduct, string, error) {
	if q.ProductID == "" && len(q.Basket) == 0 {
		return nil, "", core.NewDomainError(core.ModuleEngine, core.ErrorCodeValidation,
			"engine: hybrid mode requires product_id or a basket")
	}

	merged := make(map[string]float64)

	if q.ProductID != "" {
		if !s.Similarity.Trained() {
			return nil, "", core.NewDomainError(core.ModuleSimilarity, core.ErrorCodeNotTrained,
				"similarity: model has not been trained")
		}
		// 相似度一路只取头部候选参与融合，与原型行为保持一致
		for _, sp := range s.Similarity.GetSimilar(q.ProductID, core.HybridItemPool) {
			merged[sp.ProductID] += sp.Score * cfg.ItemWeight
		}
	}

	if len(q.Basket) > 0 {
		if !s.Rules.Trained() {
			return nil, "", core.NewDomainError(core.ModuleBasket, core.ErrorCodeNotTrained,
				"basket: rule set has not been mined")
		}
		for _, sp := range s.Rules.GetBasketRecommendations(q.Basket, 0) {
			merged[sp.ProductID] += sp.Score * cfg.BasketWeight
		}
	}

	scored := make([]core.ScoredProduct, 0, len(merged))
	for p, score := range merged {
		scored = append(scored, core.ScoredProduct{ProductID: p, Score: score})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ProductID < scored[j].ProductID
	})

	explanation := fmt.Sprintf("hybrid recommendation (product_id=%q, basket items=%d)", q.ProductID, len(q.Basket))
	return tagged(scored, ReasonHybrid), explanation, nil
}

func tagged(scored []core.ScoredProduct, reason string) []core.RecommendedProduct {
	out := make([]core.RecommendedProduct, 0, len(scored))
	for _, sp := range scored {
		out = append(out, core.RecommendedProduct{
			ProductID: sp.ProductID,
			Score:     sp.Score,
			Reason:    reason,
		})
	}
	return out
}

func meanScore(products []core.RecommendedProduct) float64 {
	if len(products) == 0 {
		return 0.0
	}
	var sum float64
	for _, p := range products {
		sum += p.Score
	}
	return sum / float64(len(products))
}
