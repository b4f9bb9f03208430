package evaluate

import (
	"context"
	"sort"

	"github.com/rushteam/basketkit/core"
	"github.com/rushteam/basketkit/engine"
)

// Metrics 是一次离线评估的汇总指标。
// 所有数值都来自留出法回测的真实测量，不存在模拟/抽样占位值。
type Metrics struct {
	// PrecisionAtK 是各客户 (命中数 / k) 的均值
	PrecisionAtK float64 `json:"precision_at_k"`

	// RecallAtK 是各客户 (命中数 / 留出商品数) 的均值
	RecallAtK float64 `json:"recall_at_k"`

	// ClickThroughRate 是点击率代理指标：至少命中一件留出商品的客户占比
	ClickThroughRate float64 `json:"click_through_rate"`

	// ConversionRate 是转化率代理指标：全体留出商品中被推荐找回的占比
	ConversionRate float64 `json:"conversion_rate"`

	// AvgOrderValueLift 是客单量提升代理：找回的留出购买量相对保留购买量的比值
	AvgOrderValueLift float64 `json:"average_order_value_lift"`

	// CrossSellSuccessRate 是交叉销售成功率：发出的推荐中命中留出商品的占比
	CrossSellSuccessRate float64 `json:"cross_sell_success_rate"`

	// Customers 是实际参与评估的客户数（历史太短的客户被跳过）
	Customers int `json:"customers"`
}

// Reporter 是离线评估器：用留出法（holdout backtest）测量推荐质量。
//
// 流程：
//  1. 对每个客户，按首次购买时间排序其去重商品序列，藏起最后 HoldoutN 件
//  2. 用剩余交易训练一套一次性引擎（与线上相同的配置）
//  3. 以保留商品作为购物篮、最近一件保留商品作为锚点，发起 hybrid 查询
//  4. 统计 top-k 推荐对留出商品的找回情况
//
// 评估与线上服务解耦：一次性引擎在本地训练、用完即弃，不触碰已发布模型。
type Reporter struct {
	// Config 是待评估的引擎配置（与线上一致才有评估意义）
	Config core.EngineConfig

	// K 是推荐截断长度；<=0 时取 Config.TopN
	K int

	// HoldoutN 是每个客户藏起的商品件数；<=0 时取 1
	HoldoutN int
}

// customerSlice 是单个客户的留出切分。
type customerSlice struct {
	customerID string
	retained   []string            // 保留的去重商品，按首次购买时间升序
	holdout    map[string]struct{} // 藏起的商品
}

// Evaluate 在交易集合上执行一轮留出回测。
// 输入非法返回 VALIDATION；没有任何客户满足评估条件时返回零值指标。
func (r *Reporter) Evaluate(ctx context.Context, transactions []core.Transaction) (*Metrics, error) {
	if err := core.ValidateTransactions(transactions); err != nil {
		return nil, err
	}

	k := r.K
	if k <= 0 {
		k = r.Config.Normalized().TopN
	}
	holdoutN := r.HoldoutN
	if holdoutN <= 0 {
		holdoutN = 1
	}

	slices := splitHoldout(transactions, holdoutN)
	if len(slices) == 0 {
		return &Metrics{}, nil
	}

	// 训练集 = 全量交易减去各客户被藏起商品的明细行
	heldOut := make(map[string]map[string]struct{}, len(slices))
	for _, cs := range slices {
		heldOut[cs.customerID] = cs.holdout
	}
	training := make([]core.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if ho, ok := heldOut[t.CustomerID]; ok {
			if _, hidden := ho[t.ProductID]; hidden {
				continue
			}
		}
		training = append(training, t)
	}
	if len(training) == 0 {
		return &Metrics{}, nil
	}

	cfg := r.Config.Normalized()
	cfg.TopN = k
	svc := engine.NewService(cfg)
	if err := svc.Train(ctx, training); err != nil {
		return nil, err
	}

	// 留出购买量/保留购买量，按 (客户, 商品) 聚合
	units := make(map[string]map[string]int)
	for _, t := range transactions {
		if units[t.CustomerID] == nil {
			units[t.CustomerID] = make(map[string]int)
		}
		units[t.CustomerID][t.ProductID] += t.Quantity
	}

	var (
		precisionSum   float64
		recallSum      float64
		customersHit   int
		totalHits      int
		totalHoldout   int
		totalRecs      int
		recoveredUnits int
		retainedUnits  int
	)

	for _, cs := range slices {
		anchor := cs.retained[len(cs.retained)-1]
		res, err := svc.GetRecommendations(ctx, engine.Query{
			CustomerID: cs.customerID,
			ProductID:  anchor,
			Basket:     cs.retained,
			Mode:       core.ModeHybrid,
		})
		if err != nil {
			return nil, err
		}

		hits := 0
		for _, p := range res.RecommendedProducts {
			if _, ok := cs.holdout[p.ProductID]; ok {
				hits++
				recoveredUnits += units[cs.customerID][p.ProductID]
			}
		}

		precisionSum += float64(hits) / float64(k)
		recallSum += float64(hits) / float64(len(cs.holdout))
		if hits > 0 {
			customersHit++
		}
		totalHits += hits
		totalHoldout += len(cs.holdout)
		totalRecs += len(res.RecommendedProducts)
		for _, p := range cs.retained {
			retainedUnits += units[cs.customerID][p]
		}
	}

	n := float64(len(slices))
	m := &Metrics{
		PrecisionAtK:     precisionSum / n,
		RecallAtK:        recallSum / n,
		ClickThroughRate: float64(customersHit) / n,
		Customers:        len(slices),
	}
	if totalHoldout > 0 {
		m.ConversionRate = float64(totalHits) / float64(totalHoldout)
	}
	if retainedUnits > 0 {
		m.AvgOrderValueLift = float64(recoveredUnits) / float64(retainedUnits)
	}
	if totalRecs > 0 {
		m.CrossSellSuccessRate = float64(totalHits) / float64(totalRecs)
	}
	return m, nil
}

// splitHoldout 对每个客户做留出切分：按首次购买时间排序去重商品序列，
// 藏起最后 holdoutN 件。商品数不足 holdoutN+1 的客户跳过（没有可保留的历史）。
// 返回按客户 ID 升序排列，保证整个评估过程确定可复现。
func splitHoldout(transactions []core.Transaction, holdoutN int) []customerSlice {
	type firstBuy struct {
		productID string
		at        int64
	}
	byCustomer := make(map[string]map[string]int64)
	for _, t := range transactions {
		m, ok := byCustomer[t.CustomerID]
		if !ok {
			m = make(map[string]int64)
			byCustomer[t.CustomerID] = m
		}
		ts := t.Timestamp.UnixNano()
		if old, ok := m[t.ProductID]; !ok || ts < old {
			m[t.ProductID] = ts
		}
	}

	customers := make([]string, 0, len(byCustomer))
	for c := range byCustomer {
		customers = append(customers, c)
	}
	sort.Strings(customers)

	out := make([]customerSlice, 0, len(customers))
	for _, c := range customers {
		m := byCustomer[c]
		if len(m) < holdoutN+1 {
			continue
		}
		seq := make([]firstBuy, 0, len(m))
		for p, at := range m {
			seq = append(seq, firstBuy{productID: p, at: at})
		}
		sort.Slice(seq, func(i, j int) bool {
			if seq[i].at != seq[j].at {
				return seq[i].at < seq[j].at
			}
			return seq[i].productID < seq[j].productID
		})

		cut := len(seq) - holdoutN
		cs := customerSlice{
			customerID: c,
			retained:   make([]string, 0, cut),
			holdout:    make(map[string]struct{}, holdoutN),
		}
		for _, fb := range seq[:cut] {
			cs.retained = append(cs.retained, fb.productID)
		}
		for _, fb := range seq[cut:] {
			cs.holdout[fb.productID] = struct{}{}
		}
		out = append(out, cs)
	}
	return out
}
