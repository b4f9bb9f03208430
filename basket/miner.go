package basket

import (
	"context"
	"runtime"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/basketkit/core"
)

// Rule 是一条有方向的购物篮关联规则：买了 Antecedent 的篮子里也常有 Consequent。
//
// 指标定义（total 为购物篮总数，C 为同时包含两者的篮子数）：
//   - Support    = C / total
//   - Confidence = C / count(含 Antecedent 的篮子)
//   - Lift       = Confidence / support(Consequent)，>1 表示超出随机水平的正关联
//
// 不变量：Antecedent != Consequent；Confidence >= 挖掘时的最低置信度。
type Rule struct {
	Antecedent string  `json:"antecedent"`
	Consequent string  `json:"consequent"`
	Support    float64 `json:"support"`
	Confidence float64 `json:"confidence"`
	Lift       float64 `json:"lift"`
}

// RuleMiner 是购物篮关联规则挖掘器（market basket analysis）。
//
// 算法流程：
//  1. 按 TransactionID 聚合购物篮
//  2. 统计单品支持度，按 MinSupport 过滤出频繁项
//  3. 频繁项两两（i<j 字典序）统计共现，推导双向规则候选
//  4. 置信度达标的候选保留，一对商品可产出 0/1/2 条规则
//
// 复杂度与扩展性：
//  - 两两枚举为 O(k²)，k 为频繁项数；k 在几千以内可接受
//  - 共现统计按 i 的区间分片，可并行执行（各分片相互独立）
//  - k 更大时应换 FP-Growth，外部规则契约不变
//
// 发布语义：
//  - 与相似度模型相同：整套规则算完后换指针发布，旧版本继续服务到换完
type RuleMiner struct {
	// MinSupport 单品最低支持度；<=0 时用 core.DefaultMinSupport
	MinSupport float64

	// MinConfidence 规则最低置信度；<=0 时用 core.DefaultMinConfidence
	MinConfidence float64

	// Workers 共现统计的并行分片数；<=0 时取 GOMAXPROCS
	Workers int

	snap atomic.Pointer[ruleSnapshot]
}

type ruleSnapshot struct {
	// rules 按（Antecedent 升序，Consequent 升序）排好的全量规则
	rules []Rule
	// byAntecedent 按前件索引，查询时 O(1) 取块
	byAntecedent map[string][]Rule
}

// Build 在交易集合上挖掘关联规则。
// 输入为空或存在坏记录时返回 VALIDATION 错误，旧规则集（若有）继续服务。
func (m *RuleMiner) Build(ctx context.Context, transactions []core.Transaction) error {
	if err := core.ValidateTransactions(transactions); err != nil {
		return err
	}

	baskets := core.GroupBaskets(transactions)
	total := float64(len(baskets))

	// 单品 → 包含它的购物篮下标集合（升序切片，求交集用）
	occur := make(map[string][]int)
	for idx, b := range baskets {
		for p := range b.Products {
			occur[p] = append(occur[p], idx)
		}
	}

	minSupport := m.MinSupport
	if minSupport <= 0 {
		minSupport = core.DefaultMinSupport
	}
	minConfidence := m.MinConfidence
	if minConfidence <= 0 {
		minConfidence = core.DefaultMinConfidence
	}

	// 频繁项：支持度达标的单品，字典序排列保证分片与产出确定
	frequent := make([]string, 0, len(occur))
	support := make(map[string]float64, len(occur))
	for p, idxs := range occur {
		s := float64(len(idxs)) / total
		if s >= minSupport {
			frequent = append(frequent, p)
			support[p] = s
		}
	}
	sort.Strings(frequent)

	workers := m.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(frequent) {
		workers = len(frequent)
	}
	if workers < 1 {
		workers = 1
	}

	// 按 i 的区间分片并行统计共现；各分片只写自己的结果槽，
	// 最后按分片顺序拼接，产出与单线程完全一致
	chunks := make([][]Rule, workers)
	eg, _ := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		lo := w * len(frequent) / workers
		hi := (w + 1) * len(frequent) / workers
		eg.Go(func() error {
			var out []Rule
			for i := lo; i < hi; i++ {
				for j := i + 1; j < len(frequent); j++ {
					a, b := frequent[i], frequent[j]
					c := float64(intersectCount(occur[a], occur[b]))
					if c == 0 {
						continue
					}
					pairSupport := c / total
					confAB := c / float64(len(occur[a]))
					confBA := c / float64(len(occur[b]))
					if confAB >= minConfidence {
						out = append(out, Rule{
							Antecedent: a,
							Consequent: b,
							Support:    pairSupport,
							Confidence: confAB,
							Lift:       confAB / support[b],
						})
					}
					if confBA >= minConfidence {
						out = append(out, Rule{
							Antecedent: b,
							Consequent: a,
							Support:    pairSupport,
							Confidence: confBA,
							Lift:       confBA / support[a],
						})
					}
				}
			}
			chunks[w] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	var rules []Rule
	for _, c := range chunks {
		rules = append(rules, c...)
	}

	m.snap.Store(newRuleSnapshot(rules))
	return nil
}

// Trained 报告挖掘器是否完成过至少一次训练（含 Restore）。
func (m *RuleMiner) Trained() bool {
	return m.snap.Load() != nil
}

// GetBasketRecommendations 基于当前购物篮推荐商品。
//
// 对篮子里的每个商品查前件匹配的规则，后件不在篮子里的按
// score = confidence × lift 计分；同一后件被多条规则命中时取最大分。
// 结果按分数降序、同分按商品 ID 升序，截断到 n（n <= 0 不截断）。
//
// 未训练或无规则命中时返回空序列而非错误。
func (m *RuleMiner) GetBasketRecommendations(basket []string, n int) []core.ScoredProduct {
	snap := m.snap.Load()
	if snap == nil || len(basket) == 0 {
		return nil
	}

	inBasket := make(map[string]struct{}, len(basket))
	for _, p := range basket {
		inBasket[p] = struct{}{}
	}

	scores := make(map[string]float64)
	for _, p := range basket {
		for _, r := range snap.byAntecedent[p] {
			if _, ok := inBasket[r.Consequent]; ok {
				continue // 不推荐篮子里已有的商品
			}
			score := r.Confidence * r.Lift
			if old, ok := scores[r.Consequent]; !ok || score > old {
				scores[r.Consequent] = score
			}
		}
	}

	out := make([]core.ScoredProduct, 0, len(scores))
	for p, s := range scores {
		out = append(out, core.ScoredProduct{ProductID: p, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ProductID < out[j].ProductID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Rules 导出当前快照的全量规则（拷贝），用于持久化与离线分析。
// 未训练时返回 nil。
func (m *RuleMiner) Rules() []Rule {
	snap := m.snap.Load()
	if snap == nil {
		return nil
	}
	out := make([]Rule, len(snap.rules))
	copy(out, snap.rules)
	return out
}

// Restore 用持久化的规则集恢复挖掘器（进程重启后热加载）。
func (m *RuleMiner) Restore(rules []Rule) {
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	m.snap.Store(newRuleSnapshot(cp))
}

func newRuleSnapshot(rules []Rule) *ruleSnapshot {
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Antecedent != rules[j].Antecedent {
			return rules[i].Antecedent < rules[j].Antecedent
		}
		return rules[i].Consequent < rules[j].Consequent
	})
	byAntecedent := make(map[string][]Rule)
	for _, r := range rules {
		byAntecedent[r.Antecedent] = append(byAntecedent[r.Antecedent], r)
	}
	return &ruleSnapshot{rules: rules, byAntecedent: byAntecedent}
}

// intersectCount 统计两个升序下标切片的交集大小。
func intersectCount(a, b []int) int {
	var n, i, j int
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			n++
			i++
			j++
		}
	}
	return n
}
