package similarity

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/rushteam/basketkit/core"
)

// Model 是商品到商品（item-to-item）的相似度模型。
//
// 核心思想："被同一批客户购买的商品，相互相似"
//
// 算法流程：
//  1. 交易明细 → 客户×商品数量矩阵（同一客户对同一商品的数量累加，缺失为 0）
//  2. 转置为商品×客户向量，两两计算余弦相似度
//  3. 每个商品预排序一行非零邻居，查询时 O(1) 取行
//
// 工程特征：
//  - 实时性：好（查询只是切片截取）
//  - 计算复杂度：训练 O(p²·c)，p 为商品数、c 为共同客户数
//  - 可解释性：强（"买过 X 的客户也买了 Y"）
//  - 稳定性：高
//
// 存储形态：
//  - 稀疏行存储：只保留非零相似度对，目录超过几千商品时内存可控
//  - 相似度矩阵对称（S(i,j)=S(j,i)），自身相似度不对外返回
//
// 发布语义：
//  - Build 在后台完整算完后一次性换指针发布（publish-by-swap）
//  - 已发布快照不可变，查询无需加锁，可任意并发
type Model struct {
	snap atomic.Pointer[snapshot]
}

// snapshot 是一次训练的完整产物，发布后只读。
type snapshot struct {
	// rows 按商品索引的相似邻居行，已按（分数降序，商品 ID 升序）排好
	rows map[string][]core.ScoredProduct
}

// Build 在交易集合上训练相似度模型。
// 输入为空或存在坏记录时返回 VALIDATION 错误，此时旧版本（若有）继续服务。
func (m *Model) Build(transactions []core.Transaction) error {
	if err := core.ValidateTransactions(transactions); err != nil {
		return err
	}

	// 商品 → (客户 → 累计数量)，即商品×客户稀疏向量
	vectors := make(map[string]map[string]float64)
	for _, t := range transactions {
		v, ok := vectors[t.ProductID]
		if !ok {
			v = make(map[string]float64)
			vectors[t.ProductID] = v
		}
		v[t.CustomerID] += float64(t.Quantity)
	}

	// 商品列表按 ID 升序，保证遍历顺序与产出完全确定
	products := make([]string, 0, len(vectors))
	for p := range vectors {
		products = append(products, p)
	}
	sort.Strings(products)

	norms := make(map[string]float64, len(products))
	for p, v := range vectors {
		var sum float64
		for _, q := range v {
			sum += q * q
		}
		norms[p] = math.Sqrt(sum)
	}

	rows := make(map[string][]core.ScoredProduct, len(products))
	for i := 0; i < len(products); i++ {
		for j := i + 1; j < len(products); j++ {
			pi, pj := products[i], products[j]
			score := cosine(vectors[pi], vectors[pj], norms[pi], norms[pj])
			if score <= 0 {
				continue
			}
			rows[pi] = append(rows[pi], core.ScoredProduct{ProductID: pj, Score: score})
			rows[pj] = append(rows[pj], core.ScoredProduct{ProductID: pi, Score: score})
		}
	}

	for _, row := range rows {
		sortRow(row)
	}

	m.snap.Store(&snapshot{rows: rows})
	return nil
}

// Trained 报告模型是否完成过至少一次训练（含 Restore）。
func (m *Model) Trained() bool {
	return m.snap.Load() != nil
}

// GetSimilar 返回与给定商品最相似的至多 n 个商品，按分数降序、
// 同分按商品 ID 升序。查询商品自身永远不在结果中。
//
// 未训练或商品未知时返回空序列而非错误——"没有推荐"是正常业务结果。
// n <= 0 表示不截断。
func (m *Model) GetSimilar(productID string, n int) []core.ScoredProduct {
	snap := m.snap.Load()
	if snap == nil {
		return nil
	}
	row, ok := snap.rows[productID]
	if !ok {
		return nil
	}
	if n > 0 && len(row) > n {
		row = row[:n]
	}
	// 拷贝返回，保护已发布快照不被调用方修改
	out := make([]core.ScoredProduct, len(row))
	copy(out, row)
	return out
}

// Rows 导出当前快照的全部相似度行（深拷贝），用于持久化。
// 未训练时返回 nil。
func (m *Model) Rows() map[string][]core.ScoredProduct {
	snap := m.snap.Load()
	if snap == nil {
		return nil
	}
	out := make(map[string][]core.ScoredProduct, len(snap.rows))
	for p, row := range snap.rows {
		cp := make([]core.ScoredProduct, len(row))
		copy(cp, row)
		out[p] = cp
	}
	return out
}

// Restore 用持久化的相似度行恢复模型（进程重启后热加载）。
// 与 Build 相同的发布语义：整体就绪后换指针。
func (m *Model) Restore(rows map[string][]core.ScoredProduct) {
	cp := make(map[string][]core.ScoredProduct, len(rows))
	for p, row := range rows {
		r := make([]core.ScoredProduct, len(row))
		copy(r, row)
		sortRow(r)
		cp[p] = r
	}
	m.snap.Store(&snapshot{rows: cp})
}

// cosine 计算两个稀疏向量的余弦相似度，任一向量为零向量时定义为 0。
// 数量非负，结果落在 [0,1]；浮点误差向上越界时收回 1。
func cosine(a, b map[string]float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	// 遍历较小的向量求点积
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for customer, qa := range a {
		if qb, ok := b[customer]; ok {
			dot += qa * qb
		}
	}
	score := dot / (normA * normB)
	if score > 1 {
		score = 1
	}
	return score
}

// sortRow 按（分数降序，商品 ID 升序）排序，同分排序是确定性契约而非实现细节。
func sortRow(row []core.ScoredProduct) {
	sort.Slice(row, func(i, j int) bool {
		if row[i].Score != row[j].Score {
			return row[i].Score > row[j].Score
		}
		return row[i].ProductID < row[j].ProductID
	})
}
