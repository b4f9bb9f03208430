package store

import (
	"context"
	"encoding/json"

	"github.com/rushteam/basketkit/basket"
	"github.com/rushteam/basketkit/core"
	"github.com/rushteam/basketkit/similarity"
)

// SnapshotStore 负责已发布模型的持久化与热加载。
//
// 训练是批量作业，进程重启后没必要重算：把发布快照写进 Store，
// 新进程起来先 Load 再对外服务，等下一轮重训再覆盖。
//
// key 布局：
//   - 相似度行：  {KeyPrefix}:sim:{productID}（JSON 邻居行，按商品分 key 便于批量读）
//   - 相似度索引：{KeyPrefix}:sim:index（JSON 商品 ID 数组）
//   - 规则集：    {KeyPrefix}:rules（JSON 规则数组）
//   - 规则榜单：  {KeyPrefix}:rules:board（有序集合，member "前件->后件"，分数 confidence×lift）
//
// 一致性：Load 出来的内容经由模型的 Restore 整体换指针发布，
// 与训练发布同一套 publish-by-swap 语义。
type SnapshotStore struct {
	Store core.Store

	// KeyPrefix 默认 "basketkit"
	KeyPrefix string
}

// NewSnapshotStore 创建快照存储。
func NewSnapshotStore(s core.Store, keyPrefix string) *SnapshotStore {
	if keyPrefix == "" {
		keyPrefix = "basketkit"
	}
	return &SnapshotStore{Store: s, KeyPrefix: keyPrefix}
}

// SaveSimilarity 持久化相似度模型的发布快照。
// 模型未训练时返回 NOT_TRAINED。
func (s *SnapshotStore) SaveSimilarity(ctx context.Context, m *similarity.Model) error {
	rows := m.Rows()
	if rows == nil {
		return core.NewDomainError(core.ModuleSimilarity, core.ErrorCodeNotTrained,
			"similarity: nothing to snapshot, model has not been trained")
	}

	index := make([]string, 0, len(rows))
	kvs := make(map[string][]byte, len(rows)+1)
	for productID, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		kvs[s.simRowKey(productID)] = data
		index = append(index, productID)
	}

	indexData, err := json.Marshal(index)
	if err != nil {
		return err
	}
	kvs[s.simIndexKey()] = indexData

	return s.Store.BatchSet(ctx, kvs)
}

// LoadSimilarity 从 Store 加载相似度快照并恢复模型。
// 没有快照时返回 store 的 NOT_FOUND，调用方据此决定是否转为全量训练。
func (s *SnapshotStore) LoadSimilarity(ctx context.Context, m *similarity.Model) error {
	indexData, err := s.Store.Get(ctx, s.simIndexKey())
	if err != nil {
		return err
	}
	var index []string
	if err := json.Unmarshal(indexData, &index); err != nil {
		return err
	}

	keys := make([]string, 0, len(index))
	for _, productID := range index {
		keys = append(keys, s.simRowKey(productID))
	}
	kvs, err := s.Store.BatchGet(ctx, keys)
	if err != nil {
		return err
	}

	rows := make(map[string][]core.ScoredProduct, len(index))
	for _, productID := range index {
		data, ok := kvs[s.simRowKey(productID)]
		if !ok {
			continue // 行缺失按无邻居处理，索引才是权威商品清单
		}
		var row []core.ScoredProduct
		if err := json.Unmarshal(data, &row); err != nil {
			return err
		}
		rows[productID] = row
	}

	m.Restore(rows)
	return nil
}

// SaveRules 持久化规则挖掘器的发布快照。
// 挖掘器未训练时返回 NOT_TRAINED。
func (s *SnapshotStore) SaveRules(ctx context.Context, m *basket.RuleMiner) error {
	rules := m.Rules()
	if rules == nil {
		return core.NewDomainError(core.ModuleBasket, core.ErrorCodeNotTrained,
			"basket: nothing to snapshot, rule set has not been mined")
	}
	data, err := json.Marshal(rules)
	if err != nil {
		return err
	}
	return s.Store.Set(ctx, s.rulesKey(), data)
}

// LoadRules 从 Store 加载规则快照并恢复挖掘器。
func (s *SnapshotStore) LoadRules(ctx context.Context, m *basket.RuleMiner) error {
	data, err := s.Store.Get(ctx, s.rulesKey())
	if err != nil {
		return err
	}
	var rules []basket.Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return err
	}
	m.Restore(rules)
	return nil
}

// PublishRuleBoard 把规则按 confidence×lift 写入有序集合，供运营侧查看 Top 规则。
// Store 不支持有序集合时返回 NOT_SUPPORTED。
func (s *SnapshotStore) PublishRuleBoard(ctx context.Context, m *basket.RuleMiner) error {
	kv, ok := s.Store.(core.KeyValueStore)
	if !ok {
		return core.ErrStoreNotSupported
	}
	rules := m.Rules()
	if rules == nil {
		return core.NewDomainError(core.ModuleBasket, core.ErrorCodeNotTrained,
			"basket: nothing to publish, rule set has not been mined")
	}
	key := s.ruleBoardKey()
	for _, r := range rules {
		member := r.Antecedent + "->" + r.Consequent
		if err := kv.ZAdd(ctx, key, r.Confidence*r.Lift, member); err != nil {
			return err
		}
	}
	return nil
}

// TopRules 读取规则榜单的前 n 名（member 形如 "前件->后件"）。
func (s *SnapshotStore) TopRules(ctx context.Context, n int64) ([]string, error) {
	kv, ok := s.Store.(core.KeyValueStore)
	if !ok {
		return nil, core.ErrStoreNotSupported
	}
	return kv.ZRange(ctx, s.ruleBoardKey(), 0, n-1)
}

func (s *SnapshotStore) simRowKey(productID string) string {
	return s.KeyPrefix + ":sim:" + productID
}

func (s *SnapshotStore) simIndexKey() string {
	return s.KeyPrefix + ":sim:index"
}

func (s *SnapshotStore) rulesKey() string {
	return s.KeyPrefix + ":rules"
}

func (s *SnapshotStore) ruleBoardKey() string {
	return s.KeyPrefix + ":rules:board"
}
