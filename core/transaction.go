package core

import (
	"fmt"
	"sort"
	"time"
)

// Transaction 是交易流水中的一条购买明细（一行一个商品）。
// 同一个 TransactionID 下可以有多行，合起来构成一个购物篮（Basket）。
//
// 数据来源：
//   - 交易流水由外部系统（订单库/数仓）物化后整体传入
//   - 引擎只读消费，不负责采集与落库
type Transaction struct {
	TransactionID string    // 交易 ID（同一笔交易的多行共享）
	CustomerID    string    // 客户 ID
	ProductID     string    // 商品 ID
	Quantity      int       // 购买数量，必须 > 0
	Timestamp     time.Time // 交易时间
}

// Basket 是按 TransactionID 聚合出的购物篮。
// 派生结构，不落库；同一商品的多行明细合并数量，因此 Products 是"商品 → 数量"。
type Basket struct {
	TransactionID string
	Products      map[string]int
}

// Contains 判断购物篮中是否包含某个商品。
func (b *Basket) Contains(productID string) bool {
	_, ok := b.Products[productID]
	return ok
}

// ValidateTransactions 校验交易集合是否可用于训练。
//
// 校验规则：
//   - 集合非空
//   - 每条记录的 TransactionID / CustomerID / ProductID 非空
//   - Quantity > 0
//
// 任何一条不满足即返回 VALIDATION 错误（训练失败，不做部分训练）。
func ValidateTransactions(transactions []Transaction) error {
	if len(transactions) == 0 {
		return ErrEmptyTransactions
	}
	for i, t := range transactions {
		switch {
		case t.TransactionID == "":
			return NewDomainError(ModuleLedger, ErrorCodeValidation,
				fmt.Sprintf("ledger: record %d missing transaction_id", i))
		case t.CustomerID == "":
			return NewDomainError(ModuleLedger, ErrorCodeValidation,
				fmt.Sprintf("ledger: record %d missing customer_id", i))
		case t.ProductID == "":
			return NewDomainError(ModuleLedger, ErrorCodeValidation,
				fmt.Sprintf("ledger: record %d missing product_id", i))
		case t.Quantity <= 0:
			return NewDomainError(ModuleLedger, ErrorCodeValidation,
				fmt.Sprintf("ledger: record %d has non-positive quantity %d", i, t.Quantity))
		}
	}
	return nil
}

// GroupBaskets 按 TransactionID 聚合购物篮，返回按 TransactionID 升序排列的切片。
// 排序保证后续挖掘/评估在相同输入下产出字节一致的结果。
func GroupBaskets(transactions []Transaction) []Basket {
	byTxn := make(map[string]*Basket)
	for _, t := range transactions {
		b, ok := byTxn[t.TransactionID]
		if !ok {
			b = &Basket{
				TransactionID: t.TransactionID,
				Products:      make(map[string]int),
			}
			byTxn[t.TransactionID] = b
		}
		b.Products[t.ProductID] += t.Quantity
	}

	out := make([]Basket, 0, len(byTxn))
	for _, b := range byTxn {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TransactionID < out[j].TransactionID
	})
	return out
}
