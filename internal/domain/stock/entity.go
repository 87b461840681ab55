package stock

import (
	"math"
	"time"
)

// Aggregate 库存记录:某物品在某库位的全部单件
// 设计说明:
// 1. 每个(物品,库位)最多一条,第一件入库时创建,最后一件出库时同步删除
// 2. Quantity和AddedAt是单件集合的投影(数量、最早入库时间),
//    与单件变更在同一事务内重算写回,不单独增减
// 3. 单件只通过AggregateID反向引用,聚合本身不持有单件列表
type Aggregate struct {
	ID         uint
	ItemID     uint
	LocationID uint
	Quantity   int
	AddedAt    time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Unit 单件:一个被单独追踪的实物
// 入库时从条码池领取一个条码,出库或移走时释放(不删除)
type Unit struct {
	ID             uint
	ItemID         uint
	LocationID     uint
	AggregateID    uint
	PoolBarcodeID  uint
	Barcode        string // 只读,冗余自条码池
	SequenceNumber int    // 物品内唯一:原条码为1,生成条码取后缀数字
	AddedAt        time.Time
	CreatedAt      time.Time
}

// StorageDays 在库天数(带小数,不取整)
func (u *Unit) StorageDays(now time.Time) float64 {
	return StorageDays(u.AddedAt, now)
}

// StorageDays 计算从addedAt到now经过的天数
func StorageDays(addedAt, now time.Time) float64 {
	return now.Sub(addedAt).Hours() / 24
}

// PoolBarcode 条码池中的一个可复用条码
// 两种形态按值区分:等于物品条码的是原条码(legacy),其余为{物品条码}-{序号:05d}
// 只在可用/占用之间切换,从不删除
type PoolBarcode struct {
	ID         uint
	ItemID     uint
	Barcode    string
	InUse      bool
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// IsLegacy 是否为物品原条码
func (b *PoolBarcode) IsLegacy(itemBarcode string) bool {
	return b.Barcode == itemBarcode
}

// RemovalPolicy 出库策略
type RemovalPolicy string

const (
	PolicyFIFO RemovalPolicy = "fifo" // 先进先出:移除最早入库的单件
	PolicyLIFO RemovalPolicy = "lifo" // 后进先出:移除最晚入库的单件
)

// Valid 是否为已知策略
func (p RemovalPolicy) Valid() bool {
	return p == PolicyFIFO || p == PolicyLIFO
}

// ParseRemovalPolicy 解析出库策略,空字符串返回默认值
func ParseRemovalPolicy(s string, fallback RemovalPolicy) (RemovalPolicy, error) {
	if s == "" {
		return fallback, nil
	}
	p := RemovalPolicy(s)
	if !p.Valid() {
		return "", ErrInvalidPolicy
	}
	return p, nil
}

// RemovalResult 出库结果
// 所有字段都在单件销毁前采集
type RemovalResult struct {
	UnitID            uint
	AggregateID       uint
	ItemID            uint
	LocationID        uint
	Barcode           string
	SequenceNumber    int
	WasLegacy         bool
	AddedAt           time.Time
	StorageDays       float64
	CompletelyRemoved bool
	Remaining         *Aggregate // 未清空时为重算后的库存记录
	ItemTotalQuantity int        // 重算后的物品总数
}

// PoolStats 条码池统计
type PoolStats struct {
	ItemID             uint
	Total              int64
	InUse              int64
	Available          int64
	UtilizationPercent float64
}

// NewPoolStats 计算可用数和利用率(保留1位小数,空池为0)
func NewPoolStats(itemID uint, total, inUse int64) PoolStats {
	stats := PoolStats{
		ItemID:    itemID,
		Total:     total,
		InUse:     inUse,
		Available: total - inUse,
	}
	if total > 0 {
		stats.UtilizationPercent = math.Round(float64(inUse)/float64(total)*1000) / 10
	}
	return stats
}

// Entry 库存记录的展示视图(带物品/库位名称)
type Entry struct {
	Aggregate
	ItemBarcode     string
	ItemName        string
	LocationBarcode string
	LocationName    string
}
