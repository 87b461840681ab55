package mysql

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/stocktrack/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. database.auto_migrate=true时自动迁移表结构
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	// 1. 构建DSN连接字符串
	dsn := cfg.Database.DSN()

	// 2. 配置GORM日志
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	// 3. 连接数据库
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 4. 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// 5. 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	zap.L().Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName),
	)

	// 6. 自动迁移表结构
	// 注意：生产环境应使用版本化的迁移脚本，默认关闭
	if cfg.Database.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	return db, nil
}

// AutoMigrate 自动迁移表结构
// AutoMigrate只会创建表、添加字段和索引，不会删除或修改现有字段
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&CategoryModel{},
		&ItemModel{},
		&LocationModel{},
		&CounterModel{},
		&PoolBarcodeModel{},
		&AggregateModel{},
		&UnitModel{},
	)
}

// CategoryModel 物品分类
type CategoryModel struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;size:100;not null;comment:分类名称"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
}

// TableName 指定表名
func (CategoryModel) TableName() string {
	return "categories"
}

// ItemModel 物品
// 设计说明:
// 1. barcode是物品的外部条码,唯一索引
// 2. total_quantity是在库单件数的缓存,只在单件增删的事务内按COUNT重算写回
type ItemModel struct {
	ID            uint      `gorm:"primaryKey"`
	Barcode       string    `gorm:"uniqueIndex;size:64;not null;comment:物品条码"`
	Name          string    `gorm:"index;size:255;not null;comment:名称"`
	Description   string    `gorm:"type:text;comment:描述"`
	CategoryID    *uint     `gorm:"index;comment:分类ID"`
	TotalQuantity int       `gorm:"not null;default:0;comment:在库单件总数"`
	CreatedAt     time.Time `gorm:"comment:创建时间"`
	UpdatedAt     time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (ItemModel) TableName() string {
	return "items"
}

// LocationModel 库位
type LocationModel struct {
	ID          uint      `gorm:"primaryKey"`
	Barcode     string    `gorm:"uniqueIndex;size:64;not null;comment:库位条码"`
	Name        string    `gorm:"index;size:255;not null;comment:名称"`
	Description string    `gorm:"type:text;comment:描述"`
	CreatedAt   time.Time `gorm:"comment:创建时间"`
	UpdatedAt   time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (LocationModel) TableName() string {
	return "locations"
}

// CounterModel 物品序号计数器
// 每个物品一行,last_value只增不减;NextValue在行锁下自增
type CounterModel struct {
	ItemID    uint      `gorm:"primaryKey;autoIncrement:false;comment:物品ID"`
	LastValue int64     `gorm:"not null;default:0;comment:最近分配的序号"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (CounterModel) TableName() string {
	return "item_sequence_counters"
}

// PoolBarcodeModel 条码池
// 设计说明:
// 1. barcode全局唯一;行只在占用/可用之间切换,从不删除
// 2. (item_id, in_use, id)复合索引服务"id最小的可用条码"查询
type PoolBarcodeModel struct {
	ID         uint       `gorm:"primaryKey"`
	ItemID     uint       `gorm:"index:idx_pool_available,priority:1;not null;comment:物品ID"`
	Barcode    string     `gorm:"uniqueIndex;size:80;not null;comment:条码"`
	InUse      bool       `gorm:"index:idx_pool_available,priority:2;not null;default:false;comment:是否占用"`
	LastUsedAt *time.Time `gorm:"comment:最近占用/释放时间"`
	CreatedAt  time.Time  `gorm:"comment:创建时间"`
}

// TableName 指定表名
func (PoolBarcodeModel) TableName() string {
	return "barcode_pool"
}

// AggregateModel 库存记录
// (item_id, location_id)唯一索引兜底并发创建
type AggregateModel struct {
	ID         uint      `gorm:"primaryKey"`
	ItemID     uint      `gorm:"uniqueIndex:uk_item_location,priority:1;not null;comment:物品ID"`
	LocationID uint      `gorm:"uniqueIndex:uk_item_location,priority:2;index;not null;comment:库位ID"`
	Quantity   int       `gorm:"not null;default:0;comment:单件数(缓存)"`
	AddedAt    time.Time `gorm:"index;not null;comment:最早入库时间(缓存)"`
	CreatedAt  time.Time `gorm:"comment:创建时间"`
	UpdatedAt  time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (AggregateModel) TableName() string {
	return "stock_aggregates"
}

// UnitModel 单件
// 设计说明:
// 1. (item_id, sequence_number)唯一,序号冲突由唯一索引兜底
// 2. pool_barcode_id唯一,一个条码同一时刻最多被一个单件持有
// 3. barcode冗余自条码池,用于按扫码串直接查找
type UnitModel struct {
	ID             uint      `gorm:"primaryKey"`
	ItemID         uint      `gorm:"uniqueIndex:uk_item_sequence,priority:1;not null;comment:物品ID"`
	SequenceNumber int       `gorm:"uniqueIndex:uk_item_sequence,priority:2;not null;comment:物品内序号"`
	LocationID     uint      `gorm:"index;not null;comment:库位ID"`
	AggregateID    uint      `gorm:"index:idx_unit_aggregate_added,priority:1;not null;comment:库存记录ID"`
	PoolBarcodeID  uint      `gorm:"uniqueIndex;not null;comment:条码池ID"`
	Barcode        string    `gorm:"index;size:80;not null;comment:条码"`
	AddedAt        time.Time `gorm:"index:idx_unit_aggregate_added,priority:2;not null;comment:入库时间"`
	CreatedAt      time.Time `gorm:"comment:创建时间"`
}

// TableName 指定表名
func (UnitModel) TableName() string {
	return "stock_units"
}
