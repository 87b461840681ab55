package mysql

import (
	"context"

	"gorm.io/gorm"
)

// Status 数据库健康检查和表行数统计(状态接口使用)
type Status struct {
	db *gorm.DB
}

// NewStatus 创建状态查询
func NewStatus(db *gorm.DB) *Status {
	return &Status{db: db}
}

// Ping 检查数据库连通性
func (s *Status) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Counts 库位数、物品数、库存记录数、单件数
func (s *Status) Counts(ctx context.Context) (locations, items, aggregates, units int64, err error) {
	db := s.db.WithContext(ctx)
	if err = db.Model(&LocationModel{}).Count(&locations).Error; err != nil {
		return 0, 0, 0, 0, wrapDBError(err, "统计库位失败")
	}
	if err = db.Model(&ItemModel{}).Count(&items).Error; err != nil {
		return 0, 0, 0, 0, wrapDBError(err, "统计物品失败")
	}
	if err = db.Model(&AggregateModel{}).Count(&aggregates).Error; err != nil {
		return 0, 0, 0, 0, wrapDBError(err, "统计库存记录失败")
	}
	if err = db.Model(&UnitModel{}).Count(&units).Error; err != nil {
		return 0, 0, 0, 0, wrapDBError(err, "统计单件失败")
	}
	return locations, items, aggregates, units, nil
}
