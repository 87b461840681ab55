package mysql

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/stocktrack/internal/domain/stock"
)

// =========================================
// 序号计数器
// =========================================

type counterRepository struct {
	db *gorm.DB
}

// NewCounterRepository 创建计数器仓储
func NewCounterRepository(db *gorm.DB) stock.CounterRepository {
	return &counterRepository{db: db}
}

// NextValue 原子自增
// 1. INSERT ... ON DUPLICATE KEY UPDATE:计数器不存在则创建(初始0)
// 2. UPDATE last_value = last_value + 1:取得行锁,并发调用在此排队
// 3. 同一事务内读回自增后的值
func (r *counterRepository) NextValue(ctx context.Context, itemID uint) (int64, error) {
	var next int64
	err := inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := r.ensure(tx, itemID); err != nil {
			return err
		}
		err := tx.Model(&CounterModel{}).
			Where("item_id = ?", itemID).
			Updates(map[string]interface{}{
				"last_value": gorm.Expr("last_value + ?", 1),
				"updated_at": time.Now(),
			}).Error
		if err != nil {
			return wrapDBError(err, "更新序号计数器失败")
		}
		return r.read(tx, itemID, &next)
	})
	return next, err
}

// Current 当前值,计数器不存在时返回0
func (r *counterRepository) Current(ctx context.Context, itemID uint) (int64, error) {
	var current int64
	err := r.read(getDB(ctx, r.db), itemID, &current)
	if errors.Is(err, stock.ErrCounterNotFound) {
		return 0, nil
	}
	return current, err
}

// RaiseTo 抬高计数器,只增不减
func (r *counterRepository) RaiseTo(ctx context.Context, itemID uint, value int64) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := r.ensure(tx, itemID); err != nil {
			return err
		}
		err := tx.Model(&CounterModel{}).
			Where("item_id = ? AND last_value < ?", itemID, value).
			Updates(map[string]interface{}{
				"last_value": value,
				"updated_at": time.Now(),
			}).Error
		if err != nil {
			return wrapDBError(err, "更新序号计数器失败")
		}
		return nil
	})
}

func (r *counterRepository) ensure(tx *gorm.DB, itemID uint) error {
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&CounterModel{ItemID: itemID, LastValue: 0}).Error
	if err != nil {
		return wrapDBError(err, "创建序号计数器失败")
	}
	return nil
}

func (r *counterRepository) read(db *gorm.DB, itemID uint, out *int64) error {
	var model CounterModel
	err := db.Where("item_id = ?", itemID).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return stock.ErrCounterNotFound
		}
		return wrapDBError(err, "查询序号计数器失败")
	}
	*out = model.LastValue
	return nil
}

// =========================================
// 条码池
// =========================================

type poolRepository struct {
	db *gorm.DB
}

// NewPoolRepository 创建条码池仓储
func NewPoolRepository(db *gorm.DB) stock.PoolRepository {
	return &poolRepository{db: db}
}

func (r *poolRepository) Create(ctx context.Context, pb *stock.PoolBarcode) error {
	model := toPoolBarcodeModel(pb)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return stock.ErrDuplicateBarcode.WithCause(err)
		}
		return wrapDBError(err, "创建条码失败")
	}
	pb.ID = model.ID
	pb.CreatedAt = model.CreatedAt
	return nil
}

// CreateBatch 批量写入,单条INSERT多个VALUES
func (r *poolRepository) CreateBatch(ctx context.Context, barcodes []*stock.PoolBarcode) error {
	if len(barcodes) == 0 {
		return nil
	}
	models := make([]*PoolBarcodeModel, len(barcodes))
	for i, pb := range barcodes {
		models[i] = toPoolBarcodeModel(pb)
	}
	if err := getDB(ctx, r.db).CreateInBatches(models, 500).Error; err != nil {
		if isDuplicateError(err) {
			return stock.ErrDuplicateBarcode.WithCause(err)
		}
		return wrapDBError(err, "批量创建条码失败")
	}
	for i, model := range models {
		barcodes[i].ID = model.ID
		barcodes[i].CreatedAt = model.CreatedAt
	}
	return nil
}

func (r *poolRepository) FindByBarcode(ctx context.Context, barcode string) (*stock.PoolBarcode, error) {
	var model PoolBarcodeModel
	err := getDB(ctx, r.db).Where("barcode = ?", barcode).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stock.ErrBarcodeNotFound
		}
		return nil, wrapDBError(err, "查询条码失败")
	}
	return toPoolBarcodeEntity(&model), nil
}

func (r *poolRepository) LockByID(ctx context.Context, id uint) (*stock.PoolBarcode, error) {
	var model PoolBarcodeModel
	err := getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Take(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stock.ErrBarcodeNotFound
		}
		return nil, wrapDBError(err, "锁定条码失败")
	}
	return toPoolBarcodeEntity(&model), nil
}

// LockFirstAvailable SELECT ... FOR UPDATE SKIP LOCKED
// 已被其他事务锁住的可用条码直接跳过,并发入库不会在同一行上排队
func (r *poolRepository) LockFirstAvailable(ctx context.Context, itemID uint) (*stock.PoolBarcode, error) {
	var model PoolBarcodeModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("item_id = ? AND in_use = ?", itemID, false).
		Order("id ASC").
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stock.ErrNoAvailableBarcode
		}
		return nil, wrapDBError(err, "查询可用条码失败")
	}
	return toPoolBarcodeEntity(&model), nil
}

// MarkInUse 条件更新:WHERE in_use = false
func (r *poolRepository) MarkInUse(ctx context.Context, id uint, at time.Time) error {
	result := getDB(ctx, r.db).Model(&PoolBarcodeModel{}).
		Where("id = ? AND in_use = ?", id, false).
		Updates(map[string]interface{}{
			"in_use":       true,
			"last_used_at": at,
		})
	if result.Error != nil {
		return wrapDBError(result.Error, "占用条码失败")
	}
	if result.RowsAffected == 0 {
		return stock.ErrConcurrencyConflict
	}
	return nil
}

func (r *poolRepository) Release(ctx context.Context, id uint, at time.Time) error {
	result := getDB(ctx, r.db).Model(&PoolBarcodeModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"in_use":       false,
			"last_used_at": at,
		})
	if result.Error != nil {
		return wrapDBError(result.Error, "释放条码失败")
	}
	if result.RowsAffected == 0 {
		return stock.ErrBarcodeNotFound
	}
	return nil
}

func (r *poolRepository) Count(ctx context.Context, itemID uint) (int64, int64, error) {
	var row struct {
		Total int64
		InUse int64
	}
	err := getDB(ctx, r.db).Model(&PoolBarcodeModel{}).
		Select("COUNT(*) AS total, COALESCE(SUM(in_use), 0) AS in_use").
		Where("item_id = ?", itemID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, wrapDBError(err, "统计条码池失败")
	}
	return row.Total, row.InUse, nil
}

// =========================================
// 库存记录
// =========================================

type aggregateRepository struct {
	db *gorm.DB
}

// NewAggregateRepository 创建库存记录仓储
func NewAggregateRepository(db *gorm.DB) stock.AggregateRepository {
	return &aggregateRepository{db: db}
}

// FindOrCreate INSERT ... ON DUPLICATE KEY UPDATE + SELECT ... FOR UPDATE
// 并发的第一次入库只会留下一条记录,随后都在这一行上加锁
func (r *aggregateRepository) FindOrCreate(ctx context.Context, itemID, locationID uint, now time.Time) (*stock.Aggregate, error) {
	db := getDB(ctx, r.db)
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&AggregateModel{
		ItemID:     itemID,
		LocationID: locationID,
		AddedAt:    now,
	}).Error
	if err != nil {
		return nil, wrapDBError(err, "创建库存记录失败")
	}
	return r.LockByItemAndLocation(ctx, itemID, locationID)
}

func (r *aggregateRepository) LockByItemAndLocation(ctx context.Context, itemID, locationID uint) (*stock.Aggregate, error) {
	return r.findOne(getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), itemID, locationID)
}

func (r *aggregateRepository) FindByItemAndLocation(ctx context.Context, itemID, locationID uint) (*stock.Aggregate, error) {
	return r.findOne(getDB(ctx, r.db), itemID, locationID)
}

func (r *aggregateRepository) findOne(db *gorm.DB, itemID, locationID uint) (*stock.Aggregate, error) {
	var model AggregateModel
	err := db.Where("item_id = ? AND location_id = ?", itemID, locationID).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stock.ErrAggregateNotFound
		}
		return nil, wrapDBError(err, "查询库存记录失败")
	}
	return toAggregateEntity(&model), nil
}

// Refresh 按在库单件重算quantity和added_at并写回
// 没有单件时只把quantity置0,added_at保留(调用方随后删除该记录)
func (r *aggregateRepository) Refresh(ctx context.Context, id uint) (*stock.Aggregate, error) {
	db := getDB(ctx, r.db)

	var projection struct {
		Quantity int
		Oldest   *time.Time
	}
	err := db.Model(&UnitModel{}).
		Select("COUNT(*) AS quantity, MIN(added_at) AS oldest").
		Where("aggregate_id = ?", id).
		Scan(&projection).Error
	if err != nil {
		return nil, wrapDBError(err, "统计库存记录失败")
	}

	updates := map[string]interface{}{
		"quantity":   projection.Quantity,
		"updated_at": time.Now(),
	}
	if projection.Quantity > 0 && projection.Oldest != nil {
		updates["added_at"] = *projection.Oldest
	}
	result := db.Model(&AggregateModel{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, wrapDBError(result.Error, "更新库存记录失败")
	}

	var model AggregateModel
	if err := db.Take(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stock.ErrAggregateNotFound
		}
		return nil, wrapDBError(err, "查询库存记录失败")
	}
	return toAggregateEntity(&model), nil
}

// Delete 删除库存记录(连同其下单件)
func (r *aggregateRepository) Delete(ctx context.Context, id uint) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("aggregate_id = ?", id).Delete(&UnitModel{}).Error; err != nil {
			return wrapDBError(err, "删除单件失败")
		}
		result := tx.Delete(&AggregateModel{}, id)
		if result.Error != nil {
			return wrapDBError(result.Error, "删除库存记录失败")
		}
		if result.RowsAffected == 0 {
			return stock.ErrAggregateNotFound
		}
		return nil
	})
}

// entryRow 库存记录 + 物品/库位名称
type entryRow struct {
	AggregateModel  `gorm:"embedded"`
	ItemBarcode     string
	ItemName        string
	LocationBarcode string
	LocationName    string
}

const entryColumns = "stock_aggregates.*, " +
	"items.barcode AS item_barcode, items.name AS item_name, " +
	"locations.barcode AS location_barcode, locations.name AS location_name"

func (r *aggregateRepository) entries(ctx context.Context) *gorm.DB {
	return getDB(ctx, r.db).
		Table("stock_aggregates").
		Joins("JOIN items ON items.id = stock_aggregates.item_id").
		Joins("JOIN locations ON locations.id = stock_aggregates.location_id")
}

func (r *aggregateRepository) ListEntriesByItem(ctx context.Context, itemID uint) ([]*stock.Entry, error) {
	var rows []entryRow
	err := r.entries(ctx).
		Select(entryColumns).
		Where("stock_aggregates.item_id = ?", itemID).
		Order("stock_aggregates.added_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapDBError(err, "查询物品库存失败")
	}
	return toEntries(rows), nil
}

func (r *aggregateRepository) ListEntriesByLocation(ctx context.Context, locationID uint) ([]*stock.Entry, error) {
	var rows []entryRow
	err := r.entries(ctx).
		Select(entryColumns).
		Where("stock_aggregates.location_id = ?", locationID).
		Order("stock_aggregates.added_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapDBError(err, "查询库位库存失败")
	}
	return toEntries(rows), nil
}

// Search 物品名称/物品条码/库位名称模糊匹配,最新入库在前
func (r *aggregateRepository) Search(ctx context.Context, params stock.SearchParams) ([]*stock.Entry, int64, error) {
	params = params.Normalize()

	query := r.entries(ctx)
	if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("items.name LIKE ? OR items.barcode LIKE ? OR locations.name LIKE ?", like, like, like)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapDBError(err, "查询库存总数失败")
	}

	var rows []entryRow
	err := query.
		Select(entryColumns).
		Order("stock_aggregates.added_at DESC").
		Limit(params.PageSize).
		Offset((params.Page - 1) * params.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, wrapDBError(err, "搜索库存失败")
	}
	return toEntries(rows), total, nil
}

// ListByAge 库龄报表:最早入库在前
func (r *aggregateRepository) ListByAge(ctx context.Context, page, pageSize int) ([]*stock.Entry, int64, error) {
	params := stock.SearchParams{Page: page, PageSize: pageSize}.Normalize()
	query := r.entries(ctx).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapDBError(err, "查询库存总数失败")
	}

	var rows []entryRow
	err := query.
		Select(entryColumns).
		Order("stock_aggregates.added_at ASC").
		Order("stock_aggregates.id ASC").
		Limit(params.PageSize).
		Offset((params.Page - 1) * params.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, wrapDBError(err, "查询库龄失败")
	}
	return toEntries(rows), total, nil
}

func (r *aggregateRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := getDB(ctx, r.db).Model(&AggregateModel{}).Where("added_at < ?", cutoff).Count(&n).Error
	if err != nil {
		return 0, wrapDBError(err, "统计库龄失败")
	}
	return n, nil
}

// =========================================
// 单件
// =========================================

// uniqueItemSequence 单件序号唯一索引名
const uniqueItemSequence = "uk_item_sequence"

type unitRepository struct {
	db *gorm.DB
}

// NewUnitRepository 创建单件仓储
func NewUnitRepository(db *gorm.DB) stock.UnitRepository {
	return &unitRepository{db: db}
}

func (r *unitRepository) Create(ctx context.Context, unit *stock.Unit) error {
	model := &UnitModel{
		ItemID:         unit.ItemID,
		SequenceNumber: unit.SequenceNumber,
		LocationID:     unit.LocationID,
		AggregateID:    unit.AggregateID,
		PoolBarcodeID:  unit.PoolBarcodeID,
		Barcode:        unit.Barcode,
		AddedAt:        unit.AddedAt,
		CreatedAt:      unit.CreatedAt,
	}
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		switch {
		case isDuplicateOn(err, uniqueItemSequence):
			return stock.ErrSequenceCollision.WithCause(err)
		case isDuplicateError(err):
			// pool_barcode_id唯一:同一条码被两个单件持有
			return stock.ErrDuplicateBarcode.WithCause(err)
		}
		return wrapDBError(err, "创建单件失败")
	}
	unit.ID = model.ID
	unit.CreatedAt = model.CreatedAt
	return nil
}

func (r *unitRepository) FindByBarcode(ctx context.Context, barcode string) (*stock.Unit, error) {
	var model UnitModel
	err := getDB(ctx, r.db).Where("barcode = ?", barcode).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stock.ErrUnitNotFound
		}
		return nil, wrapDBError(err, "查询单件失败")
	}
	return toUnitEntity(&model), nil
}

// SelectForRemoval fifo: ORDER BY added_at, id;lifo: ORDER BY added_at DESC, id DESC
func (r *unitRepository) SelectForRemoval(ctx context.Context, aggregateID uint, policy stock.RemovalPolicy) (*stock.Unit, error) {
	order := "added_at ASC, id ASC"
	if policy == stock.PolicyLIFO {
		order = "added_at DESC, id DESC"
	}

	var model UnitModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("aggregate_id = ?", aggregateID).
		Order(order).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stock.ErrUnitNotFound
		}
		return nil, wrapDBError(err, "选择出库单件失败")
	}
	return toUnitEntity(&model), nil
}

func (r *unitRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&UnitModel{}, id)
	if result.Error != nil {
		return wrapDBError(result.Error, "删除单件失败")
	}
	if result.RowsAffected == 0 {
		return stock.ErrUnitNotFound
	}
	return nil
}

func (r *unitRepository) ListByAggregate(ctx context.Context, aggregateID uint) ([]*stock.Unit, error) {
	var models []UnitModel
	err := getDB(ctx, r.db).
		Where("aggregate_id = ?", aggregateID).
		Order("added_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, wrapDBError(err, "查询单件列表失败")
	}
	units := make([]*stock.Unit, len(models))
	for i := range models {
		units[i] = toUnitEntity(&models[i])
	}
	return units, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toPoolBarcodeModel(pb *stock.PoolBarcode) *PoolBarcodeModel {
	return &PoolBarcodeModel{
		ItemID:     pb.ItemID,
		Barcode:    pb.Barcode,
		InUse:      pb.InUse,
		LastUsedAt: pb.LastUsedAt,
		CreatedAt:  pb.CreatedAt,
	}
}

func toPoolBarcodeEntity(model *PoolBarcodeModel) *stock.PoolBarcode {
	return &stock.PoolBarcode{
		ID:         model.ID,
		ItemID:     model.ItemID,
		Barcode:    model.Barcode,
		InUse:      model.InUse,
		LastUsedAt: model.LastUsedAt,
		CreatedAt:  model.CreatedAt,
	}
}

func toAggregateEntity(model *AggregateModel) *stock.Aggregate {
	return &stock.Aggregate{
		ID:         model.ID,
		ItemID:     model.ItemID,
		LocationID: model.LocationID,
		Quantity:   model.Quantity,
		AddedAt:    model.AddedAt,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toEntries(rows []entryRow) []*stock.Entry {
	entries := make([]*stock.Entry, len(rows))
	for i := range rows {
		entries[i] = &stock.Entry{
			Aggregate:       *toAggregateEntity(&rows[i].AggregateModel),
			ItemBarcode:     rows[i].ItemBarcode,
			ItemName:        rows[i].ItemName,
			LocationBarcode: rows[i].LocationBarcode,
			LocationName:    rows[i].LocationName,
		}
	}
	return entries
}

func toUnitEntity(model *UnitModel) *stock.Unit {
	return &stock.Unit{
		ID:             model.ID,
		ItemID:         model.ItemID,
		LocationID:     model.LocationID,
		AggregateID:    model.AggregateID,
		PoolBarcodeID:  model.PoolBarcodeID,
		Barcode:        model.Barcode,
		SequenceNumber: model.SequenceNumber,
		AddedAt:        model.AddedAt,
		CreatedAt:      model.CreatedAt,
	}
}
