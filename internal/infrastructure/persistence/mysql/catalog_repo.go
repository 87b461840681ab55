package mysql

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/stocktrack/internal/domain/catalog"
)

// itemRepository 物品仓储实现(MySQL)
// 设计说明:
// 1. 实现domain/catalog/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 处理数据库特定的错误(如条码重复),转换为业务错误
type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository 创建物品仓储
func NewItemRepository(db *gorm.DB) catalog.ItemRepository {
	return &itemRepository{db: db}
}

// itemRow 物品 + 分类名称(LEFT JOIN结果)
type itemRow struct {
	ItemModel    `gorm:"embedded"`
	CategoryName string
}

const itemColumns = "items.*, categories.name AS category_name"

func (r *itemRepository) withCategory(ctx context.Context) *gorm.DB {
	return getDB(ctx, r.db).
		Table("items").
		Select(itemColumns).
		Joins("LEFT JOIN categories ON categories.id = items.category_id")
}

// Create 创建物品
func (r *itemRepository) Create(ctx context.Context, item *catalog.Item) error {
	// 1. 领域实体 → GORM模型
	model := &ItemModel{
		Barcode:       item.Barcode,
		Name:          item.Name,
		Description:   item.Description,
		CategoryID:    item.CategoryID,
		TotalQuantity: item.TotalQuantity,
	}

	// 2. 插入数据库
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return catalog.ErrDuplicateBarcode
		}
		return wrapDBError(err, "创建物品失败")
	}

	// 3. 回填自增ID
	item.ID = model.ID
	item.CreatedAt = model.CreatedAt
	item.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找物品
func (r *itemRepository) FindByID(ctx context.Context, id uint) (*catalog.Item, error) {
	var row itemRow
	err := r.withCategory(ctx).Where("items.id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrItemNotFound
		}
		return nil, wrapDBError(err, "查询物品失败")
	}
	return toItemEntity(&row.ItemModel, row.CategoryName), nil
}

// FindByBarcode 根据条码查找物品
func (r *itemRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Item, error) {
	var row itemRow
	err := r.withCategory(ctx).Where("items.barcode = ?", barcode).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrItemNotFound
		}
		return nil, wrapDBError(err, "查询物品失败")
	}
	return toItemEntity(&row.ItemModel, row.CategoryName), nil
}

// LockByID 悲观锁查询物品
// 必须使用getDB(ctx)从context获取事务DB,否则锁在语句结束时就释放了
func (r *itemRepository) LockByID(ctx context.Context, id uint) (*catalog.Item, error) {
	var model ItemModel
	err := getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Take(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrItemNotFound
		}
		return nil, wrapDBError(err, "锁定物品失败")
	}
	return toItemEntity(&model, ""), nil
}

// RefreshTotalQuantity 按在库单件数重算total_quantity
// 调用方已持有物品行锁,COUNT与UPDATE之间不会有并发写入
func (r *itemRepository) RefreshTotalQuantity(ctx context.Context, id uint) (int, error) {
	db := getDB(ctx, r.db)

	var total int64
	if err := db.Model(&UnitModel{}).Where("item_id = ?", id).Count(&total).Error; err != nil {
		return 0, wrapDBError(err, "统计单件数失败")
	}

	result := db.Model(&ItemModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_quantity": total,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return 0, wrapDBError(result.Error, "更新物品总数失败")
	}
	if result.RowsAffected == 0 {
		return 0, catalog.ErrItemNotFound
	}
	return int(total), nil
}

// List 分页查询物品,最新创建在前
func (r *itemRepository) List(ctx context.Context, params catalog.ListParams) ([]*catalog.Item, int64, error) {
	params = params.Normalize()

	query := getDB(ctx, r.db).Model(&ItemModel{})
	if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("items.name LIKE ? OR items.barcode LIKE ?", like, like)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, wrapDBError(err, "查询物品总数失败")
	}

	var rows []itemRow
	err := query.
		Select(itemColumns).
		Joins("LEFT JOIN categories ON categories.id = items.category_id").
		Order("items.id DESC").
		Limit(params.PageSize).
		Offset(params.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, wrapDBError(err, "查询物品列表失败")
	}

	items := make([]*catalog.Item, len(rows))
	for i := range rows {
		items[i] = toItemEntity(&rows[i].ItemModel, rows[i].CategoryName)
	}
	return items, total, nil
}

// locationRepository 库位仓储实现(MySQL)
type locationRepository struct {
	db *gorm.DB
}

// NewLocationRepository 创建库位仓储
func NewLocationRepository(db *gorm.DB) catalog.LocationRepository {
	return &locationRepository{db: db}
}

// locationRow 库位 + 在库单件数
type locationRow struct {
	LocationModel `gorm:"embedded"`
	TotalItems    int
}

const locationColumns = "locations.*, " +
	"(SELECT COUNT(*) FROM stock_units WHERE stock_units.location_id = locations.id) AS total_items"

func (r *locationRepository) Create(ctx context.Context, location *catalog.Location) error {
	model := &LocationModel{
		Barcode:     location.Barcode,
		Name:        location.Name,
		Description: location.Description,
	}
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return catalog.ErrDuplicateBarcode
		}
		return wrapDBError(err, "创建库位失败")
	}

	location.ID = model.ID
	location.CreatedAt = model.CreatedAt
	location.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *locationRepository) FindByID(ctx context.Context, id uint) (*catalog.Location, error) {
	return r.findOne(ctx, "locations.id = ?", id)
}

func (r *locationRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Location, error) {
	return r.findOne(ctx, "locations.barcode = ?", barcode)
}

func (r *locationRepository) findOne(ctx context.Context, cond string, arg interface{}) (*catalog.Location, error) {
	var row locationRow
	err := getDB(ctx, r.db).
		Table("locations").
		Select(locationColumns).
		Where(cond, arg).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrLocationNotFound
		}
		return nil, wrapDBError(err, "查询库位失败")
	}
	return toLocationEntity(&row), nil
}

func (r *locationRepository) List(ctx context.Context, params catalog.ListParams) ([]*catalog.Location, int64, error) {
	params = params.Normalize()

	query := getDB(ctx, r.db).Model(&LocationModel{})
	if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("locations.name LIKE ? OR locations.barcode LIKE ?", like, like)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, wrapDBError(err, "查询库位总数失败")
	}

	var rows []locationRow
	err := query.
		Select(locationColumns).
		Order("locations.id DESC").
		Limit(params.PageSize).
		Offset(params.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, wrapDBError(err, "查询库位列表失败")
	}

	locations := make([]*catalog.Location, len(rows))
	for i := range rows {
		locations[i] = toLocationEntity(&rows[i])
	}
	return locations, total, nil
}

// categoryRepository 分类仓储实现(MySQL)
type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *gorm.DB) catalog.CategoryRepository {
	return &categoryRepository{db: db}
}

// FindOrCreate 按名称查找或创建
// 并发创建同名分类时唯一索引冲突,重新查询一次即可
func (r *categoryRepository) FindOrCreate(ctx context.Context, name string) (*catalog.Category, error) {
	db := getDB(ctx, r.db)

	var model CategoryModel
	err := db.Where(CategoryModel{Name: name}).FirstOrCreate(&model).Error
	if err != nil && isDuplicateError(err) {
		err = db.Where("name = ?", name).Take(&model).Error
	}
	if err != nil {
		return nil, wrapDBError(err, "查询分类失败")
	}
	return &catalog.Category{ID: model.ID, Name: model.Name, CreatedAt: model.CreatedAt}, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toItemEntity(model *ItemModel, categoryName string) *catalog.Item {
	return &catalog.Item{
		ID:            model.ID,
		Barcode:       model.Barcode,
		Name:          model.Name,
		Description:   model.Description,
		CategoryID:    model.CategoryID,
		CategoryName:  categoryName,
		TotalQuantity: model.TotalQuantity,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func toLocationEntity(row *locationRow) *catalog.Location {
	return &catalog.Location{
		ID:          row.ID,
		Barcode:     row.Barcode,
		Name:        row.Name,
		Description: row.Description,
		TotalItems:  row.TotalItems,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
