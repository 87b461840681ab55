package catalog

import (
	"context"
	"errors"
	"strings"
)

const maxNameLength = 255

// Service 目录领域服务
type Service interface {
	// CreateItem 创建物品
	// 业务规则:
	// - 名称不能为空
	// - 条码为ITM+8位随机码,冲突时重新生成(最多10次)
	// - 分类按名称查找或创建
	CreateItem(ctx context.Context, name, description, categoryName string) (*Item, error)

	// CreateLocation 创建库位,条码为LOC+8位随机码
	CreateLocation(ctx context.Context, name, description string) (*Location, error)

	GetItemByBarcode(ctx context.Context, barcode string) (*Item, error)
	GetLocationByBarcode(ctx context.Context, barcode string) (*Location, error)
	GetLocationByID(ctx context.Context, id uint) (*Location, error)

	ListItems(ctx context.Context, params ListParams) ([]*Item, int64, error)
	ListLocations(ctx context.Context, params ListParams) ([]*Location, int64, error)
}

type service struct {
	items      ItemRepository
	locations  LocationRepository
	categories CategoryRepository

	itemBarcode     func() string
	locationBarcode func() string
}

// NewService 创建目录领域服务
func NewService(items ItemRepository, locations LocationRepository, categories CategoryRepository) Service {
	return &service{
		items:           items,
		locations:       locations,
		categories:      categories,
		itemBarcode:     GenerateItemBarcode,
		locationBarcode: GenerateLocationBarcode,
	}
}

func (s *service) CreateItem(ctx context.Context, name, description, categoryName string) (*Item, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	var categoryID *uint
	if categoryName = strings.TrimSpace(categoryName); categoryName != "" {
		category, err := s.categories.FindOrCreate(ctx, categoryName)
		if err != nil {
			return nil, err
		}
		categoryID = &category.ID
	}

	for attempt := 0; attempt < maxBarcodeAttempts; attempt++ {
		barcode := s.itemBarcode()

		// 1. 先查一次,绝大多数冲突在这里被发现
		if _, err := s.items.FindByBarcode(ctx, barcode); err == nil {
			continue
		} else if !errors.Is(err, ErrItemNotFound) {
			return nil, err
		}

		// 2. 并发下仍可能撞上唯一索引,换一个条码重试
		item := NewItem(barcode, name, description, categoryID)
		err := s.items.Create(ctx, item)
		if errors.Is(err, ErrDuplicateBarcode) {
			continue
		}
		if err != nil {
			return nil, err
		}
		item.CategoryName = categoryName
		return item, nil
	}
	return nil, ErrBarcodeExhausted
}

func (s *service) CreateLocation(ctx context.Context, name, description string) (*Location, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxBarcodeAttempts; attempt++ {
		barcode := s.locationBarcode()

		if _, err := s.locations.FindByBarcode(ctx, barcode); err == nil {
			continue
		} else if !errors.Is(err, ErrLocationNotFound) {
			return nil, err
		}

		location := NewLocation(barcode, name, description)
		err := s.locations.Create(ctx, location)
		if errors.Is(err, ErrDuplicateBarcode) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return location, nil
	}
	return nil, ErrBarcodeExhausted
}

func (s *service) GetItemByBarcode(ctx context.Context, barcode string) (*Item, error) {
	return s.items.FindByBarcode(ctx, strings.TrimSpace(barcode))
}

func (s *service) GetLocationByBarcode(ctx context.Context, barcode string) (*Location, error) {
	return s.locations.FindByBarcode(ctx, strings.TrimSpace(barcode))
}

func (s *service) GetLocationByID(ctx context.Context, id uint) (*Location, error) {
	return s.locations.FindByID(ctx, id)
}

func (s *service) ListItems(ctx context.Context, params ListParams) ([]*Item, int64, error) {
	return s.items.List(ctx, params.Normalize())
}

func (s *service) ListLocations(ctx context.Context, params ListParams) ([]*Location, int64, error) {
	return s.locations.List(ctx, params.Normalize())
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxNameLength {
		return ErrInvalidName
	}
	return nil
}
