package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/xiebiao/stocktrack/internal/domain/catalog"
)

// ItemRepository 物品仓储(内存实现)
type ItemRepository struct {
	store *Store
}

// NewItemRepository 创建物品仓储
func NewItemRepository(store *Store) *ItemRepository {
	return &ItemRepository{store: store}
}

func (r *ItemRepository) Create(ctx context.Context, item *catalog.Item) error {
	return r.store.do(ctx, func(t *tables) error {
		for _, existing := range t.items {
			if existing.Barcode == item.Barcode {
				return catalog.ErrDuplicateBarcode
			}
		}
		item.ID = t.nextID()
		stored := *item
		stored.CategoryName = ""
		t.items[item.ID] = stored
		return nil
	})
}

func (r *ItemRepository) FindByID(ctx context.Context, id uint) (*catalog.Item, error) {
	var out *catalog.Item
	err := r.store.do(ctx, func(t *tables) error {
		item, ok := t.items[id]
		if !ok {
			return catalog.ErrItemNotFound
		}
		out = t.itemView(item)
		return nil
	})
	return out, err
}

func (r *ItemRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Item, error) {
	var out *catalog.Item
	err := r.store.do(ctx, func(t *tables) error {
		for _, item := range t.items {
			if item.Barcode == barcode {
				out = t.itemView(item)
				return nil
			}
		}
		return catalog.ErrItemNotFound
	})
	return out, err
}

// LockByID 事务内已独占整个Store,等价于FindByID
func (r *ItemRepository) LockByID(ctx context.Context, id uint) (*catalog.Item, error) {
	return r.FindByID(ctx, id)
}

func (r *ItemRepository) RefreshTotalQuantity(ctx context.Context, id uint) (int, error) {
	var total int
	err := r.store.do(ctx, func(t *tables) error {
		item, ok := t.items[id]
		if !ok {
			return catalog.ErrItemNotFound
		}
		for _, u := range t.units {
			if u.ItemID == id {
				total++
			}
		}
		item.TotalQuantity = total
		item.UpdatedAt = time.Now()
		t.items[id] = item
		return nil
	})
	return total, err
}

func (r *ItemRepository) List(ctx context.Context, params catalog.ListParams) ([]*catalog.Item, int64, error) {
	params = params.Normalize()
	keyword := strings.ToLower(strings.TrimSpace(params.Keyword))

	var out []*catalog.Item
	var total int64
	err := r.store.do(ctx, func(t *tables) error {
		matched := make([]catalog.Item, 0, len(t.items))
		for _, item := range t.items {
			if keyword == "" || containsFold(item.Name, keyword) || containsFold(item.Barcode, keyword) {
				matched = append(matched, item)
			}
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

		total = int64(len(matched))
		for _, item := range page(matched, params.Offset(), params.PageSize) {
			out = append(out, t.itemView(item))
		}
		return nil
	})
	return out, total, err
}

func (t *tables) itemView(item catalog.Item) *catalog.Item {
	out := item
	if item.CategoryID != nil {
		if c, ok := t.categories[*item.CategoryID]; ok {
			out.CategoryName = c.Name
		}
	}
	return &out
}

// LocationRepository 库位仓储(内存实现)
type LocationRepository struct {
	store *Store
}

// NewLocationRepository 创建库位仓储
func NewLocationRepository(store *Store) *LocationRepository {
	return &LocationRepository{store: store}
}

func (r *LocationRepository) Create(ctx context.Context, location *catalog.Location) error {
	return r.store.do(ctx, func(t *tables) error {
		for _, existing := range t.locations {
			if existing.Barcode == location.Barcode {
				return catalog.ErrDuplicateBarcode
			}
		}
		location.ID = t.nextID()
		t.locations[location.ID] = *location
		return nil
	})
}

func (r *LocationRepository) FindByID(ctx context.Context, id uint) (*catalog.Location, error) {
	var out *catalog.Location
	err := r.store.do(ctx, func(t *tables) error {
		loc, ok := t.locations[id]
		if !ok {
			return catalog.ErrLocationNotFound
		}
		out = t.locationView(loc)
		return nil
	})
	return out, err
}

func (r *LocationRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Location, error) {
	var out *catalog.Location
	err := r.store.do(ctx, func(t *tables) error {
		for _, loc := range t.locations {
			if loc.Barcode == barcode {
				out = t.locationView(loc)
				return nil
			}
		}
		return catalog.ErrLocationNotFound
	})
	return out, err
}

func (r *LocationRepository) List(ctx context.Context, params catalog.ListParams) ([]*catalog.Location, int64, error) {
	params = params.Normalize()
	keyword := strings.ToLower(strings.TrimSpace(params.Keyword))

	var out []*catalog.Location
	var total int64
	err := r.store.do(ctx, func(t *tables) error {
		matched := make([]catalog.Location, 0, len(t.locations))
		for _, loc := range t.locations {
			if keyword == "" || containsFold(loc.Name, keyword) || containsFold(loc.Barcode, keyword) {
				matched = append(matched, loc)
			}
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

		total = int64(len(matched))
		for _, loc := range page(matched, params.Offset(), params.PageSize) {
			out = append(out, t.locationView(loc))
		}
		return nil
	})
	return out, total, err
}

func (t *tables) locationView(loc catalog.Location) *catalog.Location {
	out := loc
	out.TotalItems = 0
	for _, u := range t.units {
		if u.LocationID == loc.ID {
			out.TotalItems++
		}
	}
	return &out
}

// CategoryRepository 分类仓储(内存实现)
type CategoryRepository struct {
	store *Store
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(store *Store) *CategoryRepository {
	return &CategoryRepository{store: store}
}

func (r *CategoryRepository) FindOrCreate(ctx context.Context, name string) (*catalog.Category, error) {
	var out *catalog.Category
	err := r.store.do(ctx, func(t *tables) error {
		for _, c := range t.categories {
			if c.Name == name {
				cp := c
				out = &cp
				return nil
			}
		}
		c := catalog.Category{ID: t.nextID(), Name: name, CreatedAt: time.Now()}
		t.categories[c.ID] = c
		out = &c
		return nil
	})
	return out, err
}

func containsFold(s, lowerKeyword string) bool {
	return strings.Contains(strings.ToLower(s), lowerKeyword)
}

func page[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}
