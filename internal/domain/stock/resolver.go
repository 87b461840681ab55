package stock

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/xiebiao/stocktrack/internal/domain/catalog"
	"github.com/xiebiao/stocktrack/pkg/logger"
	"github.com/xiebiao/stocktrack/pkg/metrics"
)

// 解析命中的步骤
const (
	StepCache   = "cache"
	StepItem    = "item"
	StepPool    = "pool"
	StepPattern = "pattern"
)

// Resolution 扫码解析结果
type Resolution struct {
	Item        *catalog.Item
	PoolBarcode *PoolBarcode // 命中条码池(或刚登记)时非nil
	Step        string
	// Materialized 本次解析是否新登记了条码
	Materialized bool
}

// Resolver 扫码串 → 物品
//
// 按顺序匹配,命中即停:
//  1. 物品外部条码
//  2. 条码池中已有的条码
//  3. 形如<前缀>-<5位数字>且前缀是某物品条码:登记这个条码(可用状态)并解析到该物品
//
// 第3步会写库,所以入口命名为ResolveAndRegister,不要当作纯查询使用。
type Resolver struct {
	items    catalog.ItemRepository
	barcodes PoolRepository
	pool     *Pool
	cache    ResolveCache
	tx       Transactor
	retries  int
}

// NewResolver 创建解析器,cache可以为nil
func NewResolver(items catalog.ItemRepository, barcodes PoolRepository, pool *Pool, cache ResolveCache, tx Transactor, opts Options) *Resolver {
	opts = opts.withDefaults()
	return &Resolver{
		items:    items,
		barcodes: barcodes,
		pool:     pool,
		cache:    cache,
		tx:       tx,
		retries:  opts.TransactionRetries,
	}
}

// ResolveAndRegister 解析扫码串,必要时登记条码
func (r *Resolver) ResolveAndRegister(ctx context.Context, scanned string) (*Resolution, error) {
	scanned = strings.TrimSpace(scanned)
	if scanned == "" {
		return nil, ErrEmptyBarcode
	}

	res, err := r.resolve(ctx, scanned)
	step := "unresolved"
	if res != nil {
		step = res.Step
	}
	if err == nil || errors.Is(err, ErrUnresolved) {
		metrics.IncCounterVec(metrics.BarcodeResolutionsTotal, map[string]string{"step": step})
	}
	return res, err
}

func (r *Resolver) resolve(ctx context.Context, scanned string) (*Resolution, error) {
	// 0. 缓存(只缓存第1、2步的结果)
	if res := r.fromCache(ctx, scanned); res != nil {
		return res, nil
	}

	// 1. 物品条码
	item, err := r.items.FindByBarcode(ctx, scanned)
	if err == nil {
		r.remember(ctx, scanned, item.ID)
		return &Resolution{Item: item, Step: StepItem}, nil
	}
	if !errors.Is(err, catalog.ErrItemNotFound) {
		return nil, err
	}

	// 2. 条码池
	pb, err := r.barcodes.FindByBarcode(ctx, scanned)
	if err == nil {
		item, err := r.items.FindByID(ctx, pb.ItemID)
		if err != nil {
			return nil, err
		}
		r.remember(ctx, scanned, item.ID)
		return &Resolution{Item: item, PoolBarcode: pb, Step: StepPool}, nil
	}
	if !errors.Is(err, ErrBarcodeNotFound) {
		return nil, err
	}

	// 3. 生成条码形状
	prefix, seq, ok := MatchGenerated(scanned)
	if !ok {
		return nil, ErrUnresolved
	}
	item, err = r.items.FindByBarcode(ctx, prefix)
	if errors.Is(err, catalog.ErrItemNotFound) {
		return nil, ErrUnresolved
	}
	if err != nil {
		return nil, err
	}

	res := &Resolution{Item: item, Step: StepPattern}
	err = runInTx(ctx, r.tx, r.retries, "resolve_barcode", func(ctx context.Context) error {
		locked, err := r.items.LockByID(ctx, item.ID)
		if err != nil {
			return err
		}
		pb, created, err := r.pool.materializeScanned(ctx, locked, scanned, seq)
		if err != nil {
			return err
		}
		res.PoolBarcode = pb
		res.Materialized = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !res.Materialized && res.PoolBarcode == nil {
		logger.FromContext(ctx).Info("scanned barcode sequence held by legacy barcode, not registered",
			zap.String("scanned", scanned), zap.Uint("item_id", item.ID))
	}
	return res, nil
}

func (r *Resolver) fromCache(ctx context.Context, scanned string) *Resolution {
	if r.cache == nil {
		return nil
	}
	itemID, ok, err := r.cache.Get(ctx, scanned)
	if err != nil {
		logger.FromContext(ctx).Warn("resolve cache read failed", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	item, err := r.items.FindByID(ctx, itemID)
	if err != nil {
		return nil
	}
	res := &Resolution{Item: item, Step: StepCache}
	if scanned != item.Barcode {
		if pb, err := r.barcodes.FindByBarcode(ctx, scanned); err == nil {
			res.PoolBarcode = pb
		}
	}
	return res
}

func (r *Resolver) remember(ctx context.Context, scanned string, itemID uint) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, scanned, itemID); err != nil {
		logger.FromContext(ctx).Warn("resolve cache write failed", zap.Error(err))
	}
}

func reportMaterializeFailure(ctx context.Context, barcode string, err error) {
	logger.FromContext(ctx).Warn("legacy barcode registration failed",
		zap.String("barcode", barcode), zap.Error(err))
}
