package rpc

import (
	"context"
	"encoding/json"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xiebiao/stocktrack/internal/application/inventory"
	"github.com/xiebiao/stocktrack/internal/interface/http/dto"
	apperrors "github.com/xiebiao/stocktrack/pkg/errors"
)

// Scanner inventory.v1.Scanner的实现
// 与HTTP共用同一组用例,只负责Struct与用例DTO之间的转换
type Scanner struct {
	add     *inventory.AddUnitUseCase
	remove  *inventory.RemoveUnitUseCase
	move    *inventory.MoveUnitUseCase
	resolve *inventory.ResolveBarcodeUseCase
}

// NewScanner 创建扫码服务
func NewScanner(
	add *inventory.AddUnitUseCase,
	remove *inventory.RemoveUnitUseCase,
	move *inventory.MoveUnitUseCase,
	resolve *inventory.ResolveBarcodeUseCase,
) *Scanner {
	return &Scanner{add: add, remove: remove, move: move, resolve: resolve}
}

var _ ScannerServer = (*Scanner)(nil)

// AddUnit 入库 {location_barcode, item_barcode, added_at?}
func (s *Scanner) AddUnit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	addedAt, err := optionalTime(in, "added_at")
	if err != nil {
		return nil, toStatus(err)
	}
	result, err := s.add.Execute(ctx, inventory.AddUnitRequest{
		LocationBarcode: stringField(in, "location_barcode"),
		Scanned:         stringField(in, "item_barcode"),
		AddedAt:         addedAt,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(result)
}

// RemoveUnit 出库 {location_barcode, item_barcode, policy?, target_barcode?}
func (s *Scanner) RemoveUnit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	result, err := s.remove.Execute(ctx, inventory.RemoveUnitRequest{
		LocationBarcode: stringField(in, "location_barcode"),
		Scanned:         stringField(in, "item_barcode"),
		Policy:          stringField(in, "policy"),
		TargetBarcode:   stringField(in, "target_barcode"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(dto.RemoveItemResponse(result))
}

// MoveUnit 移库 {unit_barcode, to_location_barcode}
func (s *Scanner) MoveUnit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	result, err := s.move.Execute(ctx, inventory.MoveUnitRequest{
		UnitBarcode:       stringField(in, "unit_barcode"),
		ToLocationBarcode: stringField(in, "to_location_barcode"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(dto.MoveResponse(result))
}

// Resolve 条码解析 {barcode}
func (s *Scanner) Resolve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	result, err := s.resolve.Execute(ctx, stringField(in, "barcode"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(result)
}

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

// optionalTime RFC3339时间字段,缺省或空串返回nil
func optionalTime(in *structpb.Struct, name string) (*time.Time, error) {
	raw := stringField(in, name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "参数错误: "+name+"需要RFC3339时间")
	}
	return &t, nil
}

// toStruct 用例响应按JSON tag转成Struct,字段名与HTTP响应一致
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, toStatus(apperrors.Wrap(err, "响应编码失败"))
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, toStatus(apperrors.Wrap(err, "响应编码失败"))
	}
	return out, nil
}
