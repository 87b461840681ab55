package catalog

import (
	apperrors "github.com/xiebiao/stocktrack/pkg/errors"
)

// 目录领域错误定义
var (
	// ErrItemNotFound 物品不存在
	ErrItemNotFound = apperrors.New(apperrors.ErrCodeItemNotFound, "物品不存在")

	// ErrLocationNotFound 库位不存在
	ErrLocationNotFound = apperrors.New(apperrors.ErrCodeLocationNotFound, "库位不存在")

	// ErrDuplicateBarcode 条码已被占用(唯一索引冲突)
	ErrDuplicateBarcode = apperrors.New(apperrors.ErrCodeDuplicateEntry, "条码已存在")

	// ErrBarcodeExhausted 多次重试仍生成重复条码
	ErrBarcodeExhausted = apperrors.New(apperrors.ErrCodeInternal, "条码生成失败,请重试")

	// ErrInvalidName 名称为空或过长
	ErrInvalidName = apperrors.New(apperrors.ErrCodeValidationFailed, "名称不能为空且不超过255个字符")
)
