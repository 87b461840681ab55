package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 教学说明：库存主流程集成测试
// 入库 → 出库(FIFO/指定单件) → 移库 → 条码解析，覆盖一次完整的扫码作业

// TestInventoryFlow 测试入库、出库、移库
func TestInventoryFlow(t *testing.T) {
	requireServer(t)

	item := CreateTestItem(t, "Frozen peas")
	fridge := CreateTestLocation(t, "Kitchen fridge")
	freezer := CreateTestLocation(t, "Chest freezer")

	// 入库三件，第一件补录为5天前
	var first AddData
	PostJSON(t, BaseURL+"/inventory/add-item", map[string]interface{}{
		"location_barcode": fridge.Barcode,
		"item_barcode":     item.Barcode,
		"added_at":         time.Now().Add(-5 * 24 * time.Hour).UTC().Format(time.RFC3339),
	}, Token).Decode(t, &first)
	assert.Equal(t, 1, first.SequenceNumber)
	assert.Equal(t, item.Barcode+"-00001", first.UnitBarcode)

	for i := 0; i < 2; i++ {
		var added AddData
		PostJSON(t, BaseURL+"/inventory/add-item", map[string]interface{}{
			"location_barcode": fridge.Barcode,
			"item_barcode":     item.Barcode,
		}, Token).Decode(t, &added)
		assert.Equal(t, i+2, added.Quantity)
	}

	t.Run("FIFO出库取最早入库的单件", func(t *testing.T) {
		var removed RemoveData
		PostJSON(t, BaseURL+"/inventory/remove-item", map[string]interface{}{
			"location_barcode": fridge.Barcode,
			"item_barcode":     item.Barcode,
			"policy":           "fifo",
		}, Token).Decode(t, &removed)
		assert.Equal(t, first.UnitBarcode, removed.UnitBarcode)
		assert.InDelta(t, 5.0, removed.StorageDays, 0.1)
		assert.Equal(t, 2, removed.RemainingQuantity)
	})

	t.Run("移库到同一库位应失败", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/inventory/move", map[string]interface{}{
			"unit_barcode":        item.Barcode + "-00002",
			"to_location_barcode": fridge.Barcode,
		}, Token)
		assert.Equal(t, 40002, resp.Code)
	})

	t.Run("移库", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/inventory/move", map[string]interface{}{
			"unit_barcode":        item.Barcode + "-00002",
			"to_location_barcode": freezer.Barcode,
		}, Token)
		require.Equal(t, 0, resp.Code, resp.Message)
	})

	t.Run("扫单件条码出库即指定该单件", func(t *testing.T) {
		var removed RemoveData
		PostJSON(t, BaseURL+"/inventory/remove-item", map[string]interface{}{
			"location_barcode": fridge.Barcode,
			"item_barcode":     item.Barcode + "-00003",
		}, Token).Decode(t, &removed)
		assert.Equal(t, item.Barcode+"-00003", removed.UnitBarcode)
		assert.True(t, removed.CompletelyRemoved)
	})

	t.Run("物品总数与各库位一致", func(t *testing.T) {
		var detail struct {
			TotalQuantity int `json:"total_quantity"`
		}
		GetJSON(t, BaseURL+"/items/"+item.Barcode).Decode(t, &detail)
		assert.Equal(t, 1, detail.TotalQuantity)
	})

	t.Run("已出库的单件条码仍可解析到物品", func(t *testing.T) {
		var resolved struct {
			Item struct {
				Barcode string `json:"barcode"`
			} `json:"item"`
		}
		GetJSON(t, BaseURL+"/barcodes/"+first.UnitBarcode+"/resolve").Decode(t, &resolved)
		assert.Equal(t, item.Barcode, resolved.Item.Barcode)
	})
}

// TestEmptyAggregate 没有库存时出库应返回404xx
func TestEmptyAggregate(t *testing.T) {
	requireServer(t)

	item := CreateTestItem(t, "Ice cream")
	location := CreateTestLocation(t, "Garage fridge")

	resp := PostJSON(t, BaseURL+"/inventory/remove-item", map[string]interface{}{
		"location_barcode": location.Barcode,
		"item_barcode":     item.Barcode,
	}, Token)
	assert.Equal(t, 40405, resp.Code)
}
