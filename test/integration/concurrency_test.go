package integration

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentAdd 并发入库
//
// 教学说明：
// 多台扫码枪同时对同一物品入库时，序号分配与条码池都在行锁保护下完成
// 验证点：
// 1. 每次入库都成功（死锁/锁冲突由服务端重试吸收）
// 2. 分配到的单件条码两两不同
// 3. 物品总数等于成功次数
func TestConcurrentAdd(t *testing.T) {
	requireServer(t)

	item := CreateTestItem(t, "Chicken thighs")
	location := CreateTestLocation(t, "Chest freezer")

	const workers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		barcodes = make(map[string]bool)
		failures []string
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := PostJSON(t, BaseURL+"/inventory/add-item", map[string]interface{}{
				"location_barcode": location.Barcode,
				"item_barcode":     item.Barcode,
			}, Token)

			mu.Lock()
			defer mu.Unlock()
			if resp.Code != 0 {
				failures = append(failures, resp.Message)
				return
			}
			var added AddData
			if err := json.Unmarshal(resp.Data, &added); err != nil {
				failures = append(failures, err.Error())
				return
			}
			barcodes[added.UnitBarcode] = true
		}()
	}
	wg.Wait()

	require.Empty(t, failures)
	assert.Len(t, barcodes, workers, "单件条码不应重复")

	var detail struct {
		TotalQuantity int `json:"total_quantity"`
	}
	GetJSON(t, BaseURL+"/items/"+item.Barcode).Decode(t, &detail)
	assert.Equal(t, workers, detail.TotalQuantity)
}
