package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 教学说明：测试辅助工具
// 集成测试直接请求运行中的服务(make run 或 docker-compose up)
// STOCKTRACK_BASE_URL 覆盖服务地址，STOCKTRACK_DEVICE_TOKEN 提供写接口需要的设备Token
// 服务不可达时跳过，不影响 go test ./... 的单元测试

const (
	// Timeout HTTP请求超时时间
	Timeout = 10 * time.Second
)

// BaseURL API基础URL
var BaseURL = envOr("STOCKTRACK_BASE_URL", "http://localhost:8080") + "/api/v1"

// Token 设备Token，auth.enabled=false时可以为空
var Token = os.Getenv("STOCKTRACK_DEVICE_TOKEN")

// Response 统一响应结构
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Decode 解析data字段
func (r *Response) Decode(t *testing.T, out interface{}) {
	t.Helper()
	require.Equal(t, 0, r.Code, "请求失败: %s", r.Message)
	require.NoError(t, json.Unmarshal(r.Data, out), "解析响应数据失败")
}

// ItemData 物品响应数据
type ItemData struct {
	ID            uint   `json:"id"`
	Barcode       string `json:"barcode"`
	Name          string `json:"name"`
	TotalQuantity int    `json:"total_quantity"`
}

// LocationData 库位响应数据
type LocationData struct {
	ID      uint   `json:"id"`
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
}

// AddData 入库响应数据
type AddData struct {
	UnitBarcode    string `json:"unit_barcode"`
	SequenceNumber int    `json:"sequence_number"`
	Allocation     string `json:"allocation"`
	Quantity       int    `json:"quantity"`
}

// RemoveData 出库响应数据
type RemoveData struct {
	UnitBarcode       string  `json:"unit_barcode"`
	Policy            string  `json:"policy"`
	StorageDays       float64 `json:"storage_days"`
	CompletelyRemoved bool    `json:"completely_removed"`
	RemainingQuantity int     `json:"remaining_quantity"`
}

// requireServer 服务不可达时跳过当前测试
func requireServer(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("short模式跳过集成测试")
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(envOr("STOCKTRACK_BASE_URL", "http://localhost:8080") + "/health")
	if err != nil {
		t.Skipf("服务不可达，跳过集成测试: %v", err)
	}
	_ = resp.Body.Close()
}

// PostJSON 发送POST请求并解析JSON响应
//
// 教学说明：
// - 使用require包进行断言，失败会立即停止（不继续执行）
// - 返回*Response而非error，简化调用方代码
func PostJSON(t *testing.T, url string, data interface{}, token string) *Response {
	t.Helper()
	jsonData, err := json.Marshal(data)
	require.NoError(t, err, "JSON序列化失败")

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	require.NoError(t, err, "创建HTTP请求失败")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return do(t, req)
}

// GetJSON 发送GET请求并解析JSON响应
func GetJSON(t *testing.T, url string) *Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err, "创建HTTP请求失败")
	return do(t, req)
}

func do(t *testing.T, req *http.Request) *Response {
	t.Helper()
	client := &http.Client{Timeout: Timeout}
	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败")
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")

	var result Response
	require.NoError(t, json.Unmarshal(body, &result), "解析JSON响应失败: %s", string(body))
	return &result
}

// CreateTestItem 创建物品，名称带时间戳避免重复运行时混淆
func CreateTestItem(t *testing.T, name string) ItemData {
	t.Helper()
	var item ItemData
	PostJSON(t, BaseURL+"/items", map[string]string{
		"name": fmt.Sprintf("%s %d", name, time.Now().UnixNano()),
	}, Token).Decode(t, &item)
	return item
}

// CreateTestLocation 创建库位
func CreateTestLocation(t *testing.T, name string) LocationData {
	t.Helper()
	var location LocationData
	PostJSON(t, BaseURL+"/locations", map[string]string{
		"name": fmt.Sprintf("%s %d", name, time.Now().UnixNano()),
	}, Token).Decode(t, &location)
	return location
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
