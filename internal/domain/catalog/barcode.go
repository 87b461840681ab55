package catalog

import (
	"math/rand/v2"
	"strings"
)

const (
	ItemBarcodePrefix     = "ITM"
	LocationBarcodePrefix = "LOC"

	barcodeRandomLength = 8
	barcodeAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxBarcodeAttempts 条码冲突时的最大生成次数
	maxBarcodeAttempts = 10
)

// GenerateItemBarcode 生成物品条码
// 格式:ITM + 8位大写字母数字,如ITM4K7Q2ZP1
func GenerateItemBarcode() string {
	return ItemBarcodePrefix + randomCode(barcodeRandomLength)
}

// GenerateLocationBarcode 生成库位条码,如LOC0A9B8C7D
func GenerateLocationBarcode() string {
	return LocationBarcodePrefix + randomCode(barcodeRandomLength)
}

// randomCode 只要求唯一,不要求不可预测(冲突由调用方重试)
func randomCode(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(barcodeAlphabet[rand.IntN(len(barcodeAlphabet))])
	}
	return b.String()
}
