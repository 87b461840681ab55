package stock

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// generatedPattern 生成条码的形状:<任意前缀>-<5位数字>
var generatedPattern = regexp.MustCompile(`^(.+)-(\d{5})$`)

// FormatBarcode 生成条码,如ITM4K7Q2ZP1-00007
func FormatBarcode(itemBarcode string, sequence int64) string {
	return fmt.Sprintf("%s-%05d", itemBarcode, sequence)
}

// MatchGenerated 扫码串是否符合生成条码的形状,符合则返回前缀和序号
func MatchGenerated(scanned string) (prefix string, sequence int64, ok bool) {
	m := generatedPattern.FindStringSubmatch(scanned)
	if m == nil {
		return "", 0, false
	}
	seq, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return m[1], seq, true
}

// SequenceFor 由条码推导单件序号
// 原条码固定为1;生成条码取最后一个'-'之后的数字(序号超过99999时位数会变长)
func SequenceFor(itemBarcode, barcode string) (int, error) {
	if barcode == itemBarcode {
		return 1, nil
	}
	idx := strings.LastIndex(barcode, "-")
	if idx < 0 || idx == len(barcode)-1 {
		return 0, fmt.Errorf("条码%q没有序号后缀", barcode)
	}
	seq, err := strconv.Atoi(barcode[idx+1:])
	if err != nil || seq <= 0 {
		return 0, fmt.Errorf("条码%q的序号后缀无效", barcode)
	}
	return seq, nil
}
