package config

import "fmt"

// 行业预设名称
const (
	PresetFrozenFood = "frozen_food"
	PresetWarehouse  = "warehouse"
	PresetRetail     = "retail"
	PresetLaboratory = "laboratory"
)

// 库龄等级
const (
	AgingFresh   = "fresh"
	AgingWarning = "warning"
	AgingDanger  = "danger"
)

// PresentationConfig 展示层配置（yaml中的presentation段）
// 先选预设，再用非空字段逐项覆盖
type PresentationConfig struct {
	Preset           string `mapstructure:"preset"`
	AppTitle         string `mapstructure:"app_title"`
	LocationSingular string `mapstructure:"location_singular"`
	LocationPlural   string `mapstructure:"location_plural"`
	ItemContext      string `mapstructure:"item_context"`
	AgingEnabled     *bool  `mapstructure:"aging_enabled"`
	AgingWarningDays int    `mapstructure:"aging_warning_days"`
	AgingDangerDays  int    `mapstructure:"aging_danger_days"`
	AgingFreshLabel  string `mapstructure:"aging_fresh_label"`
	AgingWarnLabel   string `mapstructure:"aging_warning_label"`
	AgingDangerLabel string `mapstructure:"aging_danger_label"`
}

// Presentation 生效的展示配置（只读，进程启动时确定）
// 只交给HTTP DTO构造和库龄报表使用，库存核心操作不读取
type Presentation struct {
	Preset           string `json:"preset"`
	AppTitle         string `json:"app_title"`
	LocationSingular string `json:"location_singular"`
	LocationPlural   string `json:"location_plural"`
	ItemContext      string `json:"item_context"`
	AgingEnabled     bool   `json:"aging_enabled"`
	AgingWarningDays int    `json:"aging_warning_days"`
	AgingDangerDays  int    `json:"aging_danger_days"`
	AgingFreshLabel  string `json:"aging_fresh_label"`
	AgingWarnLabel   string `json:"aging_warning_label"`
	AgingDangerLabel string `json:"aging_danger_label"`
}

var presets = map[string]Presentation{
	PresetFrozenFood: {
		Preset:           PresetFrozenFood,
		AppTitle:         "Frozen Inventory System",
		LocationSingular: "Fridge",
		LocationPlural:   "Fridges",
		ItemContext:      "frozen",
		AgingEnabled:     true,
		AgingWarningDays: 120,
		AgingDangerDays:  180,
		AgingFreshLabel:  "fresh",
		AgingWarnLabel:   "getting old",
		AgingDangerLabel: "very old",
	},
	PresetWarehouse: {
		Preset:           PresetWarehouse,
		AppTitle:         "Warehouse Management System",
		LocationSingular: "Warehouse",
		LocationPlural:   "Warehouses",
		ItemContext:      "warehouse",
		AgingEnabled:     false,
		AgingWarningDays: 365,
		AgingDangerDays:  730,
		AgingFreshLabel:  "recent",
		AgingWarnLabel:   "old stock",
		AgingDangerLabel: "very old stock",
	},
	PresetRetail: {
		Preset:           PresetRetail,
		AppTitle:         "Retail Inventory System",
		LocationSingular: "Store",
		LocationPlural:   "Stores",
		ItemContext:      "retail",
		AgingEnabled:     false,
		AgingWarningDays: 180,
		AgingDangerDays:  365,
		AgingFreshLabel:  "new stock",
		AgingWarnLabel:   "aging inventory",
		AgingDangerLabel: "stale inventory",
	},
	PresetLaboratory: {
		Preset:           PresetLaboratory,
		AppTitle:         "Laboratory Inventory System",
		LocationSingular: "Lab",
		LocationPlural:   "Labs",
		ItemContext:      "laboratory",
		AgingEnabled:     true,
		AgingWarningDays: 30,
		AgingDangerDays:  90,
		AgingFreshLabel:  "fresh",
		AgingWarnLabel:   "expiring soon",
		AgingDangerLabel: "expired",
	},
}

// PresetNames 可选预设
func PresetNames() []string {
	return []string{PresetFrozenFood, PresetWarehouse, PresetRetail, PresetLaboratory}
}

// Resolve 预设 + 覆盖项 → 生效配置
func (p PresentationConfig) Resolve() (Presentation, error) {
	name := p.Preset
	if name == "" {
		name = PresetFrozenFood
	}
	out, ok := presets[name]
	if !ok {
		return Presentation{}, fmt.Errorf("未知的展示预设: %s", name)
	}

	if p.AppTitle != "" {
		out.AppTitle = p.AppTitle
	}
	if p.LocationSingular != "" {
		out.LocationSingular = p.LocationSingular
	}
	if p.LocationPlural != "" {
		out.LocationPlural = p.LocationPlural
	}
	if p.ItemContext != "" {
		out.ItemContext = p.ItemContext
	}
	if p.AgingEnabled != nil {
		out.AgingEnabled = *p.AgingEnabled
	}
	if p.AgingWarningDays > 0 {
		out.AgingWarningDays = p.AgingWarningDays
	}
	if p.AgingDangerDays > 0 {
		out.AgingDangerDays = p.AgingDangerDays
	}
	if p.AgingFreshLabel != "" {
		out.AgingFreshLabel = p.AgingFreshLabel
	}
	if p.AgingWarnLabel != "" {
		out.AgingWarnLabel = p.AgingWarnLabel
	}
	if p.AgingDangerLabel != "" {
		out.AgingDangerLabel = p.AgingDangerLabel
	}

	if out.AgingDangerDays < out.AgingWarningDays {
		return Presentation{}, fmt.Errorf("aging_danger_days(%d)不能小于aging_warning_days(%d)",
			out.AgingDangerDays, out.AgingWarningDays)
	}
	return out, nil
}

// NewPresentation 供wire注入
func NewPresentation(cfg *Config) (Presentation, error) {
	return cfg.Presentation.Resolve()
}

// AgingLevel 根据在库天数判定库龄等级
// 天数不超过预警阈值为fresh，不超过危险阈值为warning，否则danger；关闭库龄时一律fresh
func (p Presentation) AgingLevel(storageDays float64) string {
	if !p.AgingEnabled {
		return AgingFresh
	}
	switch {
	case storageDays <= float64(p.AgingWarningDays):
		return AgingFresh
	case storageDays <= float64(p.AgingDangerDays):
		return AgingWarning
	default:
		return AgingDanger
	}
}

// AgingLabel 库龄等级对应的展示文案
func (p Presentation) AgingLabel(level string) string {
	switch level {
	case AgingWarning:
		return p.AgingWarnLabel
	case AgingDanger:
		return p.AgingDangerLabel
	default:
		return p.AgingFreshLabel
	}
}
