package dto

// CreateItemRequest HTTP创建物品请求
// 条码由系统生成,不接受客户端指定
type CreateItemRequest struct {
	Name        string `json:"name" binding:"required,max=200" example:"Frozen peas"`
	Description string `json:"description" binding:"max=2000" example:"1kg bag"`
	Category    string `json:"category" binding:"max=100" example:"Vegetables"`
}

// CreateLocationRequest HTTP创建库位请求
type CreateLocationRequest struct {
	Name        string `json:"name" binding:"required,max=200" example:"Garage fridge"`
	Description string `json:"description" binding:"max=2000" example:"Bottom shelf"`
}

// EnsurePoolRequest HTTP预热条码池请求
// target缺省时使用inventory.default_pool_size
type EnsurePoolRequest struct {
	Target *int `json:"target" binding:"omitempty,min=1,max=10000" example:"50"`
}
