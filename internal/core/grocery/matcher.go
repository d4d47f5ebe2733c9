package grocery

import "strings"

// FindBestMatch 以雙向子字串包含關係在庫存中尋找食材
// 依列表順序取第一個符合者；無符合時返回 nil，呼叫端應視為需手動選擇
func FindBestMatch(normalizedName string, candidates []InventoryRecord) *InventoryRecord {
	query := Normalize(normalizedName)
	if query == "" {
		return nil
	}
	for i := range candidates {
		name := Normalize(candidates[i].Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, query) || strings.Contains(query, name) {
			match := candidates[i]
			return &match
		}
	}
	return nil
}

// FindByID 依 ID 取得庫存項目（簡易餐點的直接指定）
func FindByID(id string, candidates []InventoryRecord) *InventoryRecord {
	if id == "" {
		return nil
	}
	for i := range candidates {
		if candidates[i].ID == id {
			match := candidates[i]
			return &match
		}
	}
	return nil
}
