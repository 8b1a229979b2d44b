package domain

import "time"

// OwnerArea - суммарная площадь ферм одного владельца
type OwnerArea struct {
	Owner  string  `json:"owner"`
	AreaHa float64 `json:"area_ha"`
	Farms  int     `json:"farms"`
}

// OwnerStats - рейтинг владельцев по площади для дашборда
type OwnerStats struct {
	Top         []OwnerArea `json:"top"`
	Others      OwnerArea   `json:"others"`
	OthersCount int         `json:"others_count"`
	TotalHa     float64     `json:"total_ha"`
	FarmCount   int         `json:"farm_count"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
