package entity

import "time"

type StatsRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type Point struct {
	TS time.Time `json:"ts"`
	V  int64     `json:"v"`
}

// PromotionStats are the engagement aggregates of one promotion over a range.
type PromotionStats struct {
	TotalViews       int64   `json:"totalViews"`
	UniqueViews      int64   `json:"uniqueViews"`
	TotalClicks      int64   `json:"totalClicks"`
	UniqueClicks     int64   `json:"uniqueClicks"`
	TotalCloses      int64   `json:"totalCloses"`
	ClickThroughRate float64 `json:"clickThroughRate"`
}

// WithCTR fills ClickThroughRate from the totals.
func (s PromotionStats) WithCTR() PromotionStats {
	if s.TotalViews > 0 {
		s.ClickThroughRate = float64(s.TotalClicks) / float64(s.TotalViews)
	} else {
		s.ClickThroughRate = 0
	}
	return s
}

type StatsResponse struct {
	Totals PromotionStats `json:"totals"`
	Views  []Point        `json:"views"`
	Clicks []Point        `json:"clicks"`
}
