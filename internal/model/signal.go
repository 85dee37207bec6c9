package model

// TradeInstance is one profitable buy→sell occurrence of a pattern.
type TradeInstance struct {
	BuyIndex   int
	SellIndex  int
	BuyTimeMs  int64
	SellTimeMs int64
	BuyPrice   float64
	SellPrice  float64
	Profit     float64
}

// Pattern aggregates every profitable instance of a (buy, sell) bucket pair.
type Pattern struct {
	BuyKey            DayHourKey
	SellKey           DayHourKey
	OccurrenceCount   int
	AverageProfit     float64
	AverageROIPercent float64
	Instances         []TradeInstance
}

// Recent returns at most the last n instances, oldest first.
func (p Pattern) Recent(n int) []TradeInstance {
	if n <= 0 || len(p.Instances) <= n {
		return p.Instances
	}
	return p.Instances[len(p.Instances)-n:]
}

// RecentTrades is the number of instances shown alongside a pattern.
const RecentTrades = 3
