// Package stats contains statistics calculations and reporting.
package stats

import "sort"

// KeyTime pairs a key label with its mean delay.
type KeyTime struct {
	Label string
	Mean  float64
}

// SlowestKeys returns the n keys with the highest mean delay.
func SlowestKeys(means map[string]float64, n int) []KeyTime {
	if n <= 0 || len(means) == 0 {
		return nil
	}
	items := sortedKeyTimes(means)
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

func sortedKeyTimes(means map[string]float64) []KeyTime {
	items := make([]KeyTime, 0, len(means))
	for label, mean := range means {
		items = append(items, KeyTime{Label: label, Mean: mean})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Mean == items[j].Mean {
			return items[i].Label < items[j].Label
		}
		return items[i].Mean > items[j].Mean
	})
	return items
}
