package preprocess

import "github.com/albapepper/scoracle-rankings/internal/record"

// Dedupe collapses rows sharing (player_id, season_id, competition_id,
// team_name) into the one with the most minutes. Legacy and current exports
// overlap, and the fuller row wins. On equal minutes the first row seen is
// kept. Groups appear in the order their first row appeared.
func Dedupe(records []record.PlayerSeason) []record.PlayerSeason {
	best := make(map[record.Key]int, len(records))
	order := make([]record.Key, 0, len(records))

	for i, r := range records {
		k := r.Key()
		j, seen := best[k]
		if !seen {
			best[k] = i
			order = append(order, k)
			continue
		}
		if r.Minutes > records[j].Minutes {
			best[k] = i
		}
	}

	out := make([]record.PlayerSeason, 0, len(order))
	for _, k := range order {
		out = append(out, records[best[k]].Clone())
	}
	return out
}
