package leaderboard

import "strconv"

// Ranked is an Entry as sent to clients and stored in snapshots.
type Ranked struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Wins        int    `json:"wins"`
	Games       int    `json:"games"`
	TotalScore  int    `json:"totalScore"`
}

func toRanked(entries []Entry) []Ranked {
	result := make([]Ranked, len(entries))
	for i, e := range entries {
		result[i] = Ranked{
			Rank:        i + 1,
			PlayerID:    e.PlayerID,
			DisplayName: e.DisplayName,
			Wins:        e.Wins,
			Games:       e.Games,
			TotalScore:  e.TotalScore,
		}
	}
	return result
}

func isValidWindow(window string) bool {
	switch window {
	case WindowDaily, WindowWeekly, WindowMonthly, WindowAllTime:
		return true
	default:
		return false
	}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func parseInt(val string) int {
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return i
}
