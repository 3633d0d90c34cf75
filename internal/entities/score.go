package entities

import (
	"encoding/json"
	"math"
)

const (
	MinMatchScore = 0
	MaxMatchScore = 100
)

// MatchScore is a candidate/job fitness value in [0, 100]. The zero value is an absent
// score, which is not the same thing as a poor match.
type MatchScore struct {
	value int
	known bool
}

func NoScore() MatchScore {
	return MatchScore{}
}

func Score(value int) MatchScore {
	return MatchScore{value: clamp(value), known: true}
}

// NormalizeScore turns a raw upstream value into a MatchScore. A missing value stays
// absent; anything else is rounded and clamped to the valid range.
func NormalizeScore(raw *float64) MatchScore {
	if raw == nil || math.IsNaN(*raw) {
		return NoScore()
	}
	value := math.Min(math.Max(math.Round(*raw), MinMatchScore), MaxMatchScore)
	return Score(int(value))
}

func (s MatchScore) Known() bool {
	return s.known
}

func (s MatchScore) Value() int {
	return s.value
}

// OrZero is used where a missing score is persisted or displayed as 0.
func (s MatchScore) OrZero() MatchScore {
	if s.known {
		return s
	}
	return Score(0)
}

// Less orders absent scores below any known score.
func (s MatchScore) Less(other MatchScore) bool {
	if s.known != other.known {
		return !s.known
	}
	return s.value < other.value
}

func (s MatchScore) MarshalJSON() ([]byte, error) {
	if !s.known {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

func (s *MatchScore) UnmarshalJSON(b []byte) error {
	var raw *float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = NormalizeScore(raw)
	return nil
}

func clamp(value int) int {
	if value < MinMatchScore {
		return MinMatchScore
	}
	if value > MaxMatchScore {
		return MaxMatchScore
	}
	return value
}
