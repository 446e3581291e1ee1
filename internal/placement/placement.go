// Package placement holds the pure rules that turn a student's grade and
// academic rank into a curriculum level and navigate the difficulty ladder.
package placement

import (
	"errors"
	"sort"

	"github.com/primepath/primepath-backend/internal/model"
)

var (
	// ErrNoPlacementRule is returned when no rule covers the grade and percentile.
	ErrNoPlacementRule = errors.New("no placement rule matches grade and percentile")

	// ErrUnknownRank is returned for an academic rank outside the known set.
	ErrUnknownRank = errors.New("unknown academic rank")

	// ErrNoAdjacentLevel is returned when the ladder has no level in the requested direction.
	ErrNoAdjacentLevel = errors.New("no adjacent level with an active exam")

	// ErrLevelNotOnLadder is returned when the current level is missing from the ladder.
	ErrLevelNotOnLadder = errors.New("level is not on the curriculum ladder")
)

var rankPercentiles = map[model.AcademicRank]float64{
	model.RankTop5:    5,
	model.RankTop10:   10,
	model.RankTop20:   20,
	model.RankTop30:   30,
	model.RankTop40:   40,
	model.RankTop50:   50,
	model.RankBelow50: 100,
}

// RankToPercentile converts an academic rank to the upper bound of its percentile band.
func RankToPercentile(rank model.AcademicRank) (float64, error) {
	p, ok := rankPercentiles[rank]
	if !ok {
		return 0, ErrUnknownRank
	}
	return p, nil
}

// MatchRule returns the rule for grade whose inclusive percentile range
// contains percentile. The lowest priority value wins, then the lowest id.
func MatchRule(rules []model.PlacementRule, grade int, percentile float64) (model.PlacementRule, error) {
	var (
		best  model.PlacementRule
		found bool
	)
	for _, r := range rules {
		if r.Grade != grade || percentile < r.MinPercentile || percentile > r.MaxPercentile {
			continue
		}
		if !found || r.Priority < best.Priority || (r.Priority == best.Priority && r.ID < best.ID) {
			best = r
			found = true
		}
	}
	if !found {
		return model.PlacementRule{}, ErrNoPlacementRule
	}
	return best, nil
}

// FirstActiveMapping returns the active mapping with the lowest slot.
func FirstActiveMapping(mappings []model.ExamLevelMapping) (model.ExamLevelMapping, bool) {
	var (
		best  model.ExamLevelMapping
		found bool
	)
	for _, m := range mappings {
		if !m.ExamActive {
			continue
		}
		if !found || m.Slot < best.Slot {
			best = m
			found = true
		}
	}
	return best, found
}

// SortLadder orders levels from easiest to hardest. Levels with an internal
// difficulty sort by it; the rest keep program, subprogram and level order and
// are placed by their position. Ties fall back to position.
func SortLadder(levels []model.CurriculumLevel) []model.CurriculumLevel {
	out := make([]model.CurriculumLevel, len(levels))
	copy(out, levels)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ProgramSortOrder != b.ProgramSortOrder {
			return a.ProgramSortOrder < b.ProgramSortOrder
		}
		if a.ProgramID != b.ProgramID {
			return a.ProgramID < b.ProgramID
		}
		if a.SubProgramOrder != b.SubProgramOrder {
			return a.SubProgramOrder < b.SubProgramOrder
		}
		if a.SubProgramID != b.SubProgramID {
			return a.SubProgramID < b.SubProgramID
		}
		return a.LevelNumber < b.LevelNumber
	})

	if !allHaveDifficulty(out) {
		return out
	}

	position := make(map[int]int, len(out))
	for i, l := range out {
		position[l.ID] = i
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := *out[i].InternalDifficulty, *out[j].InternalDifficulty
		if a != b {
			return a < b
		}
		return position[out[i].ID] < position[out[j].ID]
	})
	return out
}

func allHaveDifficulty(levels []model.CurriculumLevel) bool {
	for _, l := range levels {
		if l.InternalDifficulty == nil {
			return false
		}
	}
	return len(levels) > 0
}

// Adjacent returns the next level accepted by hasExam in direction (+1 harder,
// -1 easier). When the current level has an internal difficulty, only levels
// with a strictly greater (or smaller) difficulty qualify and the closest one
// wins; levels without a difficulty are used by ladder position only when no
// such level exists. A current level without a difficulty moves by position.
func Adjacent(ladder []model.CurriculumLevel, currentID, direction int, hasExam func(levelID int) bool) (model.CurriculumLevel, error) {
	if direction != 1 && direction != -1 {
		return model.CurriculumLevel{}, ErrNoAdjacentLevel
	}

	idx := -1
	for i, l := range ladder {
		if l.ID == currentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.CurriculumLevel{}, ErrLevelNotOnLadder
	}

	current := ladder[idx]
	if current.InternalDifficulty != nil {
		if l, ok := closestByDifficulty(ladder, idx, direction, hasExam); ok {
			return l, nil
		}
	}

	for i := idx + direction; i >= 0 && i < len(ladder); i += direction {
		candidate := ladder[i]
		if current.InternalDifficulty != nil && candidate.InternalDifficulty != nil {
			continue
		}
		if hasExam(candidate.ID) {
			return candidate, nil
		}
	}
	return model.CurriculumLevel{}, ErrNoAdjacentLevel
}

// closestByDifficulty picks the level whose difficulty is strictly beyond the
// current one in direction and nearest to it. Ties go to the nearest position.
func closestByDifficulty(ladder []model.CurriculumLevel, idx, direction int, hasExam func(levelID int) bool) (model.CurriculumLevel, bool) {
	cur := *ladder[idx].InternalDifficulty
	best, bestGap, bestDist := -1, 0, 0
	for i, l := range ladder {
		if l.InternalDifficulty == nil {
			continue
		}
		gap := (*l.InternalDifficulty - cur) * direction
		if gap <= 0 || !hasExam(l.ID) {
			continue
		}
		dist := i - idx
		if dist < 0 {
			dist = -dist
		}
		if best < 0 || gap < bestGap || (gap == bestGap && dist < bestDist) {
			best, bestGap, bestDist = i, gap, dist
		}
	}
	if best < 0 {
		return model.CurriculumLevel{}, false
	}
	return ladder[best], true
}
