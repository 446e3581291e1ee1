// Package grading scores student answers against the stored correct answers.
package grading

import (
	"strings"

	"github.com/primepath/primepath-backend/internal/model"
)

// Outcome is the result of grading one answer. Correct is nil when the answer
// needs a human grader.
type Outcome struct {
	Correct *bool
	Points  int
}

// Grade scores a single answer for q.
func Grade(q model.Question, answer string) Outcome {
	if q.QuestionType == model.QuestionTypeLong {
		return Outcome{}
	}
	if strings.TrimSpace(q.CorrectAnswer) == "" || strings.TrimSpace(answer) == "" {
		return wrong()
	}

	if match(q.QuestionType, q.CorrectAnswer, answer) {
		ok := true
		return Outcome{Correct: &ok, Points: q.Points}
	}
	return wrong()
}

func wrong() Outcome {
	ok := false
	return Outcome{Correct: &ok}
}

func match(t model.QuestionType, correct, answer string) bool {
	switch t {
	case model.QuestionTypeMCQ:
		return normalize(correct) == normalize(answer)
	case model.QuestionTypeCheckbox:
		return sameSet(tokens(correct, "|,"), tokens(answer, "|,"))
	case model.QuestionTypeShort:
		return matchShort(correct, answer)
	case model.QuestionTypeMixed:
		return matchMixed(correct, answer)
	default:
		return false
	}
}

// matchShort accepts any "|" alternative per blank. Several blanks are
// separated by "," in both the key and the answer.
func matchShort(correct, answer string) bool {
	groups := strings.Split(correct, ",")
	values := strings.Split(answer, ",")
	if len(groups) != len(values) {
		return false
	}
	for i, group := range groups {
		if !anyAlternative(group, values[i]) {
			return false
		}
	}
	return true
}

func anyAlternative(group, value string) bool {
	v := normalize(value)
	if v == "" {
		return false
	}
	for _, alt := range strings.Split(group, "|") {
		if normalize(alt) == v {
			return true
		}
	}
	return false
}

// matchMixed grades "TYPE:answer" parts separated by ";" against one student
// value per part.
func matchMixed(correct, answer string) bool {
	parts := strings.Split(correct, ";")
	values := strings.Split(answer, ";")
	if len(parts) != len(values) {
		return false
	}
	for i, part := range parts {
		typ, key, ok := strings.Cut(part, ":")
		if !ok {
			return false
		}
		t := model.QuestionType(strings.ToUpper(strings.TrimSpace(typ)))
		if t == model.QuestionTypeMixed || t == model.QuestionTypeLong {
			return false
		}
		if strings.TrimSpace(values[i]) == "" || !match(t, key, values[i]) {
			return false
		}
	}
	return true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func tokens(s, seps string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if n := normalize(f); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func sameSet(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	other := make(map[string]struct{}, len(b))
	for _, v := range b {
		if _, ok := set[v]; !ok {
			return false
		}
		other[v] = struct{}{}
	}
	return len(set) == len(other)
}

// Score sums the earned and available points of a graded sheet and returns
// the percentage rounded to two decimals (0 when nothing is available).
func Score(questions []model.Question, earned map[string]int) (score, total int, percentage float64) {
	for _, q := range questions {
		total += q.Points
		score += earned[q.ID.String()]
	}
	return score, total, Percentage(score, total)
}

// Percentage returns score / total * 100 rounded to two decimals.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(score) * 100 / float64(total)
	return float64(int64(p*100+0.5)) / 100
}
