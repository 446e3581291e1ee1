package grading

import (
	"testing"

	"github.com/google/uuid"
	"github.com/primepath/primepath-backend/internal/model"
)

func question(t model.QuestionType, correct string, points int) model.Question {
	return model.Question{ID: uuid.New(), QuestionType: t, CorrectAnswer: correct, Points: points}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		name      string
		q         model.Question
		answer    string
		wantOK    bool
		wantPoint int
	}{
		{"mcq exact", question(model.QuestionTypeMCQ, "B", 1), "B", true, 1},
		{"mcq case and spaces", question(model.QuestionTypeMCQ, "b", 2), "  B ", true, 2},
		{"mcq wrong", question(model.QuestionTypeMCQ, "B", 1), "C", false, 0},
		{"mcq blank", question(model.QuestionTypeMCQ, "B", 1), "", false, 0},

		{"checkbox same set any order", question(model.QuestionTypeCheckbox, "A|C|D", 3), "D,A,C", true, 3},
		{"checkbox subset", question(model.QuestionTypeCheckbox, "A|C", 1), "A", false, 0},
		{"checkbox superset", question(model.QuestionTypeCheckbox, "A|C", 1), "A|C|E", false, 0},

		{"short alternative", question(model.QuestionTypeShort, "cat|kitten", 1), "Kitten", true, 1},
		{"short wrong", question(model.QuestionTypeShort, "cat|kitten", 1), "dog", false, 0},
		{"short multi blank", question(model.QuestionTypeShort, "red|crimson,blue", 2), "crimson, Blue", true, 2},
		{"short multi blank partial", question(model.QuestionTypeShort, "red,blue", 2), "red,green", false, 0},
		{"short missing blank", question(model.QuestionTypeShort, "red,blue", 2), "red", false, 0},

		{"mixed all parts", question(model.QuestionTypeMixed, "MCQ:A;SHORT:cat|dog;CHECKBOX:B|C", 3), "a;Dog;C|B", true, 3},
		{"mixed one part wrong", question(model.QuestionTypeMixed, "MCQ:A;SHORT:cat", 2), "B;cat", false, 0},
		{"mixed part count mismatch", question(model.QuestionTypeMixed, "MCQ:A;SHORT:cat", 2), "A", false, 0},
		{"mixed malformed key", question(model.QuestionTypeMixed, "A;B", 2), "A;B", false, 0},

		{"no key", question(model.QuestionTypeMCQ, "", 1), "A", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Grade(tt.q, tt.answer)
			if got.Correct == nil {
				t.Fatal("Correct is nil, want a verdict")
			}
			if *got.Correct != tt.wantOK || got.Points != tt.wantPoint {
				t.Fatalf("Grade = %v/%d, want %v/%d", *got.Correct, got.Points, tt.wantOK, tt.wantPoint)
			}
		})
	}
}

func TestGradeLongNeedsManualGrading(t *testing.T) {
	got := Grade(question(model.QuestionTypeLong, "", 5), "An essay")
	if got.Correct != nil || got.Points != 0 {
		t.Fatalf("Grade(LONG) = %+v, want no verdict and 0 points", got)
	}
}

func TestScore(t *testing.T) {
	q1 := question(model.QuestionTypeMCQ, "A", 1)
	q2 := question(model.QuestionTypeMCQ, "B", 2)
	q3 := question(model.QuestionTypeLong, "", 3)

	score, total, pct := Score([]model.Question{q1, q2, q3}, map[string]int{
		q1.ID.String(): 1,
		q3.ID.String(): 2,
	})
	if score != 3 || total != 6 || pct != 50 {
		t.Fatalf("Score = %d/%d (%.2f), want 3/6 (50)", score, total, pct)
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		score, total int
		want         float64
	}{
		{0, 0, 0},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{5, 5, 100},
	}
	for _, tt := range tests {
		if got := Percentage(tt.score, tt.total); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %v, want %v", tt.score, tt.total, got, tt.want)
		}
	}
}
