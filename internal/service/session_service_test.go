package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/primepath/primepath-backend/internal/model"
)

func TestAnswerWindowOpen(t *testing.T) {
	deadline := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	grace := time.Minute

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before deadline", deadline.Add(-time.Minute), true},
		{"at deadline", deadline, true},
		{"inside grace", deadline.Add(30 * time.Second), true},
		{"end of grace", deadline.Add(grace), true},
		{"after grace", deadline.Add(grace + time.Second), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := answerWindowOpen(deadline, tt.now, grace); got != tt.want {
				t.Errorf("answerWindowOpen = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRemainingSeconds(t *testing.T) {
	deadline := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if got := remainingSeconds(deadline, deadline.Add(-90*time.Second)); got != 90 {
		t.Errorf("remaining = %d, want 90", got)
	}
	if got := remainingSeconds(deadline, deadline.Add(time.Second)); got != 0 {
		t.Errorf("remaining after deadline = %d, want 0", got)
	}
}

func TestAuthorize(t *testing.T) {
	seven, eight := 7, 8

	tests := []struct {
		name      string
		owner     *int
		studentID int
		kind      model.ExamKind
		want      error
	}{
		{"public placement", nil, 0, model.ExamKindPlacement, nil},
		{"public placement started by a student", nil, 7, model.ExamKindPlacement, nil},
		{"public routine", nil, 7, model.ExamKindRoutine, ErrSessionNotOwned},
		{"owner", &seven, 7, model.ExamKindRoutine, nil},
		{"other student", &eight, 7, model.ExamKindRoutine, ErrSessionNotOwned},
		{"student on anonymous placement", &seven, 0, model.ExamKindPlacement, ErrSessionNotOwned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := authorize(tt.owner, tt.studentID, tt.kind); !errors.Is(err, tt.want) {
				t.Errorf("authorize = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseMeta(t *testing.T) {
	qid := uuid.New()
	meta, err := parseMeta(map[string]string{
		metaDeadline:                      "1772445600",
		metaStudent:                       "12",
		metaKind:                          "ROUTINE",
		metaQuestionPrefix + qid.String(): "1",
	})
	if err != nil {
		t.Fatalf("parseMeta: %v", err)
	}
	if meta.deadline.Unix() != 1772445600 || meta.studentID != 12 || meta.kind != model.ExamKindRoutine {
		t.Errorf("meta = %+v", meta)
	}
	if !meta.questions[qid.String()] || len(meta.questions) != 1 {
		t.Errorf("questions = %v", meta.questions)
	}

	if _, err := parseMeta(map[string]string{metaStudent: "1"}); err == nil {
		t.Error("expected error for missing deadline")
	}
}

func TestMergeAnswers(t *testing.T) {
	q1, q2, q3 := uuid.New(), uuid.New(), uuid.New()
	stored := []model.StudentAnswer{
		{QuestionID: q1, Answer: "A"},
		{QuestionID: q2, Answer: "B"},
	}
	buffered := map[string]string{
		q2.String(): "C",
		q3.String(): "D",
		"garbage":   "E",
	}

	got := mergeAnswers(stored, buffered)
	want := map[uuid.UUID]string{q1: "A", q2: "C", q3: "D"}
	if len(got) != len(want) {
		t.Fatalf("got %d answers, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("answer %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestGradeSession(t *testing.T) {
	mcq := model.Question{ID: uuid.New(), QuestionType: model.QuestionTypeMCQ, CorrectAnswer: "B", Points: 2}
	short := model.Question{ID: uuid.New(), QuestionType: model.QuestionTypeShort, CorrectAnswer: "cat|kitten", Points: 1}
	long := model.Question{ID: uuid.New(), QuestionType: model.QuestionTypeLong, Points: 5}
	blank := model.Question{ID: uuid.New(), QuestionType: model.QuestionTypeMCQ, CorrectAnswer: "A", Points: 1}

	grades, score, total, pct := gradeSession(
		[]model.Question{mcq, short, long, blank},
		map[uuid.UUID]string{mcq.ID: "b", short.ID: "dog", long.ID: "an essay"},
	)

	if len(grades) != 4 {
		t.Fatalf("got %d grades, want one per question", len(grades))
	}
	if score != 2 || total != 9 {
		t.Errorf("score = %d/%d, want 2/9", score, total)
	}
	if pct != 22.22 {
		t.Errorf("percentage = %v, want 22.22", pct)
	}
	if grades[2].IsCorrect != nil || grades[2].Answer != "an essay" {
		t.Errorf("long answer grade = %+v, want ungraded with answer kept", grades[2])
	}
	if grades[3].IsCorrect == nil || *grades[3].IsCorrect {
		t.Errorf("unanswered grade = %+v, want incorrect", grades[3])
	}
}

func TestSharedClass(t *testing.T) {
	classes := []model.Class{{Code: "G5-A"}, {Code: "G5-B"}}
	if code, ok := sharedClass(classes, []string{"G6-A", "G5-B"}); !ok || code != "G5-B" {
		t.Errorf("sharedClass = %q, %v", code, ok)
	}
	if _, ok := sharedClass(classes, []string{"G6-A"}); ok {
		t.Error("expected no shared class")
	}
}
