package model

import "testing"

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{1, 8, 13}, // 12.5 rounds up
		{1, 200, 1},
		{5, 3, 100},
	}
	for _, tt := range tests {
		if got := ProgressPercentage(tt.completed, tt.total); got != tt.want {
			t.Errorf("ProgressPercentage(%d, %d) = %d, want %d", tt.completed, tt.total, got, tt.want)
		}
	}
}

func TestClassifyPartitions(t *testing.T) {
	for pct := 0; pct <= 100; pct++ {
		p := &UserProgress{ProgressPercentage: pct}
		got := Classify(p)
		var want ProgressStatus
		switch pct {
		case 0:
			want = ProgressPending
		case 100:
			want = ProgressCompleted
		default:
			want = ProgressInProgress
		}
		if got != want {
			t.Fatalf("Classify(%d) = %s, want %s", pct, got, want)
		}
	}
}

func TestTotalLessons(t *testing.T) {
	var nilCourse *Course
	if nilCourse.TotalLessons() != 0 {
		t.Fatalf("nil course should have no lessons")
	}
	c := &Course{Modules: []Module{
		{Lessons: []Lesson{{ID: "l1"}, {ID: "l2"}}},
		{},
		{Lessons: []Lesson{{ID: "l3"}}},
	}}
	if got := c.TotalLessons(); got != 3 {
		t.Fatalf("TotalLessons = %d, want 3", got)
	}
	if m, l, ok := c.FindLesson("l3"); !ok || m != 2 || l != 0 {
		t.Fatalf("FindLesson(l3) = %d, %d, %v", m, l, ok)
	}
}

func TestSortQuestionsFallsBackToPosition(t *testing.T) {
	qs := []Question{
		{ID: "c", Position: IntPtr(3)},
		{ID: "a", Order: IntPtr(1)},
		{ID: "none"},
		{ID: "b", Order: IntPtr(0), Position: IntPtr(2)},
	}
	SortQuestions(qs)
	got := []string{qs[0].ID, qs[1].ID, qs[2].ID, qs[3].ID}
	want := []string{"none", "a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
