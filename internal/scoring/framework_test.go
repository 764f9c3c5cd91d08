package scoring

import (
	"strings"
	"testing"
)

// --- DefaultFramework ---

func TestDefaultFramework_Valid(t *testing.T) {
	if err := DefaultFramework().Validate(); err != nil {
		t.Fatalf("DefaultFramework().Validate() = %v, want nil", err)
	}
}

func TestDefaultFramework_ThreeDomains(t *testing.T) {
	root := DefaultFramework().Root
	if len(root.Children) != 3 {
		t.Fatalf("root has %d domains, want 3", len(root.Children))
	}

	want := map[string]bool{"technical": true, "content": true, "structure": true}
	for _, d := range root.Children {
		if !want[d.Name] {
			t.Errorf("unexpected domain %q", d.Name)
		}
		if len(d.Children) == 0 {
			t.Errorf("domain %q has no leaves", d.Name)
		}
	}
}

func TestDefaultFramework_LeavesBindMetrics(t *testing.T) {
	root := DefaultFramework().Root
	for _, d := range root.Children {
		for _, leaf := range d.Children {
			if leaf.Metric == "" {
				t.Errorf("leaf %s.%s has no metric binding", d.Name, leaf.Name)
			}
		}
	}
}

// --- Validate ---

func TestValidate_WeightsMustSumToOne(t *testing.T) {
	f := Framework{Root: Category{
		Name:   "root",
		Weight: 1,
		Children: []Category{
			{Name: "a", Weight: 0.5, Metric: "a"},
			{Name: "b", Weight: 0.3, Metric: "b"},
		},
	}}

	err := f.Validate()
	if err == nil {
		t.Fatal("expected weight-sum error")
	}
	if !strings.Contains(err.Error(), "summing") {
		t.Errorf("error = %v, want a weight-sum message", err)
	}
}

func TestValidate_ToleratesFloatingError(t *testing.T) {
	f := Framework{Root: Category{
		Name:   "root",
		Weight: 1,
		Children: []Category{
			{Name: "a", Weight: 0.1 + 0.2, Metric: "a"}, // 0.30000000000000004
			{Name: "b", Weight: 0.7, Metric: "b"},
		},
	}}

	if err := f.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil within tolerance", err)
	}
}

func TestValidate_RejectsZeroWeight(t *testing.T) {
	f := Framework{Root: Category{
		Name:   "root",
		Weight: 1,
		Children: []Category{
			{Name: "a", Weight: 0, Metric: "a"},
			{Name: "b", Weight: 1, Metric: "b"},
		},
	}}

	if err := f.Validate(); err == nil {
		t.Fatal("expected error for zero weight")
	}
}

func TestValidate_RejectsUnboundLeaf(t *testing.T) {
	f := Framework{Root: Category{
		Name:     "root",
		Weight:   1,
		Children: []Category{{Name: "a", Weight: 1}},
	}}

	if err := f.Validate(); err == nil {
		t.Fatal("expected error for leaf without metric")
	}
}

func TestValidate_RejectsMetricOnInteriorNode(t *testing.T) {
	f := Framework{Root: Category{
		Name:   "root",
		Weight: 1,
		Metric: "oops",
		Children: []Category{
			{Name: "a", Weight: 1, Metric: "a"},
		},
	}}

	if err := f.Validate(); err == nil {
		t.Fatal("expected error for interior node with metric")
	}
}

func TestValidate_RejectsDuplicateNames(t *testing.T) {
	f := Framework{Root: Category{
		Name:   "root",
		Weight: 1,
		Children: []Category{
			{Name: "a", Weight: 0.5, Metric: "x"},
			{Name: "a", Weight: 0.5, Metric: "y"},
		},
	}}

	if err := f.Validate(); err == nil {
		t.Fatal("expected error for duplicate sibling names")
	}
}

// --- Grade table ---

func TestGradeFor_Bounds(t *testing.T) {
	cases := []struct {
		score float64
		want  Grade
	}{
		{100, GradeAPlus},
		{95, GradeAPlus},
		{94.9, GradeA},
		{90, GradeA},
		{85, GradeAMinus},
		{80, GradeBPlus},
		{79.9, GradeB},
		{70, GradeB},
		{55, GradeC},
		{40, GradeD},
		{39.9, GradeF},
		{0, GradeF},
		{-5, GradeF}, // outside the table falls to the lowest grade
	}

	for _, c := range cases {
		if got := GradeFor(c.score); got != c.want {
			t.Errorf("GradeFor(%v) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestGrades_DescendingAndComplete(t *testing.T) {
	grades := Grades()
	if len(grades) != 8 {
		t.Fatalf("got %d grades, want 8", len(grades))
	}
	if grades[0] != GradeAPlus || grades[len(grades)-1] != GradeF {
		t.Errorf("grades = %v, want A+ first and F last", grades)
	}
}
