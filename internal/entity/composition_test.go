package entity

import (
	"errors"
	"testing"
)

func TestCompositionValidate(t *testing.T) {
	valid := ClassComposition{
		ID:         "comp-1",
		StudentIDs: []string{"s1", "s2", "s3"},
		ClassType:  ClassGroup,
	}
	if err := valid.Validate(9); err != nil {
		t.Fatalf("valid composition rejected: %v", err)
	}

	empty := ClassComposition{ID: "comp-2", ClassType: ClassGroup}
	if err := empty.Validate(9); !errors.Is(err, ErrEmptyComposition) {
		t.Errorf("empty composition: err = %v", err)
	}

	oversized := ClassComposition{
		ID:         "comp-3",
		StudentIDs: []string{"s1", "s2", "s3", "s4"},
		ClassType:  ClassGroup,
	}
	if err := oversized.Validate(3); err == nil {
		t.Errorf("oversized composition accepted")
	}

	duplicated := ClassComposition{
		ID:         "comp-4",
		StudentIDs: []string{"s1", "s2", "s1"},
		ClassType:  ClassGroup,
	}
	if err := duplicated.Validate(9); err == nil {
		t.Errorf("duplicate member accepted")
	}

	individualPair := ClassComposition{
		ID:         "comp-5",
		StudentIDs: []string{"s1", "s2"},
		ClassType:  ClassIndividual,
	}
	if err := individualPair.Validate(9); err == nil {
		t.Errorf("individual class with two students accepted")
	}

	soloGroup := ClassComposition{
		ID:         "comp-6",
		StudentIDs: []string{"s1"},
		ClassType:  ClassGroup,
	}
	if err := soloGroup.Validate(9); err == nil {
		t.Errorf("group class with one student accepted")
	}

	solo := ClassComposition{
		ID:         "comp-7",
		StudentIDs: []string{"s1"},
		ClassType:  ClassIndividual,
	}
	if err := solo.Validate(9); err != nil {
		t.Errorf("valid individual composition rejected: %v", err)
	}
}
