package query

import (
	"encoding/json"
	"testing"
)

func TestValue_UnmarshalShapes(t *testing.T) {
	var answers []Answer
	body := `[
		{"questionId":"usage","value":"work"},
		{"questionId":"priorities","value":["performance","battery"]},
		{"questionId":"budget","value":{"min":500,"max":1500}}
	]`
	if err := json.Unmarshal([]byte(body), &answers); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if answers[0].Value.Kind() != KindScalar || answers[0].Value.String() != "work" {
		t.Errorf("unexpected scalar: %+v", answers[0].Value)
	}
	if answers[1].Value.Kind() != KindList || len(answers[1].Value.Items()) != 2 {
		t.Errorf("unexpected list: %+v", answers[1].Value)
	}
	r, ok := answers[2].Value.Range()
	if !ok || r.Min != 500 || r.Max != 1500 {
		t.Errorf("unexpected range: %+v", answers[2].Value)
	}
}

func TestValue_UnmarshalRejectsBadShapes(t *testing.T) {
	bad := []string{
		`{"questionId":"budget","value":{"min":5}}`,
		`{"questionId":"budget","value":42}`,
		`{"questionId":"priorities","value":[1,2]}`,
		`{"questionId":"budget","value":{"min":"a","max":"b"}}`,
	}
	for _, b := range bad {
		var a Answer
		if err := json.Unmarshal([]byte(b), &a); err == nil {
			t.Errorf("expected error for %s", b)
		}
	}
}

func TestValue_MarshalKeepsShape(t *testing.T) {
	a := []Answer{
		{QuestionID: "usage", Value: Scalar("work")},
		{QuestionID: "budget", Value: RangeValue(10, 20)},
	}
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"questionId":"usage","value":"work"},{"questionId":"budget","value":{"min":10,"max":20}}]`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestBudget_Unconstrained(t *testing.T) {
	if !Unconstrained().IsUnconstrained() {
		t.Error("default budget must report unconstrained")
	}
	if (Budget{Min: 0, Max: 500}).IsUnconstrained() {
		t.Error("real budget must not report unconstrained")
	}
}
