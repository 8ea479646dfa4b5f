package search

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRegex(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"", "", false},
		{"   ", "", false},
		{"dacia", "dacia", true},
		{" POL2025 ", "POL2025", true},
		{"a.b*", `a\.b\*`, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			re, ok := Regex(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (re.Pattern != tt.want || re.Options != "i") {
				t.Errorf("Regex(%q) = %+v", tt.in, re)
			}
		})
	}
}

func TestAnyField(t *testing.T) {
	f := bson.M{"user_id": 1}
	AnyField(f, "clio", "vehicle.brand", "vehicle.model")
	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("$or = %v", f["$or"])
	}
	clause := or[1].(bson.M)
	if re, ok := clause["vehicle.model"].(primitive.Regex); !ok || re.Pattern != "clio" {
		t.Errorf("clause = %v", clause)
	}

	f = bson.M{}
	AnyField(f, "  ", "x")
	if _, ok := f["$or"]; ok {
		t.Error("blank query must not add $or")
	}
}
