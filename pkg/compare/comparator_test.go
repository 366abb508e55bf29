package compare

import (
	"testing"

	"github.com/sdejongh/drivemirror/pkg/models"
)

// TestNameSizeComparator tests the name/size comparator
func TestNameSizeComparator(t *testing.T) {
	comparator := NewNameSizeComparator()

	if comparator.Name() != "namesize" {
		t.Errorf("Name() = %s, want namesize", comparator.Name())
	}

	tests := []struct {
		name   string
		local  models.LocalEntry
		remote models.RemoteObject
		want   Result
		reason string
	}{
		{
			name:   "SameSize",
			local:  models.LocalEntry{Path: "/src/a.txt", Name: "a.txt", Kind: models.KindFile, Size: 10},
			remote: models.RemoteObject{ID: "r1", Name: "a.txt", Kind: models.KindFile, Size: 10},
			want:   Same,
			reason: "name and size match",
		},
		{
			name:   "DifferentSize",
			local:  models.LocalEntry{Path: "/src/a.txt", Name: "a.txt", Kind: models.KindFile, Size: 10},
			remote: models.RemoteObject{ID: "r1", Name: "a.txt", Kind: models.KindFile, Size: 7},
			want:   Different,
			reason: "file sizes differ",
		},
		{
			name:   "DifferentName",
			local:  models.LocalEntry{Path: "/src/a.txt", Name: "a.txt", Kind: models.KindFile, Size: 10},
			remote: models.RemoteObject{ID: "r1", Name: "b.txt", Kind: models.KindFile, Size: 10},
			want:   Different,
			reason: "file names differ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp := comparator.Compare(tt.local, tt.remote)
			if cmp.Result != tt.want {
				t.Errorf("Compare() result = %s, want %s", cmp.Result, tt.want)
			}
			if cmp.Reason != tt.reason {
				t.Errorf("Compare() reason = %s, want %s", cmp.Reason, tt.reason)
			}
		})
	}
}

func TestComparisonMismatch(t *testing.T) {
	cmp := NewNameSizeComparator().Compare(
		models.LocalEntry{Path: "/src/docs/a.txt", Name: "a.txt", Kind: models.KindFile, Size: 3},
		models.RemoteObject{ID: "r9", Name: "a.txt", Kind: models.KindFile, Size: 5},
	)

	got := cmp.Mismatch("docs/a.txt")
	want := models.SizeMismatch{Path: "docs/a.txt", LocalSize: 3, RemoteSize: 5, RemoteID: "r9"}
	if got != want {
		t.Errorf("Mismatch() = %+v, want %+v", got, want)
	}
}
