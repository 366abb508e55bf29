package sync

import (
	"fmt"
	"math/rand"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/sdejongh/drivemirror/pkg/models"
)

func localEntry(name string, kind models.Kind) models.LocalEntry {
	return models.LocalEntry{Path: "/src/" + name, Name: name, Kind: kind}
}

func remoteObject(id, name string, kind models.Kind) models.RemoteObject {
	return models.RemoteObject{ID: id, Name: name, Kind: kind}
}

func TestPartitionEntries(t *testing.T) {
	local := []models.LocalEntry{
		localEntry("a.txt", models.KindFile),
		localEntry("docs", models.KindFolder),
		localEntry("notes", models.KindFolder),
	}
	remote := []models.RemoteObject{
		remoteObject("1", "docs", models.KindFolder),
		remoteObject("2", "notes", models.KindFile),
		remoteObject("3", "docs", models.KindFolder),
		remoteObject("4", "old.txt", models.KindFile),
	}

	p := PartitionEntries(local, remote)

	if len(p.LocalOnly) != 2 || p.LocalOnly[0].Name != "a.txt" || p.LocalOnly[1].Name != "notes" {
		t.Errorf("LocalOnly = %v", p.LocalOnly)
	}
	if len(p.Common) != 1 || p.Common[0].Remote.ID != "1" {
		t.Errorf("Common = %v, want docs paired with the first remote docs", p.Common)
	}
	if len(p.RemoteOnly) != 2 || p.RemoteOnly[0].ID != "2" || p.RemoteOnly[1].ID != "4" {
		t.Errorf("RemoteOnly = %v", p.RemoteOnly)
	}
}

func TestPartitionCoversAndSeparatesKeys(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	names := []string{"a", "b", "c", "d", "e", "f"}
	kinds := []models.Kind{models.KindFile, models.KindFolder}

	for round := 0; round < 200; round++ {
		t.Run(fmt.Sprintf("Round%d", round), func(t *testing.T) {
			var local []models.LocalEntry
			var remote []models.RemoteObject
			seenLocal := mapset.NewThreadUnsafeSet[models.ComparisonKey]()
			all := mapset.NewThreadUnsafeSet[models.ComparisonKey]()

			localCount, remoteCount := rng.Intn(8), rng.Intn(8)
			for i := 0; i < localCount; i++ {
				entry := localEntry(names[rng.Intn(len(names))], kinds[rng.Intn(2)])
				// local names are unique within a directory
				if !seenLocal.Add(models.ComparisonKey{Name: entry.Name, Kind: models.KindFile}) ||
					!seenLocal.Add(models.ComparisonKey{Name: entry.Name, Kind: models.KindFolder}) {
					continue
				}
				local = append(local, entry)
				all.Add(entry.Key())
			}
			for i := 0; i < remoteCount; i++ {
				obj := remoteObject(fmt.Sprint(i), names[rng.Intn(len(names))], kinds[rng.Intn(2)])
				remote = append(remote, obj)
				all.Add(obj.Key())
			}

			localOnly, common, remoteOnly := PartitionEntries(local, remote).Keys()

			if union := localOnly.Union(common).Union(remoteOnly); !union.Equal(all) {
				t.Errorf("union = %v, want %v", union, all)
			}
			if localOnly.Intersect(common).Cardinality() != 0 ||
				localOnly.Intersect(remoteOnly).Cardinality() != 0 ||
				common.Intersect(remoteOnly).Cardinality() != 0 {
				t.Errorf("groups overlap: localOnly=%v common=%v remoteOnly=%v", localOnly, common, remoteOnly)
			}
		})
	}
}
