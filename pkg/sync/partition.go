package sync

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/sdejongh/drivemirror/pkg/models"
)

// CommonEntry pairs a local entry with the remote object sharing its key
type CommonEntry struct {
	Local  models.LocalEntry
	Remote models.RemoteObject
}

// Partition splits the children of one directory pair by ComparisonKey.
// The three groups never share a key, and together they cover every key
// observed on either side.
type Partition struct {
	LocalOnly  []models.LocalEntry
	Common     []CommonEntry
	RemoteOnly []models.RemoteObject
}

// PartitionEntries partitions local and remote children. Local order is
// kept for LocalOnly and Common, remote order for RemoteOnly. When several
// remote objects share a key, Common pairs with the first one.
func PartitionEntries(local []models.LocalEntry, remote []models.RemoteObject) Partition {
	localKeys := mapset.NewThreadUnsafeSet[models.ComparisonKey]()
	for i := range local {
		localKeys.Add(local[i].Key())
	}

	remoteKeys := mapset.NewThreadUnsafeSet[models.ComparisonKey]()
	firstRemote := make(map[models.ComparisonKey]int, len(remote))
	for i := range remote {
		key := remote[i].Key()
		if remoteKeys.Add(key) {
			firstRemote[key] = i
		}
	}

	common := localKeys.Intersect(remoteKeys)

	var p Partition
	for _, entry := range local {
		key := entry.Key()
		if common.Contains(key) {
			p.Common = append(p.Common, CommonEntry{Local: entry, Remote: remote[firstRemote[key]]})
			continue
		}
		p.LocalOnly = append(p.LocalOnly, entry)
	}

	for _, obj := range remote {
		if !common.Contains(obj.Key()) {
			p.RemoteOnly = append(p.RemoteOnly, obj)
		}
	}

	return p
}

// Keys returns the key sets of the three groups
func (p Partition) Keys() (localOnly, common, remoteOnly mapset.Set[models.ComparisonKey]) {
	localOnly = mapset.NewThreadUnsafeSet[models.ComparisonKey]()
	for i := range p.LocalOnly {
		localOnly.Add(p.LocalOnly[i].Key())
	}
	common = mapset.NewThreadUnsafeSet[models.ComparisonKey]()
	for i := range p.Common {
		common.Add(p.Common[i].Local.Key())
	}
	remoteOnly = mapset.NewThreadUnsafeSet[models.ComparisonKey]()
	for i := range p.RemoteOnly {
		remoteOnly.Add(p.RemoteOnly[i].Key())
	}
	return localOnly, common, remoteOnly
}
