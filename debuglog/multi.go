package debuglog

import "github.com/foomo/layoutinfer/collection"

// Multi forwards every snapshot to each of its members.
type Multi []collection.Snapshotter

func (m Multi) Snapshot(name string, v any) {
	for _, s := range m {
		if s != nil {
			s.Snapshot(name, v)
		}
	}
}
