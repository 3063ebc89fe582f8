package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/spaolacci/murmur3"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// ErrVerifyFailed is returned by Verify when the store does not hold the
// snapshot's records.
var ErrVerifyFailed = errors.New("backup verification failed")

// Fingerprint maps each collection of a snapshot to a murmur3-128 digest of
// its records. Record order and the export date do not affect it.
type Fingerprint map[string]string

// Compute fingerprints every collection present in snap.
func Compute(snap *types.Snapshot) (Fingerprint, error) {
	fp := make(Fingerprint, len(snap.Collections))
	for name, recs := range snap.Collections {
		sorted := slices.Clone(recs)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].RecordID() < sorted[j].RecordID()
		})

		h := murmur3.New128()
		for _, rec := range sorted {
			data, err := json.Marshal(rec)
			if err != nil {
				return nil, fmt.Errorf("encoding %s/%s: %w", name, rec.RecordID(), err)
			}
			h.Write(data)
			h.Write([]byte{'\n'})
		}
		h1, h2 := h.Sum128()
		fp[name] = fmt.Sprintf("%016x%016x", h1, h2)
	}
	return fp, nil
}

// Equal reports whether both fingerprints cover the same collections with
// the same digests.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return maps.Equal(f, other)
}

// Diff lists the collections whose digests differ, in schema order.
func (f Fingerprint) Diff(other Fingerprint) []string {
	var out []string
	for _, name := range types.StandardCollectionNames {
		a, aok := f[name]
		b, bok := other[name]
		if aok != bok || a != b {
			out = append(out, name)
		}
	}
	return out
}

// Verify checks that every record of snap is stored unchanged in s. Records
// the store holds beyond the snapshot are ignored, since import is additive.
func Verify(ctx context.Context, s types.Store, snap *types.Snapshot) error {
	current, err := s.ExportAll(ctx)
	if err != nil {
		return fmt.Errorf("exporting store: %w", err)
	}

	restricted := &types.Snapshot{Collections: make(map[string][]types.Record, len(snap.Collections))}
	for name, recs := range snap.Collections {
		want := make(map[string]bool, len(recs))
		for _, r := range recs {
			want[r.RecordID()] = true
		}
		kept := []types.Record{}
		for _, r := range current.Collections[name] {
			if want[r.RecordID()] {
				kept = append(kept, r)
			}
		}
		restricted.Collections[name] = kept
	}

	expected, err := Compute(snap)
	if err != nil {
		return err
	}
	actual, err := Compute(restricted)
	if err != nil {
		return err
	}
	if !expected.Equal(actual) {
		return fmt.Errorf("%w: %s", ErrVerifyFailed, strings.Join(expected.Diff(actual), ", "))
	}
	return nil
}
