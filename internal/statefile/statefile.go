// Package statefile persists the last known countdown state so that
// short-lived clients can report it without talking to the daemon.
//
// The file holds a single protobuf-wire record and is replaced atomically on
// every write.
package statefile

import (
	"errors"
	"fmt"
	"os"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"pomo/internal/countdown"
	"pomo/internal/fileutil"
)

const (
	fieldVariant   protowire.Number = 1
	fieldType      protowire.Number = 2
	fieldRemaining protowire.Number = 3
	fieldCycle     protowire.Number = 4
	fieldWrittenAt protowire.Number = 5
)

const (
	variantStopped  uint64 = 1
	variantStarted  uint64 = 2
	variantFinished uint64 = 3
)

// ErrCorrupt is wrapped by every Unmarshal failure.
var ErrCorrupt = errors.New("corrupt state file")

// Snapshot is the persisted record.
type Snapshot struct {
	State     countdown.State
	WrittenAt time.Time
}

// Marshal encodes snap.
func Marshal(snap Snapshot) ([]byte, error) {
	var (
		variant   uint64
		remaining time.Duration
		withTime  bool
	)
	switch st := snap.State.(type) {
	case countdown.Stopped:
		variant, remaining, withTime = variantStopped, st.Remaining, true
	case countdown.Started:
		variant, remaining, withTime = variantStarted, st.Remaining, true
	case countdown.Finished:
		variant = variantFinished
	default:
		return nil, fmt.Errorf("marshal state: unsupported state %T", snap.State)
	}

	t := countdown.TypeOf(snap.State)
	if !t.Valid() {
		return nil, fmt.Errorf("marshal state: invalid type %v", t)
	}

	b := protowire.AppendTag(nil, fieldVariant, protowire.VarintType)
	b = protowire.AppendVarint(b, variant)
	b = protowire.AppendTag(b, fieldType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(t))
	if withTime {
		b = protowire.AppendTag(b, fieldRemaining, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(remaining/countdown.Unit))
	}
	b = protowire.AppendTag(b, fieldCycle, protowire.VarintType)
	b = protowire.AppendVarint(b, countdown.CycleOf(snap.State))
	if !snap.WrittenAt.IsZero() {
		b = protowire.AppendTag(b, fieldWrittenAt, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(snap.WrittenAt.Unix()))
	}
	return b, nil
}

// Unmarshal decodes a record produced by Marshal.
func Unmarshal(b []byte) (Snapshot, error) {
	values := make(map[protowire.Number]uint64, 5)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, protowire.ParseError(n))
		}
		b = b[n:]
		if typ != protowire.VarintType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return Snapshot{}, fmt.Errorf("%w: field %d: %v", ErrCorrupt, num, protowire.ParseError(n))
		}
		b = b[n:]
		values[num] = v
	}

	variant, ok := values[fieldVariant]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: missing variant", ErrCorrupt)
	}
	rawType, ok := values[fieldType]
	if !ok || rawType > 0xff || !countdown.Type(rawType).Valid() {
		return Snapshot{}, fmt.Errorf("%w: invalid type %d", ErrCorrupt, rawType)
	}
	t := countdown.Type(rawType)
	cycle, ok := values[fieldCycle]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: missing cycle", ErrCorrupt)
	}
	remaining := time.Duration(values[fieldRemaining]) * countdown.Unit

	var snap Snapshot
	switch variant {
	case variantStopped:
		snap.State = countdown.Stopped{Type: t, Remaining: remaining, Cycle: cycle}
	case variantStarted:
		snap.State = countdown.Started{Type: t, Remaining: remaining, Cycle: cycle}
	case variantFinished:
		snap.State = countdown.Finished{Type: t, Cycle: cycle}
	default:
		return Snapshot{}, fmt.Errorf("%w: unknown variant %d", ErrCorrupt, variant)
	}
	if ts, ok := values[fieldWrittenAt]; ok {
		snap.WrittenAt = time.Unix(int64(ts), 0)
	}
	return snap, nil
}

// Write replaces the file at path with snap.
func Write(path string, snap Snapshot) error {
	data, err := Marshal(snap)
	if err != nil {
		return err
	}
	if err := fileutil.WriteAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Read loads the snapshot stored at path. A missing file is reported as an
// error satisfying errors.Is(err, fs.ErrNotExist).
func Read(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	snap, err := Unmarshal(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}
