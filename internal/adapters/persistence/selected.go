package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/okian/pizarra/internal/domain/model"
)

// SelectedKind tells how a record stores its selected players.
type SelectedKind int

const (
	SelectedEmpty SelectedKind = iota
	SelectedIDs
	SelectedSnapshots
)

func (k SelectedKind) String() string {
	switch k {
	case SelectedIDs:
		return "ids"
	case SelectedSnapshots:
		return "snapshots"
	default:
		return "empty"
	}
}

// Selected is the decoded selected-players column. The kind is taken from
// the first element only. IDs always lists every usable identity in order;
// Snapshots is filled only for SelectedSnapshots and is parallel to IDs.
type Selected struct {
	Kind      SelectedKind
	IDs       []string
	Snapshots []model.Player
	Malformed int
}

// DecodeSelected decodes raw once. Elements that do not match the kind of
// the first one are kept when they still carry an identity and counted as
// malformed; elements without an identity are skipped.
func DecodeSelected(raw json.RawMessage) (Selected, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Selected{Kind: SelectedEmpty}, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return Selected{Kind: SelectedEmpty}, fmt.Errorf("%w: selected players: %v", ErrMalformedRecord, err)
	}
	if len(elems) == 0 {
		return Selected{Kind: SelectedEmpty}, nil
	}

	var out Selected
	switch firstByte(elems[0]) {
	case '"':
		out.Kind = SelectedIDs
	case '{':
		out.Kind = SelectedSnapshots
	default:
		out.Kind = SelectedIDs
	}

	for _, elem := range elems {
		switch firstByte(elem) {
		case '"':
			var id string
			if err := json.Unmarshal(elem, &id); err != nil || id == "" {
				out.Malformed++
				continue
			}
			if out.Kind == SelectedSnapshots {
				out.Malformed++
				out.Snapshots = append(out.Snapshots, model.Player{ID: id})
			}
			out.IDs = append(out.IDs, id)
		case '{':
			p, complete, ok := decodeSnapshot(elem)
			if !ok {
				out.Malformed++
				continue
			}
			if !complete || out.Kind == SelectedIDs {
				out.Malformed++
			}
			if out.Kind == SelectedSnapshots {
				out.Snapshots = append(out.Snapshots, p)
			}
			out.IDs = append(out.IDs, p.ID)
		default:
			out.Malformed++
		}
	}

	if out.Malformed > 0 {
		return out, fmt.Errorf("%w: %d of %d selected entries", ErrMalformedRecord, out.Malformed, len(elems))
	}
	return out, nil
}

// EncodeSelected writes identities only.
func EncodeSelected(ids []string) (json.RawMessage, error) {
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

// decodeSnapshot falls back to the bare id when the rest of the snapshot
// does not decode.
func decodeSnapshot(raw json.RawMessage) (p model.Player, complete, ok bool) {
	if err := json.Unmarshal(raw, &p); err == nil {
		return p, true, p.ID != ""
	}
	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &ref); err != nil || ref.ID == "" {
		return model.Player{}, false, false
	}
	return model.Player{ID: ref.ID}, false, true
}

func firstByte(raw json.RawMessage) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}
