package transport

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/subtlepseudonym/lukashian"
)

// encMode is configured with Core Deterministic Encoding, so the same
// tables always produce identical bytes
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("transport: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		MaxArrayElements: 1 << 24,
	}.DecMode()
	if err != nil {
		panic("transport: CBOR decoder initialization failed: " + err.Error())
	}
}

// binaryRecord is the CBOR form of a set of tables
type binaryRecord struct {
	MinYear        int     `cbor:"1,keyasint"`
	MaxYear        int     `cbor:"2,keyasint"`
	MinDay         int     `cbor:"3,keyasint"`
	MaxDay         int     `cbor:"4,keyasint"`
	DayFloor       *int64  `cbor:"5,keyasint,omitempty"`
	YearBoundaries []int64 `cbor:"6,keyasint"`
	DayBoundaries  []int64 `cbor:"7,keyasint"`
}

// MarshalCBOR encodes tables as CBOR
func MarshalCBOR(t *lukashian.Tables) ([]byte, error) {
	r := t.Range()
	floor := t.DayFloor()
	return encMode.Marshal(binaryRecord{
		MinYear:        r.MinYear,
		MaxYear:        r.MaxYear,
		MinDay:         r.MinDay,
		MaxDay:         r.MaxDay,
		DayFloor:       &floor,
		YearBoundaries: t.Years(),
		DayBoundaries:  t.Days(),
	})
}

// UnmarshalCBOR decodes and validates CBOR encoded tables
func UnmarshalCBOR(data []byte) (*lukashian.Tables, error) {
	var r binaryRecord
	if err := decMode.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", errors.Join(ErrMalformed, err))
	}

	floor, err := dayFloor(r.MinDay, r.DayFloor)
	if err != nil {
		return nil, err
	}

	rng := lukashian.Range{
		MinYear: r.MinYear,
		MaxYear: r.MaxYear,
		MinDay:  r.MinDay,
		MaxDay:  r.MaxDay,
	}
	t, err := lukashian.NewTables(rng, r.YearBoundaries, r.DayBoundaries, floor)
	if err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	return t, nil
}
