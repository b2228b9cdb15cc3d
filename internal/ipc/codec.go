package ipc

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding: sorted map keys, smallest
// integer encoding, no indefinite-length items.
var encMode cbor.EncMode

// decMode ignores unknown fields.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("ipc: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		MaxArrayElements: 1 << 16,
	}.DecMode()
	if err != nil {
		panic("ipc: CBOR decoder initialization failed: " + err.Error())
	}
}

// NewEncoder returns a CBOR stream encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a CBOR stream decoder reading from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}
