package bundle

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/veil-verify/veil/internal/ir"
)

// Writer emits the bundle exchange format. It exists for Go frontends
// and for tests; the engine itself only reads.
type Writer struct {
	w           io.Writer
	wroteHeader bool
	wroteTypes  bool
	err         error
}

// NewWriter creates a Writer targeting w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteTypeTable writes the header and the type-table frame. Must be
// called exactly once, before any item record.
func (bw *Writer) WriteTypeTable(types []TypeRecord) error {
	if bw.err != nil {
		return bw.err
	}
	if bw.wroteTypes {
		return fmt.Errorf("bundle: type table already written")
	}
	if !bw.wroteHeader {
		var header [6]byte
		copy(header[:4], magic[:])
		binary.BigEndian.PutUint16(header[4:6], ir.SchemaVersion)
		if _, err := bw.w.Write(header[:]); err != nil {
			bw.err = err
			return err
		}
		bw.wroteHeader = true
	}
	if types == nil {
		types = []TypeRecord{}
	}
	bw.wroteTypes = true
	return bw.writeFrame(types)
}

// WriteItem writes one item record frame.
func (bw *Writer) WriteItem(rec ItemRecord) error {
	if bw.err != nil {
		return bw.err
	}
	if !bw.wroteTypes {
		return fmt.Errorf("bundle: type table must be written before items")
	}
	return bw.writeFrame(rec)
}

func (bw *Writer) writeFrame(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		bw.err = err
		return err
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := bw.w.Write(lenBuf[:]); err != nil {
		bw.err = err
		return err
	}
	if _, err := bw.w.Write(payload); err != nil {
		bw.err = err
		return err
	}
	return nil
}
