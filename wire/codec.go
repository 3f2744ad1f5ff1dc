// Package wire implements the tag-delimited, length-delimited wire codecs
// for WhisperMessage, PreKeyWhisperMessage, and KeyExchangeMessage, against
// the fixed field tag numbers deployed clients already speak. It is built
// directly on protobuf's wire framing primitives (the "wire tag/field
// framing over a length-delimited schema" collaborator), not on a
// generated message type, since these three records are hand-framed rather
// than compiled from a .proto file.
package wire

import "google.golang.org/protobuf/encoding/protowire"

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// fieldVisitor is called once per successfully parsed field.
type fieldVisitor func(num protowire.Number, typ protowire.Type, raw []byte) error

// walkFields decodes a length-delimited sequence of tag/value pairs,
// calling visit once per field. raw is the varint value for VarintType
// fields, or the unwrapped payload for BytesType fields.
func walkFields(b []byte, visit fieldVisitor) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return ErrMalformed
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return ErrMalformed
			}
			b = b[n:]
			var raw [8]byte
			for i := range raw {
				raw[i] = byte(v >> (8 * i))
			}
			if err := visit(num, typ, raw[:]); err != nil {
				return err
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return ErrMalformed
			}
			b = b[n:]
			if err := visit(num, typ, v); err != nil {
				return err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return ErrMalformed
			}
			b = b[n:]
		}
	}
	return nil
}

func varintFromRaw(raw []byte) uint64 {
	var v uint64
	for i, b := range raw {
		v |= uint64(b) << (8 * i)
	}
	return v
}
