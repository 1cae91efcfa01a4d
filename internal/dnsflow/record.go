package dnsflow

// decodedRecord is one parsed (name, fixed header, rdata) triple from a
// response body, before it is filed into a transaction's answer or
// authority list.
type decodedRecord struct {
	Name  string
	Type  uint16
	Class uint16
	TTL   uint32
	RData []byte
}

// decodeRecords decodes count records starting at cursor within msg,
// used for answer/authority/additional sections alike. It returns the
// decoded records and the cursor position just past the last one, or
// ok=false if any field would exceed the buffer.
func decodeRecords(msg []byte, cursor int, count int) ([]decodedRecord, int, bool) {
	out := make([]decodedRecord, 0, count)
	for i := 0; i < count; i++ {
		name, consumed, ok := DecodeName(msg, cursor)
		if !ok {
			return out, cursor, false
		}
		cursor += consumed

		if cursor+10 > len(msg) {
			return out, cursor, false
		}
		rtype := be16(msg[cursor : cursor+2])
		class := be16(msg[cursor+2 : cursor+4])
		ttl := be32(msg[cursor+4 : cursor+8])
		rdlength := int(be16(msg[cursor+8 : cursor+10]))
		cursor += 10

		if cursor+rdlength > len(msg) {
			return out, cursor, false
		}
		raw := msg[cursor : cursor+rdlength]
		cursor += rdlength

		rdata := canonicalizeRData(msg, rtype, raw, cursor-rdlength)
		out = append(out, decodedRecord{Name: name, Type: rtype, Class: class, TTL: ttl, RData: rdata})
	}
	return out, cursor, true
}

// decodeQuestions decodes count question-section entries: name plus a
// 4-octet trailer, no ttl/rdata.
func decodeQuestions(msg []byte, cursor int, count int) ([]QueryEntry, int, bool) {
	out := make([]QueryEntry, 0, count)
	for i := 0; i < count; i++ {
		name, consumed, ok := DecodeName(msg, cursor)
		if !ok {
			return out, cursor, false
		}
		cursor += consumed

		if cursor+4 > len(msg) {
			return out, cursor, false
		}
		qtype := be16(msg[cursor : cursor+2])
		class := be16(msg[cursor+2 : cursor+4])
		cursor += 4

		out = append(out, QueryEntry{Name: name, Type: qtype, Class: class})
	}
	return out, cursor, true
}

// canonicalizeRData decodes embedded names in rdata for the record types
// that carry one, leaving binary fields (A, AAAA) and anything
// unrecognized as raw bytes. absOffset is rdata's absolute offset in
// msg, needed because MX/SOA/etc. names may themselves be compressed
// pointers into the wider message.
func canonicalizeRData(msg []byte, rtype uint16, raw []byte, absOffset int) []byte {
	switch rtype {
	case TypeNS, TypeCNAME, TypePTR:
		name, _, ok := DecodeName(msg, absOffset)
		if !ok {
			return append([]byte(nil), raw...)
		}
		return []byte(name)

	case TypeMX:
		if len(raw) < 2 {
			return append([]byte(nil), raw...)
		}
		name, _, ok := DecodeName(msg, absOffset+2)
		if !ok {
			return append([]byte(nil), raw...)
		}
		out := make([]byte, 2+len(name))
		out[0], out[1] = raw[0], raw[1]
		copy(out[2:], name)
		return out

	case TypeSOA:
		mname, consumed, ok := DecodeName(msg, absOffset)
		if !ok {
			return append([]byte(nil), raw...)
		}
		rname, _, ok := DecodeName(msg, absOffset+consumed)
		if !ok {
			return append([]byte(nil), raw...)
		}
		out := make([]byte, 0, len(mname)+1+len(rname)+1)
		out = append(out, mname...)
		out = append(out, 0)
		out = append(out, rname...)
		out = append(out, 0)
		return out

	default:
		out := make([]byte, len(raw))
		copy(out, raw)
		return out
	}
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
