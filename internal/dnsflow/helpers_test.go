package dnsflow

func be16put(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }

// rawHeader builds a 12-octet DNS header with the given field values.
func rawHeader(id uint16, qr bool, opcode uint8, rd, ra bool, z uint8, rcode uint8, qd, an, ns, ar uint16) []byte {
	var flags uint16
	if qr {
		flags |= 0x8000
	}
	flags |= uint16(opcode&0x0F) << 11
	if rd {
		flags |= 0x0100
	}
	if ra {
		flags |= 0x0080
	}
	flags |= uint16(z&0x07) << 4
	flags |= uint16(rcode & 0x0F)

	out := append([]byte{}, be16put(id)...)
	out = append(out, be16put(flags)...)
	out = append(out, be16put(qd)...)
	out = append(out, be16put(an)...)
	out = append(out, be16put(ns)...)
	out = append(out, be16put(ar)...)
	return out
}

func simpleQuery(id uint16, rd bool) []byte {
	msg := rawHeader(id, false, 0, rd, false, 0, 0, 1, 0, 0, 0)
	msg = append(msg, buildName("example", "com")...)
	msg = append(msg, 0x00, byte(TypeA), 0x00, 0x01)
	return msg
}

func simpleResponse(id uint16, rcode uint8, ra bool) []byte {
	msg := rawHeader(id, true, 0, true, ra, 0, rcode, 1, 1, 0, 0)
	msg = append(msg, buildName("example", "com")...)
	msg = append(msg, 0x00, byte(TypeA), 0x00, 0x01)

	msg = append(msg, 0xC0, 0x0C) // pointer to question name at offset 12
	msg = append(msg, 0x00, byte(TypeA), 0x00, 0x01)
	msg = append(msg, 0x00, 0x00, 0x00, 0x3C)
	msg = append(msg, 0x00, 0x04)
	msg = append(msg, 192, 0, 2, 1)
	return msg
}
