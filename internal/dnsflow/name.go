package dnsflow

// maxNameOutput is the maximum decoded name length including the
// implicit terminator.
const maxNameOutput = 256

// maxPointerJumps bounds the number of compression-pointer chases a
// single name decode may perform. A pure step-counter without a
// monotone-decreasing requirement on pointer targets still admits
// quadratic blowup across many names in one message, so both defenses
// are applied together here.
const maxPointerJumps = 256

// DecodeName decodes a domain name starting at offset within msg into
// its canonical dotted form (no trailing dot, each label separator a
// literal '.', the leading label unprefixed).
//
// It returns the decoded name and the number of bytes consumed from msg
// at the top-level name position — pointer chases never advance this
// past the position right after the pointer itself — and true on
// success. On failure it returns ("", 0, false); the cursor is not
// advanced and no MalformedData handling happens here, that is the
// caller's job (every caller already has a state to raise the event on).
func DecodeName(msg []byte, offset int) (string, int, bool) {
	if offset < 0 || offset > len(msg) {
		return "", 0, false
	}

	var labels []string
	outLen := 0 // tracks the 256-octet cap, label bytes + separators + terminator
	cursor := offset
	topLevelConsumed := -1 // set once, the first time we know how far the top-level cursor moved
	jumps := 0

	for {
		if cursor >= len(msg) {
			return "", 0, false
		}

		lengthByte := msg[cursor]
		tag := lengthByte & 0xC0

		switch tag {
		case 0x00: // literal label, 1-63 octets
			labelLen := int(lengthByte)
			if labelLen == 0 {
				// empty / root label: end of name
				if topLevelConsumed == -1 {
					topLevelConsumed = cursor + 1 - offset
				}
				return joinLabels(labels), topLevelConsumed, true
			}
			if cursor+1+labelLen > len(msg) {
				return "", 0, false
			}
			outLen += labelLen
			if len(labels) > 0 {
				outLen++ // separator dot
			}
			if outLen+1 > maxNameOutput { // +1 for the implicit terminator
				return "", 0, false
			}
			labels = append(labels, string(msg[cursor+1:cursor+1+labelLen]))
			cursor += 1 + labelLen

		case 0xC0: // compression pointer
			if cursor+2 > len(msg) {
				return "", 0, false
			}
			ptr := int(lengthByte&0x3F)<<8 | int(msg[cursor+1])

			if topLevelConsumed == -1 {
				topLevelConsumed = cursor + 2 - offset
			}

			// Pointers must strictly decrease: this rejects forward and
			// self-referential pointers unconditionally, even though the
			// RFC is silent on it.
			if ptr >= cursor {
				return "", 0, false
			}

			jumps++
			if jumps > maxPointerJumps {
				return "", 0, false
			}
			cursor = ptr

		default: // 0x40 / 0x80: reserved label types
			return "", 0, false
		}
	}
}

func joinLabels(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	n := len(labels) - 1 // separators
	for _, l := range labels {
		n += len(l)
	}
	buf := make([]byte, 0, n)
	for i, l := range labels {
		if i > 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, l...)
	}
	return string(buf)
}
