package yardstick

import "encoding/binary"

// encodeCommand builds an EP5 command: app(1) + cmd(1) + length(2 LE) + payload.
func encodeCommand(app, cmd uint8, payload []byte) []byte {
	packet := make([]byte, 4+len(payload))
	packet[0] = app
	packet[1] = cmd
	binary.LittleEndian.PutUint16(packet[2:4], uint16(len(payload)))
	copy(packet[4:], payload)
	return packet
}

// parseFrame looks for one complete response for (app, cmd) at the start of
// buf. Responses are '@' + app + cmd + length(2 LE) + payload. Bytes before
// the marker are noise and are skipped.
//
// rest is what the caller should keep buffering:
//   - on success, the bytes after the frame;
//   - on errIncomplete, buf from the marker on;
//   - on errMismatch, the bytes after the foreign frame;
//   - on errNoMarker, nothing.
func parseFrame(buf []byte, app, cmd uint8) (payload, rest []byte, err error) {
	i := 0
	for i < len(buf) && buf[i] != ResponseMarker {
		i++
	}
	if i == len(buf) {
		return nil, nil, errNoMarker
	}
	data := buf[i:]

	if len(data) < headerLen {
		return nil, data, errIncomplete
	}
	length := int(binary.LittleEndian.Uint16(data[3:5]))
	total := headerLen + length
	if len(data) < total {
		return nil, data, errIncomplete
	}

	if data[1] != app || data[2] != cmd {
		return nil, data[total:], errMismatch
	}

	payload = make([]byte, length)
	copy(payload, data[headerLen:total])
	return payload, data[total:], nil
}
