package mbapframe

// Decoder accumulates bytes read off a TCP/TLS stream and yields complete
// ADUs as they become available. A single Decoder may straddle multiple
// reads and may also emit more than one ADU from a single Feed call when the
// peer pipelines responses back-to-back.
type Decoder struct {
	buf []byte
}

// Feed appends newly read bytes to the internal buffer.
func (d *Decoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// Next attempts to extract one complete ADU from the buffered bytes. It
// returns ok=false when more bytes are needed (the caller should Feed more
// and try again). A fatal framing error (invalid length or protocol id)
// means the stream can no longer be resynchronized and the connection
// should be closed.
func (d *Decoder) Next() (adu []byte, ok bool, err error) {
	if len(d.buf) < HeaderSize {
		return nil, false, nil
	}
	h, derr := DecodeHeader(d.buf)
	if derr != nil {
		return nil, false, derr
	}
	if verr := ValidateHeader(h); verr != nil {
		return nil, false, verr
	}
	total := HeaderSize + int(h.Length) - 1
	if len(d.buf) < total {
		return nil, false, nil
	}
	adu = make([]byte, total)
	copy(adu, d.buf[:total])
	d.buf = d.buf[total:]
	return adu, true, nil
}

// Pending reports whether bytes remain buffered that have not yet formed a
// complete ADU. Used at EOF to distinguish a clean close from a frame that
// was cut off mid-transmission.
func (d *Decoder) Pending() bool {
	return len(d.buf) > 0
}
