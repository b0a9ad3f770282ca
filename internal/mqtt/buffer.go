package mqtt

import "log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO holding messages queued while the
// broker connection is down. Not safe for concurrent use; the caller
// synchronizes.
type ringBuffer struct {
	buf      []bufferedMsg
	head     int // oldest element
	count    int
	overflow bool // a message was dropped since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{buf: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	if r.count == len(r.buf) {
		if !r.overflow {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest", len(r.buf))
			r.overflow = true
		}
		r.buf[r.head] = msg
		r.head = (r.head + 1) % len(r.buf)
		return
	}
	r.buf[(r.head+r.count)%len(r.buf)] = msg
	r.count++
}

func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}

	result := make([]bufferedMsg, r.count)
	for i := range result {
		result[i] = r.buf[(r.head+i)%len(r.buf)]
	}

	r.head = 0
	r.count = 0
	r.overflow = false
	return result
}

func (r *ringBuffer) len() int {
	return r.count
}
