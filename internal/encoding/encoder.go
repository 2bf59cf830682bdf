package encoding

import (
	"bytes"
	"encoding/json"
	"sync"
)

// maxPooledBuffer keeps oversized buffers out of the pool so one huge
// org scan does not pin a megabyte per pooled buffer.
const maxPooledBuffer = 1 << 20

var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// MarshalJSON encodes v using a pooled buffer. The scoring envelope is
// marshaled on every uncached request; pooling avoids re-growing the
// same multi-kilobyte buffer each time.
func MarshalJSON(v interface{}) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		if buf.Cap() <= maxPooledBuffer {
			buf.Reset()
			bufferPool.Put(buf)
		}
	}()

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	data := buf.Bytes()
	// Encode appends a newline; responses do not want it.
	if n := len(data); n > 0 && data[n-1] == '\n' {
		data = data[:n-1]
	}

	// The buffer is reused, hand out a copy.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// UnmarshalJSON decodes data into v.
func UnmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
