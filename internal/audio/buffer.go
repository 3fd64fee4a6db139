package audio

// byteRing is a fixed-capacity FIFO of bytes. It is owned by one
// FrameAssembler and is not safe for concurrent use.
type byteRing struct {
	buf  []byte
	head int // next byte to read
	n    int // bytes stored
}

func newByteRing(capacity int) *byteRing {
	return &byteRing{buf: make([]byte, capacity)}
}

// write stores as much of p as fits and returns the count
func (r *byteRing) write(p []byte) int {
	if free := len(r.buf) - r.n; len(p) > free {
		p = p[:free]
	}
	tail := (r.head + r.n) % len(r.buf)
	c := copy(r.buf[tail:], p)
	c += copy(r.buf, p[c:])
	r.n += c
	return c
}

// read fills p from the front of the ring and returns the count
func (r *byteRing) read(p []byte) int {
	if len(p) > r.n {
		p = p[:r.n]
	}
	c := copy(p, r.buf[r.head:])
	if c < len(p) {
		c += copy(p[c:], r.buf)
	}
	r.head = (r.head + c) % len(r.buf)
	r.n -= c
	return c
}

func (r *byteRing) len() int {
	return r.n
}

func (r *byteRing) reset() {
	r.head, r.n = 0, 0
}

// FrameAssembler cuts an arbitrary-sized PCM16 byte stream into fixed
// analysis frames. Hosts are free to send voice payloads of any length;
// loudness is always measured over frameSamples-sized windows.
type FrameAssembler struct {
	ring       *byteRing
	frameBytes int
	maxFrames  int
	scratch    []byte
}

// NewFrameAssembler creates an assembler emitting frames of frameSamples
// 16-bit samples. At most maxFrames frames are returned per Push; the
// newest are kept.
func NewFrameAssembler(frameSamples, maxFrames int) *FrameAssembler {
	if frameSamples <= 0 {
		frameSamples = 960 // 20ms at 48kHz
	}
	if maxFrames < 1 {
		maxFrames = 1
	}
	frameBytes := frameSamples * 2
	return &FrameAssembler{
		ring:       newByteRing(frameBytes),
		frameBytes: frameBytes,
		maxFrames:  maxFrames,
		scratch:    make([]byte, frameBytes),
	}
}

// Push appends payload and returns the complete frames now available.
// dropped counts the bytes of older frames skipped to honor the frame cap.
func (f *FrameAssembler) Push(payload []byte) (frames [][]int16, dropped int) {
	for len(payload) > 0 {
		n := f.ring.write(payload)
		payload = payload[n:]

		if f.ring.len() == f.frameBytes {
			f.ring.read(f.scratch)
			// frameBytes is even, so the conversion cannot fail
			samples, _ := BytesToPCM(f.scratch)
			frames = append(frames, samples)
		}
	}

	if extra := len(frames) - f.maxFrames; extra > 0 {
		dropped = extra * f.frameBytes
		frames = frames[extra:]
	}
	return frames, dropped
}

// Pending returns the number of buffered bytes not yet forming a full frame
func (f *FrameAssembler) Pending() int {
	return f.ring.len()
}

// Reset discards any partial frame
func (f *FrameAssembler) Reset() {
	f.ring.reset()
}
