package audio

// Chunker regroups an arbitrary stream of samples into fixed-size chunks.
type Chunker struct {
	size    int
	pending []float32
}

// NewChunker returns a chunker emitting chunks of size samples.
func NewChunker(size int) *Chunker {
	if size <= 0 {
		size = 1
	}
	return &Chunker{size: size, pending: make([]float32, 0, size)}
}

// Push appends samples and returns every complete chunk now available.
func (c *Chunker) Push(samples []float32) [][]float32 {
	var chunks [][]float32
	for len(samples) > 0 {
		n := c.size - len(c.pending)
		if n > len(samples) {
			n = len(samples)
		}
		c.pending = append(c.pending, samples[:n]...)
		samples = samples[n:]
		if len(c.pending) == c.size {
			chunks = append(chunks, c.pending)
			c.pending = make([]float32, 0, c.size)
		}
	}
	return chunks
}

// Flush returns the partial chunk, if any, and resets the chunker.
func (c *Chunker) Flush() []float32 {
	if len(c.pending) == 0 {
		return nil
	}
	out := c.pending
	c.pending = make([]float32, 0, c.size)
	return out
}

func (c *Chunker) Pending() int { return len(c.pending) }

func (c *Chunker) Size() int { return c.size }
