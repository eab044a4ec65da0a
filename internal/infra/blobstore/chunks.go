package blobstore

import (
	"context"
	"io"
)

// DefaultChunkSize matches the chunk size GridFS uses.
const DefaultChunkSize = 255 * 1024

// writeChunks splits r into chunkSize pieces and hands each one to put in
// order. It returns the total byte count and the number of chunks written.
func writeChunks(ctx context.Context, r io.Reader, chunkSize int, put func(seq int, data []byte) error) (int64, int, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	var (
		size  int64
		count int
	)
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return size, count, err
		}
		n, readErr := fill(r, buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if err := put(count, chunk); err != nil {
				return size, count, err
			}
			count++
			size += int64(n)
		}
		if readErr == io.EOF {
			return size, count, nil
		}
		if readErr != nil {
			return size, count, readErr
		}
	}
}

// fill reads until buf is full or r fails. Unlike io.ReadFull it passes
// through every non-EOF error untouched.
func fill(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// chunkReader reassembles a chunked object by fetching one chunk at a time.
type chunkReader struct {
	ctx   context.Context
	fetch func(ctx context.Context, seq int) ([]byte, error)
	count int
	seq   int
	cur   []byte
}

func (r *chunkReader) Read(p []byte) (int, error) {
	for len(r.cur) == 0 {
		if r.seq >= r.count {
			return 0, io.EOF
		}
		data, err := r.fetch(r.ctx, r.seq)
		if err != nil {
			return 0, err
		}
		r.seq++
		r.cur = data
	}
	n := copy(p, r.cur)
	r.cur = r.cur[n:]
	return n, nil
}

func (r *chunkReader) Close() error {
	r.cur = nil
	r.seq = r.count
	return nil
}
