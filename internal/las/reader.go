package las

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Reader decodes point records from a LAS file one at a time. It is a lazy,
// non-restartable sequence: the first decode failure is terminal and is
// returned again by every subsequent call.
type Reader struct {
	header *Header

	src    io.Reader
	closer io.Closer

	rec  []byte // scratch, one record
	read uint64 // records decoded so far
	err  error  // sticky
}

// Open opens a LAS file and decodes its header. The returned Reader must be
// closed by the caller.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("las: %w", err)
	}
	r, err := NewReader(bufio.NewReaderSize(f, 1<<20))
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader decodes a LAS stream from src. Ownership of src stays with the
// caller; Close is a no-op for readers created this way.
func NewReader(src io.Reader) (*Reader, error) {
	head := make([]byte, headerSizeMin)
	if _, err := io.ReadFull(src, head); err != nil {
		return nil, fmt.Errorf("las: reading header: %w", err)
	}
	if string(head[signatureOffset:signatureOffset+4]) != "LASF" {
		return nil, fmt.Errorf("las: bad file signature %q", head[signatureOffset:signatureOffset+4])
	}

	// Headers past LAS 1.2 are longer than the 227-byte minimum; the declared
	// size field sits inside the minimum, so extend once it is known.
	if declared := binary.LittleEndian.Uint16(head[headerSizeField:]); int(declared) > headerSizeMin {
		rest := make([]byte, int(declared)-headerSizeMin)
		if _, err := io.ReadFull(src, rest); err != nil {
			return nil, fmt.Errorf("las: reading extended header: %w", err)
		}
		head = append(head, rest...)
	}

	h, err := parseHeader(head)
	if err != nil {
		return nil, err
	}

	// Skip any VLRs between the header and the first point record.
	if skip := int64(h.OffsetToData) - int64(len(head)); skip > 0 {
		if _, err := io.CopyN(io.Discard, src, skip); err != nil {
			return nil, fmt.Errorf("las: skipping to point data: %w", err)
		}
	}

	return &Reader{
		header: h,
		src:    src,
		rec:    make([]byte, h.RecordLength),
	}, nil
}

// Header returns the decoded public header block.
func (r *Reader) Header() *Header { return r.header }

// Next decodes and returns the next point record. It returns io.EOF after the
// declared number of records has been read. Any other error is a fatal decode
// failure.
func (r *Reader) Next() (Point, error) {
	if r.err != nil {
		return Point{}, r.err
	}
	if r.read >= r.header.NumPoints {
		r.err = io.EOF
		return Point{}, io.EOF
	}
	if _, err := io.ReadFull(r.src, r.rec); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = fmt.Errorf("las: file truncated at point %d of %d", r.read, r.header.NumPoints)
		} else {
			err = fmt.Errorf("las: reading point %d: %w", r.read, err)
		}
		r.err = err
		return Point{}, err
	}
	r.read++
	return r.header.decodePoint(r.rec), nil
}

// ReadAll decodes every remaining record. The slice is pre-sized from the
// header's declared count.
func (r *Reader) ReadAll() ([]Point, error) {
	pts := make([]Point, 0, r.header.NumPoints-r.read)
	for {
		p, err := r.Next()
		if err == io.EOF {
			return pts, nil
		}
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
}

// Close releases the underlying file, if the Reader owns one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
