package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/OCharnyshevich/voxel-engine/internal/engine/world"
	"github.com/OCharnyshevich/voxel-engine/pkg/gamedata"
	"github.com/OCharnyshevich/voxel-engine/pkg/world/voxel"
)

// ChunkVersion is the chunk file format written by Encode.
const ChunkVersion = 1

var chunkMagic = [4]byte{'V', 'X', 'C', 'H'}

// Section tags. A file is the magic, a version, a run of sections ending
// with sectionEnd, then an xxhash64 of everything before it.
const (
	sectionEnd    byte = 0
	sectionCoord  byte = 1
	sectionDims   byte = 2
	sectionVoxels byte = 3
)

// bytesPerVoxel is id, light and orientation.
const bytesPerVoxel = 3

var (
	// ErrCorrupt is returned for chunk files that fail validation.
	ErrCorrupt = errors.New("corrupt chunk file")
	// ErrVersion is returned for chunk files written by a newer format.
	ErrVersion = errors.New("unsupported chunk file version")
)

// Writer writes chunk file fields in big-endian order. Write methods record
// the first error; check Err when done.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter creates a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first error encountered during writing.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) write(data []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(data)
}

func (w *Writer) putByte(v byte) {
	w.write([]byte{v})
}

func (w *Writer) putUint16(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	w.write(buf[:])
}

func (w *Writer) putUint32(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	w.write(buf[:])
}

func (w *Writer) putUint64(v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	w.write(buf[:])
}

// Section writes one tagged, length-prefixed section.
func (w *Writer) Section(tag byte, payload []byte) {
	w.putByte(tag)
	w.putUint32(uint32(len(payload)))
	w.write(payload)
}

// Reader is the counterpart of Writer over an in-memory file.
type Reader struct {
	r   *bytes.Reader
	err error
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{r: bytes.NewReader(data)}
}

// Err returns the first error encountered during reading.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) read(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > r.r.Len() {
		r.err = fmt.Errorf("%w: need %d bytes, have %d", ErrCorrupt, n, r.r.Len())
		return nil
	}
	buf := make([]byte, n)
	_, r.err = io.ReadFull(r.r, buf)
	return buf
}

func (r *Reader) readByte() byte {
	b := r.read(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) readUint16() uint16 {
	b := r.read(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *Reader) readUint32() uint32 {
	b := r.read(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// Section reads the next section. It returns sectionEnd at the terminator.
func (r *Reader) Section() (byte, []byte) {
	tag := r.readByte()
	if r.err != nil || tag == sectionEnd {
		return sectionEnd, nil
	}
	return tag, r.read(int(r.readUint32()))
}

// Encode serializes c into the chunk file format.
func Encode(c *world.ChunkData) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.write(chunkMagic[:])
	w.putUint16(ChunkVersion)

	var coord [8]byte
	binary.BigEndian.PutUint32(coord[0:], uint32(int32(c.Coord.X)))
	binary.BigEndian.PutUint32(coord[4:], uint32(int32(c.Coord.Z)))
	w.Section(sectionCoord, coord[:])

	var dims [4]byte
	binary.BigEndian.PutUint16(dims[0:], uint16(c.Width()))
	binary.BigEndian.PutUint16(dims[2:], uint16(c.Height()))
	w.Section(sectionDims, dims[:])

	voxels := c.Snapshot()
	payload := make([]byte, 0, len(voxels)*bytesPerVoxel)
	for _, v := range voxels {
		payload = append(payload, byte(v.ID), v.Light, byte(v.Orientation))
	}
	w.Section(sectionVoxels, payload)
	w.putByte(sectionEnd)

	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("encode chunk %s: %w", c.Coord, err)
	}
	w.putUint64(xxhash.Sum64(buf.Bytes()))
	return buf.Bytes(), w.Err()
}

// Decode parses a chunk file and checks it against the expected
// dimensions. Unknown sections are skipped.
func Decode(data []byte, width, height int) (*world.ChunkData, error) {
	if len(data) < len(chunkMagic)+2+1+8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorrupt, len(data))
	}
	body, trailer := data[:len(data)-8], data[len(data)-8:]
	if sum := xxhash.Sum64(body); sum != binary.BigEndian.Uint64(trailer) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	r := NewReader(body)
	if magic := r.read(len(chunkMagic)); !bytes.Equal(magic, chunkMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if v := r.readUint16(); v == 0 || v > ChunkVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, v)
	}

	var (
		coord             world.ChunkCoord
		w, h              int
		voxels            []byte
		haveCoord, haveWH bool
	)
	for {
		tag, payload := r.Section()
		if r.Err() != nil {
			return nil, r.Err()
		}
		if tag == sectionEnd {
			break
		}
		switch tag {
		case sectionCoord:
			if len(payload) != 8 {
				return nil, fmt.Errorf("%w: coord section is %d bytes", ErrCorrupt, len(payload))
			}
			coord.X = int(int32(binary.BigEndian.Uint32(payload[0:])))
			coord.Z = int(int32(binary.BigEndian.Uint32(payload[4:])))
			haveCoord = true
		case sectionDims:
			if len(payload) != 4 {
				return nil, fmt.Errorf("%w: dims section is %d bytes", ErrCorrupt, len(payload))
			}
			w = int(binary.BigEndian.Uint16(payload[0:]))
			h = int(binary.BigEndian.Uint16(payload[2:]))
			haveWH = true
		case sectionVoxels:
			voxels = payload
		}
	}

	switch {
	case !haveCoord || !haveWH || voxels == nil:
		return nil, fmt.Errorf("%w: missing section", ErrCorrupt)
	case w != width || h != height:
		return nil, fmt.Errorf("%w: chunk is %dx%d, want %dx%d", ErrCorrupt, w, h, width, height)
	case len(voxels) != w*w*h*bytesPerVoxel:
		return nil, fmt.Errorf("%w: %d voxel bytes for %dx%d", ErrCorrupt, len(voxels), w, h)
	}

	states := make([]world.VoxelState, w*w*h)
	for i := range states {
		b := voxels[i*bytesPerVoxel:]
		v := world.VoxelState{ID: gamedata.BlockID(b[0]), Light: b[1], Orientation: voxel.Orientation(b[2])}
		if v.Light > world.MaxLight || !v.Orientation.Valid() {
			return nil, fmt.Errorf("%w: voxel %d out of range", ErrCorrupt, i)
		}
		states[i] = v
	}

	c := world.NewChunkData(coord, w, h)
	c.Restore(states)
	return c, nil
}
