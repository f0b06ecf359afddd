package dictionary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/bastiangx/wordmask/internal/utils"
	"github.com/bastiangx/wordmask/pkg/index"
	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot file layout:
//
//	[4]byte  magic "WMSK"
//	uint16   format version, little endian
//	msgpack  envelope{codec, size, checksum, payload}
//
// payload is the zstd-compressed msgpack body and checksum is the xxhash64 of
// the payload bytes.
const (
	SnapshotExt     = ".wmx"
	snapshotVersion = uint16(1)
	headerSize      = 6
	codecZstd       = "zstd"

	// maxSnapshotBody bounds the decompressed body size accepted by Load.
	maxSnapshotBody = 1 << 31
)

var snapshotMagic = [4]byte{'W', 'M', 'S', 'K'}

type envelope struct {
	Codec    string `msgpack:"codec"`
	Size     int64  `msgpack:"size"`
	Checksum uint64 `msgpack:"sum"`
	Payload  []byte `msgpack:"payload"`
}

type snapshotBody struct {
	Created time.Time       `msgpack:"created"`
	Groups  []snapshotGroup `msgpack:"groups"`
}

// snapshotGroup stores bitmaps letter-major: Bitmaps[l*Length+p] is letter
// 'a'+l at position p, each in bitset's binary encoding.
type snapshotGroup struct {
	Length  int      `msgpack:"len"`
	Words   []string `msgpack:"words"`
	Bitmaps [][]byte `msgpack:"bitmaps"`
}

// SnapshotOptions controls how snapshots are written.
type SnapshotOptions struct {
	Level zstd.EncoderLevel
}

// DefaultSnapshotOptions returns the options used when none are given.
func DefaultSnapshotOptions() SnapshotOptions {
	return SnapshotOptions{Level: zstd.SpeedDefault}
}

// ParseCompressionLevel maps a level name (fastest, default, better, best) to
// a zstd level.
func ParseCompressionLevel(name string) (zstd.EncoderLevel, error) {
	ok, level := zstd.EncoderLevelFromString(name)
	if !ok {
		return zstd.SpeedDefault, fmt.Errorf("unknown compression level %q", name)
	}
	return level, nil
}

var zstdDecoderPool sync.Pool

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxSnapshotBody))
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Save writes a snapshot of x to w.
func Save(w io.Writer, x *index.Index, opts SnapshotOptions) error {
	body := snapshotBody{Created: time.Now().UTC()}
	for _, length := range x.Lengths() {
		g, _ := x.Group(length)
		sg := snapshotGroup{
			Length:  length,
			Words:   g.Words(),
			Bitmaps: make([][]byte, 0, index.Alphabet*length),
		}
		err := g.EachBitmap(func(letter rune, pos int, b *bitset.BitSet) error {
			data, err := b.MarshalBinary()
			if err != nil {
				return fmt.Errorf("failed to encode bitmap %c@%d of length %d: %w", letter, pos, length, err)
			}
			sg.Bitmaps = append(sg.Bitmaps, data)
			return nil
		})
		if err != nil {
			return err
		}
		body.Groups = append(body.Groups, sg)
	}
	return writeSnapshot(w, &body, opts)
}

func writeSnapshot(w io.Writer, body *snapshotBody, opts SnapshotOptions) error {
	raw, err := msgpack.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot body: %w", err)
	}

	level := opts.Level
	if level == 0 {
		level = zstd.SpeedDefault
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	payload := enc.EncodeAll(raw, make([]byte, 0, len(raw)/2))
	enc.Close()

	env, err := msgpack.Marshal(&envelope{
		Codec:    codecZstd,
		Size:     int64(len(raw)),
		Checksum: xxhash.Sum64(payload),
		Payload:  payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot envelope: %w", err)
	}

	header := make([]byte, headerSize)
	copy(header, snapshotMagic[:])
	binary.LittleEndian.PutUint16(header[4:], snapshotVersion)

	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(env); err != nil {
		return err
	}

	log.Debugf("Snapshot encoded: %d groups, %d bytes raw, %d bytes compressed",
		len(body.Groups), len(raw), len(payload))
	return nil
}

// Load reads a snapshot from r. Malformed or truncated data fails with an
// error wrapping index.ErrCorruptIndex; no partial index is ever returned.
// When verify is set every bitmap is also checked against its word list.
func Load(r io.Reader, verify bool) (*index.Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return decodeSnapshot(data, verify)
}

func parseHeader(header []byte) (uint16, error) {
	if len(header) < headerSize {
		return 0, fmt.Errorf("%w: snapshot header truncated (%d bytes)", index.ErrCorruptIndex, len(header))
	}
	if !bytes.Equal(header[:4], snapshotMagic[:]) {
		return 0, fmt.Errorf("%w: bad snapshot magic %q", index.ErrCorruptIndex, header[:4])
	}
	version := binary.LittleEndian.Uint16(header[4:headerSize])
	if version != snapshotVersion {
		return 0, fmt.Errorf("%w: unsupported snapshot version %d", index.ErrCorruptIndex, version)
	}
	return version, nil
}

func decodeSnapshot(data []byte, verify bool) (*index.Index, error) {
	if _, err := parseHeader(data); err != nil {
		return nil, err
	}

	var env envelope
	if err := decodeExact(data[headerSize:], &env); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", index.ErrCorruptIndex, err)
	}
	if env.Codec != codecZstd {
		return nil, fmt.Errorf("%w: unknown codec %q", index.ErrCorruptIndex, env.Codec)
	}
	if env.Size < 0 || env.Size > maxSnapshotBody {
		return nil, fmt.Errorf("%w: implausible body size %d", index.ErrCorruptIndex, env.Size)
	}
	if sum := xxhash.Sum64(env.Payload); sum != env.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch (have %016x, want %016x)", index.ErrCorruptIndex, sum, env.Checksum)
	}

	dec, err := getZstdDecoder()
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	// Size is only a hint until the payload has been decompressed.
	raw, err := dec.DecodeAll(env.Payload, make([]byte, 0, min(env.Size, 4*int64(len(env.Payload)))))
	putZstdDecoder(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", index.ErrCorruptIndex, err)
	}
	if int64(len(raw)) != env.Size {
		return nil, fmt.Errorf("%w: body is %d bytes, header says %d", index.ErrCorruptIndex, len(raw), env.Size)
	}

	var body snapshotBody
	if err := decodeExact(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: body: %v", index.ErrCorruptIndex, err)
	}

	groups := make([]*index.Group, 0, len(body.Groups))
	for _, sg := range body.Groups {
		g, err := decodeGroup(sg)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	x, err := index.Assemble(groups)
	if err != nil {
		return nil, err
	}
	if verify {
		if err := index.Validate(x); err != nil {
			return nil, err
		}
	}
	return x, nil
}

func decodeGroup(sg snapshotGroup) (*index.Group, error) {
	if sg.Length <= 0 {
		return nil, fmt.Errorf("%w: group length %d", index.ErrCorruptIndex, sg.Length)
	}
	if len(sg.Bitmaps) != index.Alphabet*sg.Length {
		return nil, fmt.Errorf("%w: length-%d group has %d bitmaps, want %d",
			index.ErrCorruptIndex, sg.Length, len(sg.Bitmaps), index.Alphabet*sg.Length)
	}

	var bitmaps [index.Alphabet][]*bitset.BitSet
	for l := range bitmaps {
		bitmaps[l] = make([]*bitset.BitSet, sg.Length)
		for p := range sg.Length {
			data := sg.Bitmaps[l*sg.Length+p]
			if err := checkBitmapEncoding(data, len(sg.Words)); err != nil {
				return nil, fmt.Errorf("%w: bitmap %c@%d of length %d: %v",
					index.ErrCorruptIndex, 'a'+l, p, sg.Length, err)
			}
			b := &bitset.BitSet{}
			if err := b.UnmarshalBinary(data); err != nil {
				return nil, fmt.Errorf("%w: bitmap %c@%d of length %d: %v",
					index.ErrCorruptIndex, 'a'+l, p, sg.Length, err)
			}
			bitmaps[l][p] = b
		}
	}
	return index.NewGroupFromBitmaps(sg.Length, sg.Words, bitmaps)
}

// decodeExact unmarshals data into v and fails when bytes are left over.
func decodeExact(data []byte, v any) error {
	r := bytes.NewReader(data)
	if err := msgpack.NewDecoder(r).Decode(v); err != nil {
		return err
	}
	if r.Len() > 0 {
		return fmt.Errorf("%d trailing bytes", r.Len())
	}
	return nil
}

// checkBitmapEncoding verifies the MarshalBinary layout of a bitmap for a
// group of n words: a big-endian uint64 bit width equal to n, followed by
// one uint64 per 64 bits. UnmarshalBinary allocates whatever width the
// prefix claims, so it must not see an unchecked prefix.
func checkBitmapEncoding(data []byte, n int) error {
	if len(data) < 8 {
		return fmt.Errorf("%d bytes, want at least 8", len(data))
	}
	if width := binary.BigEndian.Uint64(data[:8]); width != uint64(n) {
		return fmt.Errorf("width %d, want %d", width, n)
	}
	if want := 8 + 8*((n+63)/64); len(data) != want {
		return fmt.Errorf("%d bytes, want %d", len(data), want)
	}
	return nil
}

// SaveFile atomically writes a snapshot of x to path.
func SaveFile(path string, x *index.Index, opts SnapshotOptions) error {
	var buf bytes.Buffer
	if err := Save(&buf, x, opts); err != nil {
		return err
	}
	if err := utils.AtomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	log.Debugf("Snapshot written to %s (%d bytes)", path, buf.Len())
	return nil
}

// LoadFile reads the snapshot at path.
func LoadFile(path string, verify bool) (*index.Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer file.Close()

	x, err := Load(file, verify)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	log.Debugf("Snapshot loaded from %s: %d words in %d length groups", path, x.WordCount(), len(x.Lengths()))
	return x, nil
}
