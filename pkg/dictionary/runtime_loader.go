package dictionary

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bastiangx/wordmask/pkg/index"
	"github.com/charmbracelet/log"
)

// Source produces a complete index, for example by reading a snapshot or
// building from word lists.
type Source func() (*index.Index, error)

// SnapshotSource loads the snapshot at path.
func SnapshotSource(path string, verify bool) Source {
	return func() (*index.Index, error) {
		return LoadFile(path, verify)
	}
}

// WordListSource builds an index from word-list paths or globs.
func WordListSource(sources ...string) Source {
	return func() (*index.Index, error) {
		idx, _, err := NewLoader(sources...).Build()
		return idx, err
	}
}

// RuntimeLoader owns the index currently served to queries. A new index is
// published only once its source has fully produced it, so readers never
// observe a partially built index. A failed reload keeps the previous one.
type RuntimeLoader struct {
	source     Source
	current    atomic.Pointer[index.Index]
	generation atomic.Uint64
	mu         sync.Mutex
	onPublish  []func(gen uint64)
}

// NewRuntimeLoader creates a loader that reads from source.
func NewRuntimeLoader(source Source) *RuntimeLoader {
	return &RuntimeLoader{source: source}
}

// Load produces an index from the source and publishes it.
func (rl *RuntimeLoader) Load() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.source == nil {
		return fmt.Errorf("no index source configured")
	}

	start := time.Now()
	x, err := rl.source()
	if err != nil {
		log.Warnf("Index load failed, keeping generation %d: %v", rl.generation.Load(), err)
		return err
	}
	gen := rl.publishLocked(x)
	log.Debugf("Published index generation %d (%d words) in %v", gen, x.WordCount(), time.Since(start))
	return nil
}

// Reload is Load under the name used by the server.
func (rl *RuntimeLoader) Reload() error {
	return rl.Load()
}

// Publish makes x the current index. x must not be nil.
func (rl *RuntimeLoader) Publish(x *index.Index) uint64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.publishLocked(x)
}

func (rl *RuntimeLoader) publishLocked(x *index.Index) uint64 {
	rl.current.Store(x)
	gen := rl.generation.Add(1)
	for _, fn := range rl.onPublish {
		fn(gen)
	}
	return gen
}

// OnPublish registers fn to run after every publication. Callbacks run with
// the loader's reload lock held and must not call Load or Publish.
func (rl *RuntimeLoader) OnPublish(fn func(gen uint64)) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.onPublish = append(rl.onPublish, fn)
}

// Current returns the published index, or nil before the first load.
func (rl *RuntimeLoader) Current() *index.Index {
	return rl.current.Load()
}

// Generation counts publications; zero means nothing has been published.
func (rl *RuntimeLoader) Generation() uint64 {
	return rl.generation.Load()
}

// LengthInfo summarizes one length group.
type LengthInfo struct {
	Length int `json:"length" msgpack:"n"`
	Words  int `json:"words" msgpack:"c"`
}

// GetLengthInfo lists the length groups of the current index.
func (rl *RuntimeLoader) GetLengthInfo() []LengthInfo {
	x := rl.Current()
	if x == nil {
		return nil
	}
	lengths := x.Lengths()
	infos := make([]LengthInfo, 0, len(lengths))
	for _, l := range lengths {
		g, _ := x.Group(l)
		infos = append(infos, LengthInfo{Length: l, Words: g.Len()})
	}
	return infos
}
