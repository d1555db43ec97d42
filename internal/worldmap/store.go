package worldmap

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	du "github.com/ricochet2200/go-disk-usage/du"
	"github.com/sirupsen/logrus"
)

// MaxCachedTiles is the cache size at which loading a further level-2/3
// tile first evicts the least recently touched unmodified tile. Modified
// tiles are not written or evicted at this point; they stay resident
// until Flush writes them.
const MaxCachedTiles = 4000

// MinFreeBytesForWrite is the free-space floor checked before a tile write;
// below this the store refuses new writes rather than risk a short file
// on a full volume.
const MinFreeBytesForWrite = 64 * 1024 * 1024

type tileKey struct {
	level int
	grid  GridNum
}

type cachedTile struct {
	l2       *Level2
	l3       *Level3
	modified bool
	touched  time.Time
}

// Store owns the on-disk tiled bathymetry: the single level-1 grid plus a
// bounded in-memory cache of level-2/3 tiles. It replaces the original's
// file-scope mutable tables with an explicit, passed-around value per the
// "globals become per-agent state" design note.
type Store struct {
	root string
	l1   *Level1

	mu    sync.Mutex
	cache map[tileKey]*cachedTile

	log *logrus.Entry
}

// Open loads the level-1 grid from root and returns a ready Store. It does
// not eagerly load any level-2/3 tiles.
func Open(root string) (*Store, error) {
	l1, err := LoadLevel1(root)
	if err != nil {
		return nil, err
	}
	return &Store{
		root:  root,
		l1:    l1,
		cache: make(map[tileKey]*cachedTile),
		log:   logrus.WithField("component", "worldmap"),
	}, nil
}

// Level1 returns the resident level-1 grid.
func (s *Store) Level1() *Level1 { return s.l1 }

// Square returns the level-1 square at g.
func (s *Store) Square(g GridNum) L1Square { return s.l1.Grid[g.Index()] }

// Level3 returns the level-3 tile for g, loading it from disk (or
// allocating a fresh all-unknown tile) on first access, caching it
// in-memory thereafter. Matches load_or_create_level3.
func (s *Store) Level3(g GridNum) (*Level3, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tileKey{level: 3, grid: g}
	if t, ok := s.cache[key]; ok && t.l3 != nil {
		t.touched = time.Now()
		return t.l3, nil
	}
	tile, err := LoadLevel3(s.root, g)
	if err != nil {
		return nil, err
	}
	created := tile == nil
	if created {
		tile = &Level3{}
		for i := range tile.Grid {
			tile.Grid[i] = 255
		}
		sq := s.l1.Grid[g.Index()]
		sq.Flags |= FlagLevel3
		s.l1.Grid[g.Index()] = sq
	}
	s.evictIfFullLocked()
	s.cache[key] = &cachedTile{l3: tile, modified: created, touched: time.Now()}
	return tile, nil
}

// Level2 returns the level-2 tile for g if present, nil if the level-1
// square carries no level-2 flag.
func (s *Store) Level2(g GridNum) (*Level2, error) {
	if !s.l1.Grid[g.Index()].HasLevel2() {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tileKey{level: 2, grid: g}
	if t, ok := s.cache[key]; ok && t.l2 != nil {
		t.touched = time.Now()
		return t.l2, nil
	}
	tile, err := LoadLevel2(s.root, g)
	if err != nil {
		return nil, err
	}
	s.evictIfFullLocked()
	s.cache[key] = &cachedTile{l2: tile, touched: time.Now()}
	return tile, nil
}

// MarkLevel3Modified flags the tile so Flush writes it back.
func (s *Store) MarkLevel3Modified(g GridNum) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.cache[tileKey{level: 3, grid: g}]; ok {
		t.modified = true
	}
}

func (s *Store) evictIfFullLocked() {
	if len(s.cache) < MaxCachedTiles {
		return
	}
	var oldestKey tileKey
	var oldestTime time.Time
	first := true
	for k, t := range s.cache {
		if t.modified {
			continue
		}
		if first || t.touched.Before(oldestTime) {
			oldestKey, oldestTime = k, t.touched
			first = false
		}
	}
	if !first {
		s.log.WithField("tile", oldestKey).Debug("evicting unmodified tile from cache")
		delete(s.cache, oldestKey)
	}
}

// Flush writes every modified tile to disk: level-3 and level-2 tiles
// first, then the level-1 grid (which records which tiles exist), matching
// the write ordering in spec.md §4.1.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFreeSpace(); err != nil {
		return err
	}

	for k, t := range s.cache {
		if !t.modified {
			continue
		}
		switch k.level {
		case 3:
			if err := WriteLevel3(s.root, k.grid, t.l3); err != nil {
				return err
			}
		case 2:
			if err := WriteLevel2(s.root, k.grid, t.l2); err != nil {
				return err
			}
		}
		t.modified = false
	}
	return WriteLevel1(s.root, s.l1)
}

func (s *Store) checkFreeSpace() error {
	usage := du.NewDiskUsage(s.root)
	free := usage.Free()
	if free < MinFreeBytesForWrite {
		return fmt.Errorf("worldmap: only %s free under %s, need at least %s",
			humanize.Bytes(free), s.root, humanize.Bytes(MinFreeBytesForWrite))
	}
	return nil
}

// Level2TilePath returns the on-disk path of a level-2 tile.
func Level2TilePath(root string, g GridNum) string {
	row10 := (g.Y / 10) * 10
	return filepath.Join(root, Level2DirName, fmt.Sprintf("%d", row10),
		fmt.Sprintf("%d_%d.%s", g.X, g.Y, Level2FileExtension))
}

// Level3TilePath returns the on-disk path of a level-3 tile.
func Level3TilePath(root string, g GridNum) string {
	row10 := (g.Y / 10) * 10
	return filepath.Join(root, Level3DirName, fmt.Sprintf("%d", row10),
		fmt.Sprintf("%d_%d.%s", g.X, g.Y, Level3FileExtension))
}

// Level1Path returns the on-disk path of the single level-1 file.
func Level1Path(root string) string { return filepath.Join(root, Level1FileName) }

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
