package worldmap

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/ancient-mariner/kharon/common"
)

const (
	l1RecordBytes = 8 // low:i16, high:i16, flags:u16, reserved:u16
)

// LoadLevel1 reads the single world-wide level-1 grid. A short read after a
// successful open is treated as storage corruption (fatal); a missing file
// is returned as a recoverable KharonError so callers can probe first.
func LoadLevel1(root string) (*Level1, error) {
	path := Level1Path(root)
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewError(common.CategoryConfigMissing, "worldmap.LoadLevel1", err)
	}
	defer f.Close()

	buf := make([]byte, NumLevel1Squares*l1RecordBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, common.NewError(common.CategoryTransientIO, "worldmap.LoadLevel1", err)
	}
	if n != len(buf) {
		common.FatalCorruption(path, len(buf), n)
	}

	l1 := &Level1{}
	for i := 0; i < NumLevel1Squares; i++ {
		off := i * l1RecordBytes
		l1.Grid[i] = L1Square{
			Low:      int16(binary.LittleEndian.Uint16(buf[off : off+2])),
			High:     int16(binary.LittleEndian.Uint16(buf[off+2 : off+4])),
			Flags:    binary.LittleEndian.Uint16(buf[off+4 : off+6]),
			Reserved: binary.LittleEndian.Uint16(buf[off+6 : off+8]),
		}
	}
	return l1, nil
}

// WriteLevel1 atomically replaces the level-1 file. Write failures are
// returned to the caller; the temp-file-and-rename write never leaves a
// partially written level-1 file that would misreport which level-2/3
// tiles exist.
func WriteLevel1(root string, l1 *Level1) error {
	path := Level1Path(root)
	buf := make([]byte, NumLevel1Squares*l1RecordBytes)
	for i := 0; i < NumLevel1Squares; i++ {
		off := i * l1RecordBytes
		sq := l1.Grid[i]
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(sq.Low))
		binary.LittleEndian.PutUint16(buf[off+2:off+4], uint16(sq.High))
		binary.LittleEndian.PutUint16(buf[off+4:off+6], sq.Flags)
		binary.LittleEndian.PutUint16(buf[off+6:off+8], sq.Reserved)
	}
	return atomicWrite(path, buf)
}

// LoadLevel2 reads a single 240x240 level-2 tile. Returns (nil, nil) if
// the tile file does not exist (the level-1 flag should have been checked
// by the caller already; a missing file with the flag set is corruption).
func LoadLevel2(root string, g GridNum) (*Level2, error) {
	path := Level2TilePath(root, g)
	buf, ok, err := readTile(path, Level2Size*Level2Size)
	if err != nil || !ok {
		return nil, err
	}
	t := &Level2{}
	copy(t.Grid[:], buf)
	return t, nil
}

// WriteLevel2 atomically replaces a level-2 tile file.
func WriteLevel2(root string, g GridNum, t *Level2) error {
	path := Level2TilePath(root, g)
	if err := ensureDir(path); err != nil {
		return err
	}
	return atomicWrite(path, t.Grid[:])
}

// LoadLevel3 reads a single 720x720 level-3 tile. Returns (nil, nil) if no
// tile file exists yet -- the caller (Store.Level3) creates an empty one
// and marks the level-1 flag, matching load_or_create_level3.
func LoadLevel3(root string, g GridNum) (*Level3, error) {
	path := Level3TilePath(root, g)
	buf, ok, err := readTile(path, Level3Size*Level3Size)
	if err != nil || !ok {
		return nil, err
	}
	t := &Level3{}
	copy(t.Grid[:], buf)
	return t, nil
}

// WriteLevel3 atomically replaces a level-3 tile file.
func WriteLevel3(root string, g GridNum, t *Level3) error {
	path := Level3TilePath(root, g)
	if err := ensureDir(path); err != nil {
		return err
	}
	return atomicWrite(path, t.Grid[:])
}

func readTile(path string, wantLen int) ([]byte, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, common.NewError(common.CategoryTransientIO, "worldmap.readTile", err)
	}
	defer f.Close()
	buf := make([]byte, wantLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, false, common.NewError(common.CategoryTransientIO, "worldmap.readTile", err)
	}
	if n != wantLen {
		common.FatalCorruption(path, wantLen, n)
	}
	return buf, true, nil
}

// atomicWrite writes buf to a temp file alongside path and renames it into
// place, so a crash mid-write never leaves a short, corrupt tile file.
func atomicWrite(path string, buf []byte) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
