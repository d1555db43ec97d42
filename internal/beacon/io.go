package beacon

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/ancient-mariner/kharon/common"
)

// LoadRecords reads the flat, array-packed beacons.bin file. A short read
// after a successful open is treated as storage corruption (§7 category
// 1); a missing file is a recoverable KharonError.
func LoadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewError(common.CategoryConfigMissing, "beacon.LoadRecords", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, common.NewError(common.CategoryTransientIO, "beacon.LoadRecords", err)
	}
	n := int(st.Size() / RecordSizeBytes)
	if st.Size()%RecordSizeBytes != 0 {
		common.FatalCorruption(path, n*RecordSizeBytes, int(st.Size()))
	}
	buf := make([]byte, st.Size())
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, common.NewError(common.CategoryTransientIO, "beacon.LoadRecords", err)
	}
	if read != len(buf) {
		common.FatalCorruption(path, len(buf), read)
	}

	recs := make([]Record, n)
	for i := 0; i < n; i++ {
		recs[i] = decodeRecord(buf[i*RecordSizeBytes : (i+1)*RecordSizeBytes])
	}
	return recs, nil
}

func decodeRecord(b []byte) Record {
	var r Record
	r.AknX = float32FromBits(binary.LittleEndian.Uint32(b[0:4]))
	r.AknY = float32FromBits(binary.LittleEndian.Uint32(b[4:8]))
	r.NumNeighbors = int32(binary.LittleEndian.Uint32(b[8:12]))
	r.Index = binary.LittleEndian.Uint32(b[12:16])
	off := 16
	for i := 0; i < MaxNeighbors; i++ {
		r.Neighbors[i].NbrIndex = binary.LittleEndian.Uint32(b[off : off+4])
		r.Neighbors[i].PathWeight = float32FromBits(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		off += 8
	}
	return r
}

func encodeRecord(r Record, b []byte) {
	binary.LittleEndian.PutUint32(b[0:4], bitsFromFloat32(r.AknX))
	binary.LittleEndian.PutUint32(b[4:8], bitsFromFloat32(r.AknY))
	binary.LittleEndian.PutUint32(b[8:12], uint32(r.NumNeighbors))
	binary.LittleEndian.PutUint32(b[12:16], r.Index)
	off := 16
	for i := 0; i < MaxNeighbors; i++ {
		binary.LittleEndian.PutUint32(b[off:off+4], r.Neighbors[i].NbrIndex)
		binary.LittleEndian.PutUint32(b[off+4:off+8], bitsFromFloat32(r.Neighbors[i].PathWeight))
		off += 8
	}
}

// SaveRecords atomically rewrites the whole beacons.bin file. The offline
// association job calls this once all rows in a contiguous range are
// done, and again on SIGINT/SIGUSR1 as a partial dump (spec.md §4.4, §5).
func SaveRecords(path string, recs []Record) error {
	buf := make([]byte, len(recs)*RecordSizeBytes)
	for i, r := range recs {
		encodeRecord(r, buf[i*RecordSizeBytes:(i+1)*RecordSizeBytes])
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return common.NewError(common.CategoryTransientIO, "beacon.SaveRecords", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return common.NewError(common.CategoryTransientIO, "beacon.SaveRecords", err)
	}
	return nil
}

// LoadIndex reads the fixed 180-row beacons.idx file.
func LoadIndex(path string) ([NumIndexRows]IndexEntry, error) {
	var idx [NumIndexRows]IndexEntry
	f, err := os.Open(path)
	if err != nil {
		return idx, common.NewError(common.CategoryConfigMissing, "beacon.LoadIndex", err)
	}
	defer f.Close()

	buf := make([]byte, NumIndexRows*IndexRecordSizeBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return idx, common.NewError(common.CategoryTransientIO, "beacon.LoadIndex", err)
	}
	if n != len(buf) {
		common.FatalCorruption(path, len(buf), n)
	}
	for i := 0; i < NumIndexRows; i++ {
		off := i * IndexRecordSizeBytes
		idx[i] = IndexEntry{
			OffsetToFirst: binary.LittleEndian.Uint32(buf[off : off+4]),
			Count:         binary.LittleEndian.Uint32(buf[off+4 : off+8]),
		}
	}
	return idx, nil
}

// BuildIndex computes the per-row offset/count index from a beacon slice
// that is sorted by integer AKN latitude row, matching the relationship
// beacons.idx is meant to describe.
func BuildIndex(recs []Record) [NumIndexRows]IndexEntry {
	var idx [NumIndexRows]IndexEntry
	for i, r := range recs {
		row := int(r.AknY)
		if row < 0 || row >= NumIndexRows {
			continue
		}
		if idx[row].Count == 0 {
			idx[row].OffsetToFirst = uint32(i)
		}
		idx[row].Count++
	}
	return idx
}

// SaveIndex atomically rewrites beacons.idx.
func SaveIndex(path string, idx [NumIndexRows]IndexEntry) error {
	buf := make([]byte, NumIndexRows*IndexRecordSizeBytes)
	for i, e := range idx {
		off := i * IndexRecordSizeBytes
		binary.LittleEndian.PutUint32(buf[off:off+4], e.OffsetToFirst)
		binary.LittleEndian.PutUint32(buf[off+4:off+8], e.Count)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return common.NewError(common.CategoryTransientIO, "beacon.SaveIndex", err)
	}
	return os.Rename(tmp, path)
}
