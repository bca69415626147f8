package engine

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// gcLogMagic identifies a deallocation log file.
var gcLogMagic = [4]byte{'C', 'G', 'C', 'L'}

const gcLogHeaderSize = 16

// Record layout: [LSN:uint64][PathLen:uint32][Path:bytes][CRC32:uint32],
// adapted from the teacher's WAL record framing
// ([LSN][Type][PageID][DataLen][Data][CRC32]) with the page-write fields
// replaced by a retired file path; there is no redo/undo or commit marker
// here, since crash recovery beyond atomic page writes is out of scope.
const gcLogRecordHeaderSize = 8 + 4
const gcLogRecordCRCSize = 4

// gcLog is a durable, append-only ledger of page file paths retired by a
// completed merge. Entries accumulate until Drain is called (normally once,
// from Table.Close), since deleting old base-page generations during
// normal operation is deferred and may never happen otherwise.
type gcLog struct {
	mu      sync.Mutex
	file    *os.File
	nextLSN uint64
}

func gcLogPath(root, name string) string {
	return filepath.Join(tableDir(root, name), "gc.log")
}

// openGCLog opens or creates the deallocation log for a table.
func openGCLog(path string) (*gcLog, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("engine: open gc log: %w", err)
	}
	g := &gcLog{file: f, nextLSN: 1}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		if err := g.writeHeader(); err != nil {
			f.Close()
			return nil, err
		}
	} else if err := g.readHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return g, nil
}

func (g *gcLog) writeHeader() error {
	hdr := make([]byte, gcLogHeaderSize)
	copy(hdr[0:4], gcLogMagic[:])
	binary.LittleEndian.PutUint32(hdr[4:8], 1)
	if _, err := g.file.WriteAt(hdr, 0); err != nil {
		return err
	}
	return g.file.Sync()
}

func (g *gcLog) readHeader() error {
	hdr := make([]byte, gcLogHeaderSize)
	if _, err := io.ReadFull(io.NewSectionReader(g.file, 0, gcLogHeaderSize), hdr); err != nil {
		return fmt.Errorf("engine: read gc log header: %w", err)
	}
	if string(hdr[0:4]) != string(gcLogMagic[:]) {
		return fmt.Errorf("engine: gc log has an invalid header")
	}
	return nil
}

// Append durably records that path was retired.
func (g *gcLog) Append(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	body := []byte(path)
	rec := make([]byte, gcLogRecordHeaderSize+len(body)+gcLogRecordCRCSize)
	binary.LittleEndian.PutUint64(rec[0:8], g.nextLSN)
	binary.LittleEndian.PutUint32(rec[8:12], uint32(len(body)))
	copy(rec[12:12+len(body)], body)
	crc := crc32.ChecksumIEEE(rec[:12+len(body)])
	binary.LittleEndian.PutUint32(rec[12+len(body):], crc)

	if _, err := g.file.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	if _, err := g.file.Write(rec); err != nil {
		return err
	}
	g.nextLSN++
	return g.file.Sync()
}

// Drain reads every retired path recorded so far and truncates the log
// back to just its header. A malformed trailing record (a torn write from
// a crash mid-append) stops the scan there rather than failing outright.
func (g *gcLog) Drain() ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.file.Seek(gcLogHeaderSize, io.SeekStart); err != nil {
		return nil, err
	}

	var paths []string
	hdrBuf := make([]byte, gcLogRecordHeaderSize)
	for {
		if _, err := io.ReadFull(g.file, hdrBuf); err != nil {
			break
		}
		pathLen := binary.LittleEndian.Uint32(hdrBuf[8:12])
		rest := make([]byte, int(pathLen)+gcLogRecordCRCSize)
		if _, err := io.ReadFull(g.file, rest); err != nil {
			break
		}
		wantCRC := binary.LittleEndian.Uint32(rest[pathLen:])
		gotCRC := crc32.ChecksumIEEE(append(append([]byte{}, hdrBuf...), rest[:pathLen]...))
		if wantCRC != gotCRC {
			break
		}
		paths = append(paths, string(rest[:pathLen]))
	}

	if err := g.file.Truncate(gcLogHeaderSize); err != nil {
		return paths, err
	}
	g.nextLSN = 1
	return paths, nil
}

func (g *gcLog) Close() error {
	return g.file.Close()
}
