// Package pdb implements just enough of the Multi-Stream Format (MSF)
// container and PDB stream layout to extract the two things the
// symbolication engine needs from a PDB: the Info stream's GUID+Age
// (the PE/PDB build identifier, §4.2) and the DBI stream's symbol
// record stream (the public/global CodeView symbols, §4.3's PE path).
//
// There is no actively maintained, dependency-light MSF/PDB container
// reader anywhere in the example pack; this container-level code is
// hand-written against the published MSF format for that reason (see
// DESIGN.md). Once the raw CodeView symbol record bytes are located,
// decoding them is handed off entirely to
// github.com/jtang613/gopdb/pkg/pdb/codeview, a real pack dependency.
package pdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

var msfMagic = []byte("Microsoft C/C++ MSF 7.00\r\n\x1aDS\x00\x00\x00")

// MSF is a parsed Multi-Stream Format container: every numbered
// stream's assembled byte contents.
type MSF struct {
	BlockSize uint32
	Streams   [][]byte
}

// Stream returns the contents of stream i, or nil if i is out of
// range or the stream is the MSF "nil stream" marker.
func (m *MSF) Stream(i int) []byte {
	if i < 0 || i >= len(m.Streams) {
		return nil
	}
	return m.Streams[i]
}

// ParseMSF parses buf as an MSF container and assembles every stream
// into a contiguous byte slice.
func ParseMSF(buf []byte) (*MSF, error) {
	if len(buf) < len(msfMagic)+28 {
		return nil, fmt.Errorf("pdb: file too small for MSF superblock")
	}
	if !bytes.Equal(buf[:len(msfMagic)], msfMagic) {
		return nil, fmt.Errorf("pdb: bad MSF magic")
	}

	hdr := buf[len(msfMagic):]
	blockSize := binary.LittleEndian.Uint32(hdr[0:4])
	numBlocks := binary.LittleEndian.Uint32(hdr[8:12])
	numDirBytes := binary.LittleEndian.Uint32(hdr[12:16])
	blockMapAddr := binary.LittleEndian.Uint32(hdr[20:24])

	if blockSize == 0 {
		return nil, fmt.Errorf("pdb: zero block size")
	}
	readBlock := func(n uint32) ([]byte, error) {
		start := uint64(n) * uint64(blockSize)
		end := start + uint64(blockSize)
		if end > uint64(len(buf)) || uint64(n) >= uint64(numBlocks) {
			return nil, fmt.Errorf("pdb: block %d out of range", n)
		}
		return buf[start:end], nil
	}

	numDirBlocks := ceilDiv(numDirBytes, blockSize)
	blockMapBlock, err := readBlock(blockMapAddr)
	if err != nil {
		return nil, err
	}
	// The block-map block (or run of blocks, for large directories)
	// holds the list of block numbers making up the directory stream.
	dirBlockNums := make([]uint32, 0, numDirBlocks)
	for i := uint32(0); i < numDirBlocks; i++ {
		off := i * 4
		if uint64(off+4) > uint64(len(blockMapBlock)) {
			return nil, fmt.Errorf("pdb: truncated block map")
		}
		dirBlockNums = append(dirBlockNums, binary.LittleEndian.Uint32(blockMapBlock[off:off+4]))
	}

	dir, err := assembleBlocks(buf, blockSize, dirBlockNums, numDirBytes)
	if err != nil {
		return nil, err
	}

	if len(dir) < 4 {
		return nil, fmt.Errorf("pdb: truncated stream directory")
	}
	numStreams := binary.LittleEndian.Uint32(dir[0:4])
	pos := uint32(4)

	streamSizes := make([]uint32, numStreams)
	for i := range streamSizes {
		if uint64(pos+4) > uint64(len(dir)) {
			return nil, fmt.Errorf("pdb: truncated stream size table")
		}
		streamSizes[i] = binary.LittleEndian.Uint32(dir[pos : pos+4])
		pos += 4
	}

	streams := make([][]byte, numStreams)
	for i, size := range streamSizes {
		if size == 0xFFFFFFFF {
			streams[i] = nil
			continue
		}
		n := ceilDiv(size, blockSize)
		blockNums := make([]uint32, n)
		for j := range blockNums {
			if uint64(pos+4) > uint64(len(dir)) {
				return nil, fmt.Errorf("pdb: truncated block list for stream %d", i)
			}
			blockNums[j] = binary.LittleEndian.Uint32(dir[pos : pos+4])
			pos += 4
		}
		data, err := assembleBlocks(buf, blockSize, blockNums, size)
		if err != nil {
			return nil, fmt.Errorf("pdb: stream %d: %w", i, err)
		}
		streams[i] = data
	}

	return &MSF{BlockSize: blockSize, Streams: streams}, nil
}

func assembleBlocks(buf []byte, blockSize uint32, blockNums []uint32, totalSize uint32) ([]byte, error) {
	out := make([]byte, 0, totalSize)
	for _, n := range blockNums {
		start := uint64(n) * uint64(blockSize)
		end := start + uint64(blockSize)
		if end > uint64(len(buf)) {
			return nil, fmt.Errorf("block %d out of range", n)
		}
		out = append(out, buf[start:end]...)
	}
	if uint32(len(out)) > totalSize {
		out = out[:totalSize]
	}
	return out, nil
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
