// Package vbabin synthesizes a macro project binary: an MS-CFB compound
// file holding the MS-OVBA streams a host application expects. The
// resulting blob is opaque payload to the rest of the engine.
package vbabin

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

const (
	sectorSize     = 512
	miniSectorSize = 64
	miniCutoff     = 4096
	dirEntrySize   = 128

	secFAT        = 0xFFFFFFFD
	secEndOfChain = 0xFFFFFFFE
	secFree       = 0xFFFFFFFF
	noStream      = -1
)

// entry types per MS-CFB.
const (
	typeStorage = 0x01
	typeStream  = 0x02
	typeRoot    = 0x05
)

type dirEntry struct {
	name  string
	typ   byte
	data  []byte
	left  int32
	right int32
	child int32

	// assigned during layout
	start uint32
	size  uint64
}

// cfbWriter assembles a version-3 compound file: 512-byte sectors, a mini
// stream for payloads under 4096 bytes, single-level DIFAT held entirely
// in the header. Directory siblings form a right-leaning chain; readers
// traverse left/right/child without requiring a balanced tree.
type cfbWriter struct {
	entries []*dirEntry
}

func newCFBWriter() *cfbWriter {
	w := &cfbWriter{}
	w.entries = append(w.entries, &dirEntry{
		name: "Root Entry", typ: typeRoot, left: noStream, right: noStream, child: noStream,
	})
	return w
}

func (w *cfbWriter) addChild(parent int, e *dirEntry) int {
	idx := len(w.entries)
	w.entries = append(w.entries, e)
	p := w.entries[parent]
	if p.child == noStream {
		p.child = int32(idx)
		return idx
	}
	sib := w.entries[p.child]
	for sib.right != noStream {
		sib = w.entries[sib.right]
	}
	sib.right = int32(idx)
	return idx
}

func (w *cfbWriter) addStorage(name string, parent int) int {
	return w.addChild(parent, &dirEntry{
		name: name, typ: typeStorage, left: noStream, right: noStream, child: noStream,
	})
}

func (w *cfbWriter) addStream(name string, parent int, data []byte) int {
	return w.addChild(parent, &dirEntry{
		name: name, typ: typeStream, data: data,
		left: noStream, right: noStream, child: noStream,
	})
}

func sectors(n, size int) int {
	return (n + size - 1) / size
}

// bytes lays out and serializes the compound file.
func (w *cfbWriter) bytes() ([]byte, error) {
	for _, e := range w.entries {
		if len(utf16.Encode([]rune(e.name))) > 31 {
			return nil, fmt.Errorf("cfb: entry name %q exceeds 31 characters", e.name)
		}
	}

	// Mini stream container and mini FAT.
	var miniContainer bytes.Buffer
	var miniFAT []uint32
	for _, e := range w.entries {
		if e.typ != typeStream {
			continue
		}
		e.size = uint64(len(e.data))
		if len(e.data) == 0 || len(e.data) >= miniCutoff {
			continue
		}
		e.start = uint32(len(miniFAT))
		miniContainer.Write(e.data)
		pad(&miniContainer, miniSectorSize)
		n := sectors(len(e.data), miniSectorSize)
		for i := 0; i < n; i++ {
			if i == n-1 {
				miniFAT = append(miniFAT, secEndOfChain)
			} else {
				miniFAT = append(miniFAT, uint32(len(miniFAT))+1)
			}
		}
	}
	miniStreamLen := miniContainer.Len()
	pad(&miniContainer, sectorSize)

	dirSectors := sectors(len(w.entries)*dirEntrySize, sectorSize)
	miniFATSectors := sectors(len(miniFAT)*4, sectorSize)
	miniContainerSectors := miniContainer.Len() / sectorSize

	bigSectors := 0
	for _, e := range w.entries {
		if e.typ == typeStream && len(e.data) >= miniCutoff {
			bigSectors += sectors(len(e.data), sectorSize)
		}
	}

	// FAT sizing is self-referential: FAT sectors are themselves FAT
	// entries. Iterate until stable.
	rest := dirSectors + miniFATSectors + miniContainerSectors + bigSectors
	fatSectors := 1
	for {
		need := sectors((fatSectors+rest)*4, sectorSize)
		if need == fatSectors {
			break
		}
		fatSectors = need
	}
	if fatSectors > 109 {
		return nil, fmt.Errorf("cfb: payload needs %d FAT sectors, header DIFAT holds 109", fatSectors)
	}

	dirStart := uint32(fatSectors)
	miniFATStart := dirStart + uint32(dirSectors)
	miniContainerStart := miniFATStart + uint32(miniFATSectors)
	bigStart := miniContainerStart + uint32(miniContainerSectors)

	// Assign start sectors: root points at the mini stream container,
	// large streams follow it in directory order.
	next := bigStart
	for _, e := range w.entries {
		switch {
		case e.typ == typeRoot:
			e.size = uint64(miniStreamLen)
			if miniContainerSectors > 0 {
				e.start = miniContainerStart
			} else {
				e.start = secEndOfChain
			}
		case e.typ == typeStream && len(e.data) == 0:
			e.start = secEndOfChain
		case e.typ == typeStream && len(e.data) >= miniCutoff:
			e.start = next
			next += uint32(sectors(len(e.data), sectorSize))
		}
	}

	var out bytes.Buffer
	w.writeHeader(&out, fatSectors, dirStart, miniFATStart, miniFATSectors)
	w.writeFAT(&out, fatSectors, dirStart, uint32(dirSectors), miniFATStart, uint32(miniFATSectors), miniContainerStart, uint32(miniContainerSectors), bigStart)
	w.writeDirectory(&out, dirSectors)
	writeUint32Table(&out, miniFAT, miniFATSectors*sectorSize/4)
	out.Write(miniContainer.Bytes())
	for _, e := range w.entries {
		if e.typ == typeStream && len(e.data) >= miniCutoff {
			out.Write(e.data)
			pad(&out, sectorSize)
		}
	}
	return out.Bytes(), nil
}

func (w *cfbWriter) writeHeader(out *bytes.Buffer, fatSectors int, dirStart, miniFATStart uint32, miniFATSectors int) {
	out.Write([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	out.Write(make([]byte, 16)) // CLSID
	le16(out, 0x003E)           // minor version
	le16(out, 0x0003)           // major version 3
	le16(out, 0xFFFE)           // little endian
	le16(out, 9)                // sector shift
	le16(out, 6)                // mini sector shift
	out.Write(make([]byte, 6))  // reserved
	le32(out, 0)                // directory sector count (0 for v3)
	le32(out, uint32(fatSectors))
	le32(out, dirStart)
	le32(out, 0) // transaction signature
	le32(out, miniCutoff)
	if miniFATSectors > 0 {
		le32(out, miniFATStart)
	} else {
		le32(out, secEndOfChain)
	}
	le32(out, uint32(miniFATSectors))
	le32(out, secEndOfChain) // first DIFAT sector
	le32(out, 0)             // DIFAT sector count
	for i := 0; i < 109; i++ {
		if i < fatSectors {
			le32(out, uint32(i))
		} else {
			le32(out, secFree)
		}
	}
}

func (w *cfbWriter) writeFAT(out *bytes.Buffer, fatSectors int, dirStart, dirCount, miniFATStart, miniFATCount, miniStart, miniCount, bigStart uint32) {
	var fat []uint32
	chain := func(start, count uint32) {
		for i := uint32(0); i < count; i++ {
			if i == count-1 {
				fat = append(fat, secEndOfChain)
			} else {
				fat = append(fat, start+i+1)
			}
		}
	}
	for i := 0; i < fatSectors; i++ {
		fat = append(fat, secFAT)
	}
	chain(dirStart, dirCount)
	chain(miniFATStart, miniFATCount)
	chain(miniStart, miniCount)
	for _, e := range w.entries {
		if e.typ == typeStream && len(e.data) >= miniCutoff {
			chain(e.start, uint32(sectors(len(e.data), sectorSize)))
		}
	}
	writeUint32Table(out, fat, fatSectors*sectorSize/4)
}

func (w *cfbWriter) writeDirectory(out *bytes.Buffer, dirSectors int) {
	for _, e := range w.entries {
		name := utf16.Encode([]rune(e.name))
		var buf [dirEntrySize]byte
		for i, u := range name {
			binary.LittleEndian.PutUint16(buf[i*2:], u)
		}
		binary.LittleEndian.PutUint16(buf[64:], uint16(len(name)*2+2))
		buf[66] = e.typ
		buf[67] = 0x01 // black
		binary.LittleEndian.PutUint32(buf[68:], uint32(e.left))
		binary.LittleEndian.PutUint32(buf[72:], uint32(e.right))
		binary.LittleEndian.PutUint32(buf[76:], uint32(e.child))
		// CLSID, state bits, timestamps stay zero: deterministic output.
		binary.LittleEndian.PutUint32(buf[116:], e.start)
		binary.LittleEndian.PutUint64(buf[120:], e.size)
		out.Write(buf[:])
	}
	empties := dirSectors*(sectorSize/dirEntrySize) - len(w.entries)
	for i := 0; i < empties; i++ {
		var buf [dirEntrySize]byte
		buf[67] = 0x01
		binary.LittleEndian.PutUint32(buf[68:], uint32(secFree))
		binary.LittleEndian.PutUint32(buf[72:], uint32(secFree))
		binary.LittleEndian.PutUint32(buf[76:], uint32(secFree))
		out.Write(buf[:])
	}
}

func writeUint32Table(out *bytes.Buffer, values []uint32, total int) {
	for _, v := range values {
		le32(out, v)
	}
	for i := len(values); i < total; i++ {
		le32(out, secFree)
	}
}

func pad(b *bytes.Buffer, boundary int) {
	if rem := b.Len() % boundary; rem != 0 {
		b.Write(make([]byte, boundary-rem))
	}
}

func le16(b *bytes.Buffer, v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	b.Write(buf[:])
}

func le32(b *bytes.Buffer, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	b.Write(buf[:])
}
