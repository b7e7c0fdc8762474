// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package kero

import (
	"bytes"
	"encoding/binary"
	"os"
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/RC-Kanashii/kero-api/internal/bigend"
)

const (
	// VersionMajor and VersionMinor identify the newest file format this
	// library writes.  A reader accepts any file whose version is not
	// newer than its own.
	VersionMajor = 0
	VersionMinor = 1

	initialBufferSize = 1 << 10 // 1 KiB
	maxBufferSize     = 1 << 20 // 1 MiB

	signatureLen = 4

	// Fixed header offsets, patched in place by the Set* functions.
	offEncoding   = 6
	offUniqueness = 7
	offCanonicity = 8

	// The default encoding packs A=0 C=1 G=3 T=2 into one byte.
	defaultEncoding = 0b00011110

	// The footer declares itself through a trailing "footer_size"
	// variable: name, NUL, 8-byte value, then the tail signature.
	footerSizeName  = "footer_size"
	footerProbeBack = uint64(len(footerSizeName)) + 1 + 8 + signatureLen
)

var signature = []byte{'K', 'E', 'R', 'O'}

// File is the low-level handle on a KERO file.  It is exclusively owned by
// one writer or one reader; sections borrow it for their lifetime.
type File struct {
	path string
	f    *os.File

	isWriter bool
	isReader bool

	writingStarted bool
	tmpClosed      bool

	buf      []byte
	nextFree uint64
	fileSize uint64
	pos      uint64

	MajorVersion uint8
	MinorVersion uint8
	Uniqueness   bool
	Canonicity   bool

	encoding     [4]byte
	metadataSize uint32
	headerOver   bool

	// footerDiscoveryEnded is false only while the footer probe runs, so
	// that reading the footer's own section doesn't complete the header.
	footerDiscoveryEnded bool

	// endPos is the offset of the tail signature (read mode only).
	endPos uint64

	indexed bool
	footer  *SectionVars
	index   []*SectionIndex

	hashtable *SectionHashtable

	globalVars       map[string]uint64
	sectionPositions map[uint64]byte

	// Minimizer sections registered for the footer hashtable.
	miniKeys    []uint64
	miniOffsets []uint64
}

func newFile(path string) *File {
	return &File{
		path:                 path,
		buf:                  make([]byte, initialBufferSize),
		encoding:             [4]byte{0, 1, 3, 2},
		footerDiscoveryEnded: true,
		globalVars:           make(map[string]uint64),
		sectionPositions:     make(map[uint64]byte),
	}
}

// Create opens path for writing and emits the fixed header prefix.  The
// file is indexed by default; SetIndexed(false) opts out.  Nothing reaches
// the disk until the write buffer exceeds 1 MiB or Close is called.
func Create(path string) (*File, error) {
	f := newFile(path)
	f.isWriter = true
	f.indexed = true

	prefix := []byte{
		'K', 'E', 'R', 'O',
		VersionMajor, VersionMinor,
		defaultEncoding,
		0, // uniqueness
		0, // canonicity
	}
	if err := f.write(prefix); err != nil {
		return nil, err
	}
	return f, nil
}

// Open opens path for reading, validates both signatures and the header,
// and discovers the footer and index chain if present.
func Open(path string) (*File, error) {
	f := newFile(path)
	f.isReader = true

	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "kero: open %s", path)
	}
	f.f = fh
	stats, err := fh.Stat()
	if err != nil {
		_ = fh.Close()
		return nil, errors.Wrap(err, "kero: stat")
	}
	f.fileSize = uint64(stats.Size())

	if err := f.readHeader(); err != nil {
		_ = fh.Close()
		return nil, err
	}
	if err := f.footerDiscovery(); err != nil {
		_ = fh.Close()
		return nil, err
	}
	if err := f.indexDiscovery(); err != nil {
		_ = fh.Close()
		return nil, err
	}
	return f, nil
}

func (f *File) readHeader() error {
	var buf [4]byte
	if err := f.read(buf[:]); err != nil {
		return err
	}
	if !bytes.Equal(buf[:], signature) {
		return errors.Wrap(ErrSignature, "at the beginning of the file")
	}

	var version [2]byte
	if err := f.read(version[:]); err != nil {
		return err
	}
	f.MajorVersion, f.MinorVersion = version[0], version[1]
	if VersionMajor < f.MajorVersion ||
		(VersionMajor == f.MajorVersion && VersionMinor < f.MinorVersion) {
		return errors.Wrapf(ErrVersion,
			"reader %d.%d cannot read file written as %d.%d",
			VersionMajor, VersionMinor, f.MajorVersion, f.MinorVersion)
	}

	var code [1]byte
	if err := f.read(code[:]); err != nil {
		return err
	}
	if err := f.decodeEncoding(code[0]); err != nil {
		return err
	}

	var flags [2]byte
	if err := f.read(flags[:]); err != nil {
		return err
	}
	f.Uniqueness = flags[0] != 0
	f.Canonicity = flags[1] != 0

	var sizeBuf [4]byte
	if err := f.read(sizeBuf[:]); err != nil {
		return err
	}
	f.metadataSize = binary.BigEndian.Uint32(sizeBuf[:])

	// Tail signature.
	saved := f.pos
	if err := f.jumpToEnd(signatureLen); err != nil {
		return errors.Wrap(ErrSignature, "file too short")
	}
	f.endPos = f.pos
	if err := f.read(buf[:]); err != nil {
		return err
	}
	if !bytes.Equal(buf[:], signature) {
		return errors.Wrap(ErrSignature, "at the end of the file")
	}
	return f.jumpTo(saved)
}

func (f *File) decodeEncoding(code byte) error {
	a := code >> 6 & 0b11
	c := code >> 4 & 0b11
	g := code >> 2 & 0b11
	t := code & 0b11
	if a == c || a == g || a == t || c == g || c == t || g == t {
		return errors.Wrapf(ErrCorrupted, "encoding %#02x reuses a 2-bit code", code)
	}
	f.encoding = [4]byte{a, c, g, t}
	return nil
}

// Encoding returns the 2-bit codes for A, C, G and T in that order.
func (f *File) Encoding() [4]byte {
	return f.encoding
}

// SetEncoding patches the header with the 2-bit code assigned to each
// nucleotide.  The four codes must be distinct.
func (f *File) SetEncoding(a, c, g, t byte) error {
	a &= 0b11
	c &= 0b11
	g &= 0b11
	t &= 0b11
	if a == c || a == g || a == t || c == g || c == t || g == t {
		return errors.Wrap(ErrCorrupted, "the 4 2-bit encoding values must differ")
	}
	f.encoding = [4]byte{a, c, g, t}
	code := a<<6 | c<<4 | g<<2 | t
	return f.writeAt([]byte{code}, offEncoding)
}

// SetUniqueness records whether no k-mer appears twice in the file.
func (f *File) SetUniqueness(uniq bool) error {
	f.Uniqueness = uniq
	var b byte
	if uniq {
		b = 1
	}
	return f.writeAt([]byte{b}, offUniqueness)
}

// SetCanonicity records whether a present k-mer implies its reverse
// complement is absent.
func (f *File) SetCanonicity(canon bool) error {
	f.Canonicity = canon
	var b byte
	if canon {
		b = 1
	}
	return f.writeAt([]byte{b}, offCanonicity)
}

// SetIndexed controls whether Close emits the hashtable, index chain and
// footer.  On by default.
func (f *File) SetIndexed(indexed bool) {
	if f.isWriter {
		f.indexed = indexed
	}
}

// WriteMetadata writes the user metadata field.  It must be called before
// any section; omitting it yields a zero-length metadata on Close.
func (f *File) WriteMetadata(data []byte) error {
	if f.headerOver {
		return errors.Wrap(ErrMode, "metadata must be written before any section")
	}
	var sizeBuf [4]byte
	binary.BigEndian.PutUint32(sizeBuf[:], uint32(len(data)))
	if err := f.write(sizeBuf[:]); err != nil {
		return err
	}
	if len(data) > 0 {
		if err := f.write(data); err != nil {
			return err
		}
	}
	f.headerOver = true
	return nil
}

// ReadMetadata returns the metadata field.  Like WriteMetadata it
// completes the header.
func (f *File) ReadMetadata() ([]byte, error) {
	data := make([]byte, f.metadataSize)
	if err := f.read(data); err != nil {
		return nil, err
	}
	f.headerOver = true
	return data, nil
}

// completeHeader finishes header reading or writing before the first
// section touches the file.
func (f *File) completeHeader() error {
	if f.headerOver {
		return nil
	}
	if f.isReader {
		if err := f.jump(int64(f.metadataSize)); err != nil {
			return err
		}
		f.headerOver = true
		return nil
	}
	if f.isWriter {
		return f.WriteMetadata(nil)
	}
	return ErrClosed
}

// GlobalVar returns the current value of a global variable.
func (f *File) GlobalVar(name string) (uint64, bool) {
	v, ok := f.globalVars[name]
	return v, ok
}

// GlobalVars returns a copy of the current global-variable map.
func (f *File) GlobalVars() map[string]uint64 {
	out := make(map[string]uint64, len(f.globalVars))
	for k, v := range f.globalVars {
		out[k] = v
	}
	return out
}

// Pos returns the current position from the beginning of the file.
func (f *File) Pos() uint64 {
	return f.pos
}

// registerPosition captures the absolute offset of a section tag for the
// footer index.
func (f *File) registerPosition(sectionType byte) {
	if f.isWriter && f.indexed {
		f.sectionPositions[f.pos] = sectionType
	}
}

// registerMinimizerSection captures a minimizer and the absolute offset of
// its section tag for the footer hashtable.
func (f *File) registerMinimizerSection(minimizer uint64) {
	if f.isWriter && f.indexed {
		f.miniKeys = append(f.miniKeys, minimizer)
		f.miniOffsets = append(f.miniOffsets, f.pos)
	}
}

// ----- Buffered I/O -----

func (f *File) ensureWritable() error {
	if !f.writingStarted {
		fh, err := os.Create(f.path)
		if err != nil {
			return errors.Wrapf(err, "kero: create %s", f.path)
		}
		f.f = fh
		f.writingStarted = true
		f.tmpClosed = false
		return nil
	}
	if f.tmpClosed {
		fh, err := os.OpenFile(f.path, os.O_RDWR, 0o666)
		if err != nil {
			return errors.Wrapf(err, "kero: reopen %s", f.path)
		}
		f.f = fh
		f.tmpClosed = false
	}
	return nil
}

// write appends bytes to the file, buffering in memory until the buffer
// ceiling is reached.
func (f *File) write(p []byte) error {
	if !f.isWriter {
		if f.isReader {
			return errors.Wrap(ErrMode, "cannot write a file in reading mode")
		}
		return ErrClosed
	}

	size := uint64(len(p))
	space := uint64(len(f.buf)) - f.nextFree
	for space < size && len(f.buf) < maxBufferSize {
		next := make([]byte, len(f.buf)*2)
		copy(next, f.buf[:f.nextFree])
		f.buf = next
		space = uint64(len(f.buf)) - f.nextFree
	}

	if space >= size {
		copy(f.buf[f.nextFree:], p)
		f.nextFree += size
	} else {
		if err := f.ensureWritable(); err != nil {
			return err
		}
		if _, err := f.f.WriteAt(f.buf[:f.nextFree], int64(f.fileSize)); err != nil {
			return errors.Wrapf(err, "kero: flush %s", f.path)
		}
		if _, err := f.f.WriteAt(p, int64(f.fileSize+f.nextFree)); err != nil {
			return errors.Wrapf(err, "kero: write %s", f.path)
		}
		f.fileSize += f.nextFree + size
		f.nextFree = 0
	}

	f.pos += size
	return nil
}

// writeAt overwrites already-written bytes at an absolute position,
// transparently splitting across the disk/buffer boundary.  The current
// position is left unchanged.
func (f *File) writeAt(p []byte, position uint64) error {
	if !f.isWriter {
		if f.isReader {
			return errors.Wrap(ErrMode, "cannot write a file in reading mode")
		}
		return ErrClosed
	}
	size := uint64(len(p))
	if position > f.fileSize+f.nextFree {
		return errors.Wrapf(ErrOutOfRange, "write at %d past end %d", position, f.fileSize+f.nextFree)
	}

	if position < f.fileSize {
		if position+size <= f.fileSize {
			if err := f.ensureWritable(); err != nil {
				return err
			}
			if _, err := f.f.WriteAt(p, int64(position)); err != nil {
				return errors.Wrapf(err, "kero: write %s at %d", f.path, position)
			}
			return nil
		}
		inFile := f.fileSize - position
		if err := f.writeAt(p[:inFile], position); err != nil {
			return err
		}
		return f.writeAt(p[inFile:], position+inFile)
	}

	bufPos := position - f.fileSize
	if bufPos+size <= f.nextFree {
		copy(f.buf[bufPos:], p)
		return nil
	}
	// Spillover: rewind the buffer and rewrite through the append path.
	saved := f.pos
	f.nextFree = bufPos
	if err := f.write(p); err != nil {
		return err
	}
	f.pos = saved
	return nil
}

// read copies len(p) bytes from the current position, which may straddle
// the disk prefix and the in-memory buffer.
func (f *File) read(p []byte) error {
	if !f.isReader {
		return errors.Wrap(ErrMode, "cannot read a file in writing mode")
	}
	size := uint64(len(p))
	if f.pos < f.fileSize {
		if f.pos+size > f.fileSize {
			fsPart := f.fileSize - f.pos
			if err := f.read(p[:fsPart]); err != nil {
				return err
			}
			return f.read(p[fsPart:])
		}
		if _, err := f.f.ReadAt(p, int64(f.pos)); err != nil {
			return errors.Wrapf(err, "kero: read %s at %d", f.path, f.pos)
		}
	} else {
		bufPos := f.pos - f.fileSize
		if bufPos+size > f.nextFree {
			return errors.Wrapf(ErrOutOfRange, "read past byte %d", f.fileSize+f.nextFree)
		}
		copy(p, f.buf[bufPos:bufPos+size])
	}
	f.pos += size
	return nil
}

// jump moves the position by a signed delta.
func (f *File) jump(delta int64) error {
	return f.jumpTo(uint64(int64(f.pos) + delta))
}

// jumpTo moves to an absolute position within the written extent.
func (f *File) jumpTo(position uint64) error {
	if position > f.fileSize+f.nextFree {
		return errors.Wrapf(ErrOutOfRange, "jump to %d past end %d", position, f.fileSize+f.nextFree)
	}
	f.pos = position
	return nil
}

// jumpToEnd moves to the position back bytes before the end of the file.
func (f *File) jumpToEnd(back uint64) error {
	end := f.fileSize + f.nextFree
	if back > end {
		return errors.Wrapf(ErrOutOfRange, "jump to %d before start", back)
	}
	f.pos = end - back
	return nil
}

// Jump moves the position by a signed delta.
func (f *File) Jump(delta int64) error { return f.jump(delta) }

// JumpTo moves to an absolute position within the written extent.
func (f *File) JumpTo(position uint64) error { return f.jumpTo(position) }

// TmpClose releases the file descriptor of a writer.  Any later disk write
// reopens it.  Useful when a process juggles more kero files than the OS
// allows open descriptors.
func (f *File) TmpClose() error {
	if f.isWriter && f.writingStarted && !f.tmpClosed {
		if err := f.f.Close(); err != nil {
			return errors.Wrap(err, "kero: tmp close")
		}
		f.f = nil
		f.tmpClosed = true
	}
	return nil
}

// ----- Section plumbing -----

// ReadSectionType peeks the byte at the current position.  When the
// position is aligned on a section start this byte is the section tag.
func (f *File) ReadSectionType() (byte, error) {
	if !f.headerOver {
		if err := f.completeHeader(); err != nil {
			return 0, err
		}
	}
	if f.pos < f.fileSize {
		var b [1]byte
		if _, err := f.f.ReadAt(b[:], int64(f.pos)); err != nil {
			return 0, errors.Wrapf(err, "kero: read %s at %d", f.path, f.pos)
		}
		return b[0], nil
	}
	off := f.pos - f.fileSize
	if off >= f.nextFree {
		return 0, errors.Wrapf(ErrOutOfRange, "peek past byte %d", f.fileSize+f.nextFree)
	}
	return f.buf[off], nil
}

// JumpNextSection skips the next section if it is a block section.  It
// reports whether a section was skipped.
func (f *File) JumpNextSection() (bool, error) {
	if !f.isReader {
		return false, nil
	}
	if f.pos >= f.fileSize+f.nextFree {
		return false, nil
	}
	t, err := f.ReadSectionType()
	if err != nil {
		return false, err
	}
	switch t {
	case 'r', 'm', 'M':
		sec, err := newBlockSection(f)
		if err != nil {
			return false, err
		}
		if err := sec.JumpSection(); err != nil {
			return false, err
		}
		return true, sec.Close()
	}
	return false, nil
}

// Hashtable returns the minimizer hashtable of the file, locating it
// through the index chain when present and by walking the sections
// otherwise.  Returns nil when the file carries no hashtable section.
func (f *File) Hashtable() (*SectionHashtable, error) {
	if f.hashtable != nil {
		return f.hashtable, nil
	}
	if !f.isReader {
		return nil, errors.Wrap(ErrMode, "hashtable lookup requires read mode")
	}

	saved := f.pos
	defer func() { _ = f.jumpTo(saved) }()

	for _, si := range f.index {
		for _, entry := range si.Entries() {
			if entry.Type == 'h' {
				if err := f.jumpTo(entry.Offset); err != nil {
					return nil, err
				}
				sh, err := NewSectionHashtable(f)
				if err != nil {
					return nil, err
				}
				return sh, sh.Close()
			}
		}
	}

	// No index: walk the sections.
	if err := f.completeHeader(); err != nil {
		return nil, err
	}
	for f.pos < f.endPos {
		t, err := f.ReadSectionType()
		if err != nil {
			return nil, err
		}
		switch t {
		case 'h':
			sh, err := NewSectionHashtable(f)
			if err != nil {
				return nil, err
			}
			return sh, sh.Close()
		case 'v':
			sv, err := NewSectionVars(f)
			if err != nil {
				return nil, err
			}
			if err := sv.Close(); err != nil {
				return nil, err
			}
		case 'i':
			si, err := NewSectionIndex(f)
			if err != nil {
				return nil, err
			}
			if err := si.Close(); err != nil {
				return nil, err
			}
		case 'r', 'm', 'M':
			sec, err := newBlockSection(f)
			if err != nil {
				return nil, err
			}
			if err := sec.JumpSection(); err != nil {
				return nil, err
			}
			if err := sec.Close(); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Wrapf(ErrCorrupted, "unknown section %q", t)
		}
	}
	return nil, nil
}

// ----- Footer and index discovery -----

func (f *File) footerDiscovery() error {
	saved := f.pos
	f.footerDiscoveryEnded = false
	defer func() { f.footerDiscoveryEnded = true }()

	if f.fileSize < footerProbeBack+signatureLen {
		return f.jumpTo(saved)
	}
	if err := f.jumpToEnd(footerProbeBack); err != nil {
		return f.jumpTo(saved)
	}
	probe := make([]byte, len(footerSizeName))
	if err := f.read(probe); err != nil {
		return err
	}
	if string(probe) != footerSizeName {
		return f.jumpTo(saved)
	}
	if err := f.jump(1); err != nil { // NUL terminator
		return err
	}
	var sizeBuf [8]byte
	if err := f.read(sizeBuf[:]); err != nil {
		return err
	}
	size := binary.BigEndian.Uint64(sizeBuf[:])
	if err := f.jumpToEnd(size + signatureLen); err != nil {
		return errors.Wrap(ErrCorrupted, "footer_size points before start of file")
	}

	footer, err := NewSectionVars(f)
	if err != nil {
		return errors.Wrap(err, "kero: footer")
	}
	if err := footer.Close(); err != nil {
		return err
	}
	f.footer = footer
	return f.jumpTo(saved)
}

func (f *File) indexDiscovery() error {
	saved := f.pos
	headerOver := f.headerOver
	if err := f.completeHeader(); err != nil {
		return err
	}

	if f.footer != nil {
		if first, ok := f.footer.Vars["first_index"]; ok {
			f.indexed = true
			if err := f.readIndexChain(first); err != nil {
				return err
			}
		}
	}
	if !f.indexed {
		t, err := f.ReadSectionType()
		if err == nil && t == 'i' {
			f.indexed = true
			if err := f.readIndexChain(f.pos); err != nil {
				return err
			}
		}
	}

	f.headerOver = headerOver
	return f.jumpTo(saved)
}

func (f *File) readIndexChain(position uint64) error {
	saved := f.pos
	for position != 0 {
		if err := f.jumpTo(position); err != nil {
			return err
		}
		si, err := NewSectionIndex(f)
		if err != nil {
			return err
		}
		f.index = append(f.index, si)
		if err := si.Close(); err != nil {
			return err
		}
		if si.NextIndex == 0 {
			position = 0
		} else {
			position = uint64(int64(f.pos) + si.NextIndex)
		}
	}
	return f.jumpTo(saved)
}

// ----- Close -----

// writeFooter emits the hashtable section, one index section covering
// every registered section position, and the footer variable section.
func (f *File) writeFooter() error {
	sh := newSectionHashtableWriter(f)
	for i, key := range f.miniKeys {
		sh.Register(key, f.miniOffsets[i])
	}
	if err := sh.Close(); err != nil {
		return err
	}

	si := newSectionIndexWriter(f)
	endOfIndex := si.beginning + indexHeaderLen + indexEntryLen*uint64(len(f.sectionPositions))
	offsets := make([]uint64, 0, len(f.sectionPositions))
	for off := range f.sectionPositions {
		offsets = append(offsets, off)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	for _, off := range offsets {
		si.RegisterSection(f.sectionPositions[off], int64(off)-int64(endOfIndex))
	}
	if err := si.Close(); err != nil {
		return err
	}

	sgv, err := NewSectionVars(f)
	if err != nil {
		return err
	}
	sgv.WriteVar("first_index", si.beginning)
	sgv.WriteVar("footer_size", footerSectionSize)
	return sgv.Close()
}

// footerSectionSize is the byte length of the footer variable section:
// tag + count plus two vars of 12 name bytes and 8 value bytes each.
const footerSectionSize = 9 + 2*(12+8)

// Close finishes the file.  In write mode it emits the footer region (when
// indexed), the tail signature, and flushes the buffer to disk.
func (f *File) Close() error {
	if f.isWriter {
		if err := f.completeHeader(); err != nil {
			return err
		}
		if f.indexed {
			if err := f.writeFooter(); err != nil {
				return err
			}
		}
		if err := f.write(signature); err != nil {
			return err
		}
		if err := f.ensureWritable(); err != nil {
			return err
		}
		if f.nextFree > 0 {
			if _, err := f.f.WriteAt(f.buf[:f.nextFree], int64(f.fileSize)); err != nil {
				return errors.Wrapf(err, "kero: flush %s", f.path)
			}
			f.fileSize += f.nextFree
			f.nextFree = 0
		}
		if err := f.f.Sync(); err != nil {
			return errors.Wrap(err, "kero: sync")
		}
		if err := f.f.Close(); err != nil {
			return errors.Wrap(err, "kero: close")
		}
		log.Debugf("kero: wrote %s (%d bytes, %d sections)", f.path, f.fileSize, len(f.sectionPositions))
	} else if f.isReader {
		if f.f != nil {
			if err := f.f.Close(); err != nil {
				return errors.Wrap(err, "kero: close")
			}
		}
	}

	f.f = nil
	f.isWriter = false
	f.isReader = false
	f.tmpClosed = false
	return nil
}

// Discard abandons a writer without flushing the buffer.  Anything already
// spilled to disk is removed.
func (f *File) Discard() error {
	if !f.isWriter {
		return f.Close()
	}
	f.isWriter = false
	if f.f != nil {
		_ = f.f.Close()
		f.f = nil
	}
	if f.writingStarted {
		if err := os.Remove(f.path); err != nil {
			return errors.Wrapf(err, "kero: remove %s", f.path)
		}
	}
	return nil
}

// writeBigEndian writes an unsigned value of the given byte width at the
// current position.
func (f *File) writeBigEndian(size int, v uint64) error {
	var buf [8]byte
	bigend.PutUint64(buf[:size], size, v)
	return f.write(buf[:size])
}

// readBigEndian reads an unsigned value of the given byte width from the
// current position.
func (f *File) readBigEndian(size int) (uint64, error) {
	var buf [8]byte
	if err := f.read(buf[:size]); err != nil {
		return 0, err
	}
	return bigend.Uint64(buf[:size], size), nil
}
