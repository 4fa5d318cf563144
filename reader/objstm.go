package reader

import (
	"fmt"
	"strconv"
)

// objStream is a decoded object stream (PDF 1.5+): a header of
// object-number/offset pairs followed by the objects themselves.
type objStream struct {
	data    []byte
	first   int   // offset of the first object within data
	offsets []int // offset of object i, relative to first
	numbers []int // object number of object i
}

// resolveCompressed loads the object stored at entry.Index in the object
// stream entry.StreamNum.
func (d *Document) resolveCompressed(ref Reference, entry xrefEntry) (Object, error) {
	stm, err := d.objectStream(entry.StreamNum)
	if err != nil {
		return nil, fmt.Errorf("reader: object %d: %w", ref.Number, err)
	}
	if entry.Index < 0 || entry.Index >= len(stm.offsets) {
		return nil, fmt.Errorf("reader: object %d: index %d outside object stream %d", ref.Number, entry.Index, entry.StreamNum)
	}
	if stm.numbers[entry.Index] != ref.Number {
		return nil, fmt.Errorf("reader: object stream %d holds object %d at index %d, want %d",
			entry.StreamNum, stm.numbers[entry.Index], entry.Index, ref.Number)
	}

	pos := stm.first + stm.offsets[entry.Index]
	if pos < 0 || pos >= len(stm.data) {
		return nil, fmt.Errorf("reader: object %d offset out of bounds in object stream %d", ref.Number, entry.StreamNum)
	}
	return newParser(stm.data[pos:]).ParseObject()
}

// objectStream decodes and caches the object stream with the given number.
func (d *Document) objectStream(num int) (*objStream, error) {
	if stm, ok := d.objStms[num]; ok {
		return stm, nil
	}

	entry, ok := d.xref[num]
	if !ok || !entry.InUse || entry.Compressed {
		return nil, fmt.Errorf("object stream %d not found", num)
	}
	obj, err := d.resolve(Reference{Number: num, Generation: entry.Generation})
	if err != nil {
		return nil, err
	}
	s, ok := obj.(Stream)
	if !ok || s.Dict.GetName("Type") != "ObjStm" {
		return nil, fmt.Errorf("object %d is not an object stream", num)
	}

	decoded, err := decodeStream(s)
	if err != nil {
		return nil, fmt.Errorf("decoding object stream %d: %w", num, err)
	}
	n, _ := s.Dict.GetInt("N")
	first, _ := s.Dict.GetInt("First")
	if n < 0 || first < 0 || int(first) > len(decoded) {
		return nil, fmt.Errorf("object stream %d has invalid /N or /First", num)
	}

	stm := &objStream{
		data:    decoded,
		first:   int(first),
		offsets: make([]int, 0, n),
		numbers: make([]int, 0, n),
	}
	p := newParser(decoded[:first])
	for i := int64(0); i < n; i++ {
		numTok := p.readToken()
		offTok := p.readToken()
		objNum, err1 := strconv.Atoi(numTok)
		off, err2 := strconv.Atoi(offTok)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("object stream %d: bad header entry %d", num, i)
		}
		stm.numbers = append(stm.numbers, objNum)
		stm.offsets = append(stm.offsets, off)
	}

	d.objStms[num] = stm
	return stm, nil
}
