package vm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jacky12315/Weenix/internal/kernel"
)

func u64(v uint64) *uint64 { return &v }

// TestBrkQueryReturnsCurrentWithoutSideEffects covers invariant 6:
// brk(nil) twice in a row yields the same value and mutates nothing.
func TestBrkQueryReturnsCurrentWithoutSideEffects(t *testing.T) {
	proc := NewProcess(0x1000)
	proc.Map.Insert(&Area{Start: 1, End: 2, Prot: ProtRead | ProtWrite, Obj: NewAnonObject()})

	before := proc.Map.Clone()

	got1, err := Brk(proc, nil)
	require.NoError(t, err)
	got2, err := Brk(proc, nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(0x1000), got1)
	assert.Equal(t, got1, got2)
	assert.Equal(t, before.Areas(), proc.Map.Areas())
}

// TestBrkGrowWithSpace covers S5.
func TestBrkGrowWithSpace(t *testing.T) {
	proc := NewProcess(0x1000)
	area := &Area{Start: 1, End: 2, Prot: ProtRead | ProtWrite, Obj: NewAnonObject()}
	proc.Map.Insert(area)

	got, err := Brk(proc, u64(0x3500))
	require.NoError(t, err)
	assert.Equal(t, uint64(0x3500), got)
	assert.Equal(t, 4, area.End)
	assert.Equal(t, uint64(0x3500), proc.Brk())
}

// TestBrkGrowIntoOccupiedRange covers S6.
func TestBrkGrowIntoOccupiedRange(t *testing.T) {
	proc := NewProcess(0x1000)
	heap := &Area{Start: 1, End: 2, Prot: ProtRead | ProtWrite, Obj: NewAnonObject()}
	other := &Area{Start: 3, End: 5, Prot: ProtRead, Obj: NewAnonObject()}
	proc.Map.Insert(heap)
	proc.Map.Insert(other)

	before := proc.Map.Clone()

	got, err := Brk(proc, u64(0x3500))
	require.Error(t, err)
	assert.True(t, errors.Is(err, kernel.ENOMEM))
	assert.Equal(t, proc.Brk(), got)
	assert.Equal(t, uint64(0x1000), proc.Brk())
	assert.Equal(t, before.Areas(), proc.Map.Areas())
}

func TestBrkBelowStartBrkIsENOMEM(t *testing.T) {
	proc := NewProcess(0x2000)
	proc.Map.Insert(&Area{Start: 2, End: 3, Prot: ProtRead | ProtWrite, Obj: NewAnonObject()})

	got, err := Brk(proc, u64(0x1000))
	assert.True(t, errors.Is(err, kernel.ENOMEM))
	assert.Equal(t, uint64(0x2000), got)
}

func TestBrkAtOrPastUserMemHighIsENOMEM(t *testing.T) {
	proc := NewProcess(0x1000)
	proc.Map.Insert(&Area{Start: 1, End: 2, Prot: ProtRead | ProtWrite, Obj: NewAnonObject()})

	got, err := Brk(proc, u64(UserMemHigh))
	assert.True(t, errors.Is(err, kernel.ENOMEM))
	assert.Equal(t, uint64(0x1000), got)
}

func TestBrkRespectsWithUserMemHighOverride(t *testing.T) {
	proc := NewProcess(0x1000, WithUserMemHigh(0x2000))
	proc.Map.Insert(&Area{Start: 1, End: 2, Prot: ProtRead | ProtWrite, Obj: NewAnonObject()})

	got, err := Brk(proc, u64(0x2000))
	assert.True(t, errors.Is(err, kernel.ENOMEM))
	assert.Equal(t, uint64(0x1000), got)

	got, err = Brk(proc, u64(0x1500))
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1500), got)
}

func TestBrkEqualToCurrentIsNoop(t *testing.T) {
	proc := NewProcess(0x1000)
	proc.Map.Insert(&Area{Start: 1, End: 2, Prot: ProtRead | ProtWrite, Obj: NewAnonObject()})

	got, err := Brk(proc, u64(0x1000))
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1000), got)
}

// TestBrkShrink exercises the shrink branch: new_end_page <= area.end.
func TestBrkShrink(t *testing.T) {
	proc := NewProcess(0x1000)
	area := &Area{Start: 1, End: 4, Prot: ProtRead | ProtWrite, Obj: NewAnonObject()}
	proc.Map.Insert(area)
	proc.brk = 0x3000

	got, err := Brk(proc, u64(0x1500))
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1500), got)
	assert.Equal(t, PageOf(0x1500-1)+1, area.End)
}

func TestRSSReflectsAreaPages(t *testing.T) {
	proc := NewProcess(0)
	proc.Map.Insert(&Area{Start: 0, End: 4, Prot: ProtRead, Obj: NewAnonObject()})
	proc.Map.Insert(&Area{Start: 10, End: 13, Prot: ProtRead | ProtWrite, Obj: NewAnonObject()})

	assert.Equal(t, 7, proc.RSS())
}
