package vm

import "github.com/Jacky12315/Weenix/internal/kernel"

// Brk implements the heap-break manager (section 4.3). addr == nil means
// "query current break" and never fails. Otherwise Brk grows or shrinks
// the single heap vmarea to cover [page(StartBrk), page(addr-1)+1) and
// returns the new break, or kernel.ENOMEM if addr is below StartBrk, at
// or past UserMemHigh, or the requested growth collides with another
// area.
func Brk(proc *Process, addr *uint64) (uint64, error) {
	proc.mu.Lock()
	defer proc.mu.Unlock()

	if addr == nil {
		return proc.brk, nil
	}
	want := *addr

	if want < proc.StartBrk {
		return proc.brk, kernel.ENOMEM
	}
	if want >= proc.userMemHigh {
		return proc.brk, kernel.ENOMEM
	}
	if want == proc.brk {
		return proc.brk, nil
	}

	startPage := PageOf(proc.StartBrk)
	area := proc.Map.Find(startPage)
	kernel.Assertf(area != nil, "brk: no vmarea covers start-brk page %d", startPage)

	newEndPage := PageOf(want-1) + 1

	if newEndPage <= area.End {
		area.End = newEndPage
	} else {
		if !proc.Map.Empty(area.End, newEndPage) {
			return proc.brk, kernel.ENOMEM
		}
		area.End = newEndPage
	}

	proc.brk = want
	return proc.brk, nil
}
