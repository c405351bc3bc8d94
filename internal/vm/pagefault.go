package vm

import (
	"github.com/Jacky12315/Weenix/internal/kernel"
	"github.com/Jacky12315/Weenix/internal/kernlog"
)

// Cause is the fault-cause bitmask the trap dispatcher passes to
// handle_pagefault: which kind of access triggered the fault.
type Cause int

const (
	CauseWrite Cause = 1 << iota
	CauseUser        // always set at entry; kept for bit-for-bit fidelity
	CauseExec
)

func (c Cause) has(bit Cause) bool { return c&bit != 0 }

// Exit terminates the owning process with the given status and must not
// return. It stands in for the external exit() primitive (process
// lifecycle is out of scope for this package); handle_pagefault's
// termination paths are divergent in the same sense the source's
// exit-on-fault call is — no code in this package runs after Exit is
// invoked.
type Exit func(status error)

// HandlePageFault implements the page-fault path (section 4.2): it
// resolves vaddr against proc's address-space map, checks permissions
// against cause, resolves the backing frame (through any copy-on-write
// shadow chain), installs a page-table mapping, and returns. Any failure
// terminates the process through exit and never returns to its caller.
func HandlePageFault(proc *Process, vaddr uint64, cause Cause, exit Exit) {
	page := PageOf(vaddr)

	area := proc.Map.Find(page)
	if area == nil {
		kernlog.Warn("vm", "pagefault: no covering area", map[string]any{"page": page, "vaddr": vaddr})
		exit(kernel.EFAULT)
		kernel.Assertf(false, "handle_pagefault: exit returned after no-area fault at page %d", page)
		return
	}

	writeFault := cause.has(CauseWrite)
	execFault := cause.has(CauseExec)

	switch {
	case writeFault:
		if !area.Prot.Has(ProtWrite) {
			exit(kernel.EFAULT)
			kernel.Assertf(false, "handle_pagefault: exit returned after write-permission fault at page %d", page)
			return
		}
	case execFault:
		if !area.Prot.Has(ProtExec) {
			exit(kernel.EFAULT)
			kernel.Assertf(false, "handle_pagefault: exit returned after exec-permission fault at page %d", page)
			return
		}
	default:
		if !area.Prot.Has(ProtRead) {
			exit(kernel.EFAULT)
			kernel.Assertf(false, "handle_pagefault: exit returned after read-permission fault at page %d", page)
			return
		}
	}

	objIndex := page - area.Start + area.Offset
	frame, err := area.Obj.Lookup(objIndex, writeFault)
	if err != nil {
		exit(kernel.EFAULT)
		kernel.Assertf(false, "handle_pagefault: exit returned after lookup failure at page %d", page)
		return
	}
	kernel.Assertf(frame != nil, "handle_pagefault: nil frame after successful lookup at page %d", page)

	if writeFault {
		frame.Dirty()
	}

	proc.pageTable.Install(page, PageTableEntry{
		Present: true,
		User:    true,
		Write:   writeFault,
		PAddr:   frame.PAddr(),
	})

	kernlog.Debug("vm", "pagefault resolved", map[string]any{"page": page, "write": writeFault})
}
