package vm

import "sync"

// PageSize is the simulated hardware page size. A real kernel reads this
// from the architecture; here it is a fixed constant since there is no
// hardware underneath us.
const PageSize = 4096

// UserMemHigh is the top of the user virtual address space; no vmarea,
// and no brk, may extend to or past it. Matches the 3GB/1GB user/kernel
// split of the 32-bit teaching kernel this core is modeled on.
const UserMemHigh = 0xc0000000

// PageOf returns the page number containing the byte address addr.
func PageOf(addr uint64) int { return int(addr / PageSize) }

// Process is the subset of process state the vm subsystem cares about:
// its address-space map and heap-break bookkeeping. Larger process
// concerns (pid, fds, signal state) live outside this package's scope.
type Process struct {
	mu sync.Mutex

	Map         *Map
	StartBrk    uint64 // immutable, set by the loader; not necessarily page-aligned
	brk         uint64
	userMemHigh uint64
	pageTable   *PageTable
}

// NewProcess returns a process whose brk starts equal to startBrk, with
// an empty address-space map and a fresh simulated page table. By
// default Brk enforces UserMemHigh as the top of the address space;
// pass WithUserMemHigh to override it.
func NewProcess(startBrk uint64, opts ...Option) *Process {
	cfg := resolveOptions(opts)
	return &Process{
		Map:         NewMap(),
		StartBrk:    startBrk,
		brk:         startBrk,
		userMemHigh: cfg.userMemHigh,
		pageTable:   NewPageTable(),
	}
}

// Brk returns the process's current heap break.
func (p *Process) Brk() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.brk
}

// RSS returns the resident page count: the total number of pages covered
// by the process's vmareas. This is read-only introspection for
// diagnostics (the CLI's debug dump); it does not reflect how many of
// those pages have actually been faulted in, since the core does not
// track that separately from the memory objects themselves.
func (p *Process) RSS() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, a := range p.Map.Areas() {
		total += a.Pages()
	}
	return total
}

// PageTableEntry mirrors the flags installed by handle_pagefault: present
// is always true once installed, write reflects whether the mapping
// currently permits writes without re-faulting, and paddr is the backing
// physical address.
type PageTableEntry struct {
	Present bool
	User    bool
	Write   bool
	PAddr   uintptr
}

// PageTable is a simulated page table: a sparse map from page number to
// PageTableEntry, standing in for the hardware structure handle_pagefault
// ultimately writes (spec.md's "install a page-table mapping" step).
type PageTable struct {
	mu      sync.Mutex
	entries map[int]PageTableEntry
}

// NewPageTable returns an empty page table.
func NewPageTable() *PageTable {
	return &PageTable{entries: make(map[int]PageTableEntry)}
}

// Install records entry for page, overwriting any prior mapping.
func (t *PageTable) Install(page int, entry PageTableEntry) {
	t.mu.Lock()
	t.entries[page] = entry
	t.mu.Unlock()
}

// Lookup returns the entry installed for page, if any.
func (t *PageTable) Lookup(page int) (PageTableEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[page]
	return e, ok
}
