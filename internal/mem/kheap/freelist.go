// Package kheap implements the kernel heap allocator (spec §4.2): a linked
// free-list allocator translated almost node-for-node from the original
// kernel's Rust allocator (original_source/src/allocator/linked_list.rs,
// itself derived from the phil-opp.com "Writing an OS in Rust" tutorial).
// Free regions are kept in a singly linked list whose nodes live inside the
// free memory itself — no node is ever heap-allocated, which is the whole
// point: this package *is* the heap.
package kheap

import (
	"unsafe"

	"cineaos/internal/errs"
)

// node is the free-list entry, written directly into the start of a free
// region. Mirrors Rust's `ListNode { size: usize, next: Option<&mut ListNode> }`.
type node struct {
	size uintptr
	next *node
}

// minNodeSize is the smallest region the allocator will track: any split
// remainder smaller than this is left attached to the allocated block
// instead of being carved off, matching `add_free_region`'s assertion in the
// original that a freed region is always >= size_of::<ListNode>().
const minNodeSize = unsafe.Sizeof(node{})

// Allocator is a free-list allocator over a single contiguous heap region.
// It is not safe for concurrent use and takes no lock of its own; the
// kernel heap is a single global Allocator installed with kernel.SetHeap
// (mirroring the original kernel's single global ALLOCATOR static), which
// stores it without a lock.
type Allocator struct {
	head node // dummy head; head.next points at the first free region
}

// New constructs an allocator and seeds it with one free region covering
// [heapStart, heapStart+heapSize).
func New(heapStart, heapSize uintptr) *Allocator {
	a := &Allocator{}
	a.addFreeRegion(heapStart, heapSize)
	return a
}

// addFreeRegion inserts a new free region into the list as the original's
// `add_free_region` does: insertCoalescing merges it with any free region
// directly adjacent in address order, then keeps the list sorted
// largest-first. A region smaller than minNodeSize cannot hold a node and
// is dropped.
func (a *Allocator) addFreeRegion(addr, size uintptr) {
	if size < minNodeSize {
		return
	}
	n := (*node)(unsafe.Pointer(addr))
	n.size = size
	a.insertCoalescing(n)
}

// insertCoalescing walks the free list looking for a neighbor node that is
// directly adjacent (either immediately before or immediately after) to n,
// merging with it instead of inserting a new entry when found, then
// re-inserts the (possibly merged) node sorted largest-first. This matches
// the original's two-pass behavior: coalesce against both neighbors, then
// insert sorted by size.
func (a *Allocator) insertCoalescing(n *node) {
	addr := uintptr(unsafe.Pointer(n))

	prev := &a.head
	for cur := a.head.next; cur != nil; cur = cur.next {
		curAddr := uintptr(unsafe.Pointer(cur))
		if curAddr+cur.size == addr {
			// cur immediately precedes n: absorb n into cur.
			cur.size += n.size
			a.unlink(prev, cur)
			a.insertCoalescing(cur)
			return
		}
		if addr+n.size == curAddr {
			// n immediately precedes cur: absorb cur into n.
			n.size += cur.size
			a.unlink(prev, cur)
			a.insertCoalescing(n)
			return
		}
		prev = cur
	}

	a.insertSorted(n)
}

// unlink removes cur from the list, given its predecessor prev.
func (a *Allocator) unlink(prev, cur *node) {
	prev.next = cur.next
	cur.next = nil
}

// insertSorted inserts n into the free list ordered largest-first, matching
// `add_free_region`'s placement so `find_region`'s linear scan finds a
// best-ish fit quickly for the common case of many similarly sized frees.
func (a *Allocator) insertSorted(n *node) {
	prev := &a.head
	cur := a.head.next
	for cur != nil && cur.size >= n.size {
		prev = cur
		cur = cur.next
	}
	n.next = cur
	prev.next = n
}

// sizeAlign rounds size up to at least minNodeSize and aligns it to align,
// and rounds align up to at least the alignment of a node, matching the
// original's `size_align`.
func sizeAlign(size, align uintptr) (uintptr, uintptr) {
	if align < unsafe.Alignof(node{}) {
		align = unsafe.Alignof(node{})
	}
	size = (size + align - 1) &^ (align - 1)
	if size < minNodeSize {
		size = minNodeSize
	}
	return size, align
}

// Alloc reserves size bytes aligned to align and returns the start address,
// or errs.OutOfMemory if no free region (after splitting) can satisfy the
// request.
func (a *Allocator) Alloc(size, align uintptr) (uintptr, error) {
	size, align = sizeAlign(size, align)

	prev := &a.head
	for cur := a.head.next; cur != nil; cur = cur.next {
		allocStart, ok := allocFromRegion(cur, size, align)
		if !ok {
			prev = cur
			continue
		}

		allocEnd := allocStart + size
		regionStart := uintptr(unsafe.Pointer(cur))
		regionEnd := regionStart + cur.size

		excessFront := allocStart - regionStart
		excessBack := regionEnd - allocEnd

		prev.next = cur.next
		cur.next = nil

		if excessFront > 0 {
			a.addFreeRegion(regionStart, excessFront)
		}
		if excessBack > 0 {
			a.addFreeRegion(allocEnd, excessBack)
		}
		return allocStart, nil
	}

	return 0, errs.OutOfMemory
}

// allocFromRegion reports whether a block of size bytes aligned to align
// can be carved out of region, and if so returns its start address. Mirrors
// `alloc_from_region`: the carved block must leave either zero or at least
// minNodeSize bytes in front of it within the region (otherwise the front
// excess could never be tracked as a free region of its own).
func allocFromRegion(region *node, size, align uintptr) (uintptr, bool) {
	regionStart := uintptr(unsafe.Pointer(region))
	allocStart := (regionStart + align - 1) &^ (align - 1)
	allocEnd := allocStart + size

	if allocEnd > regionStart+region.size {
		return 0, false
	}

	excessFront := allocStart - regionStart
	if excessFront > 0 && excessFront < minNodeSize {
		return 0, false
	}
	return allocStart, true
}

// Free returns a previously allocated block to the free list, coalescing it
// with any adjacent free regions.
func (a *Allocator) Free(addr, size uintptr) {
	size, _ = sizeAlign(size, unsafe.Alignof(node{}))
	a.addFreeRegion(addr, size)
}

// Grow appends a newly mapped region to the free list. Used by the process
// supervisor (C7) to extend a per-process heap on demand: when a request
// can't be satisfied from the existing arena, the supervisor maps fresh
// pages and hands them to Grow rather than rebuilding the allocator
// (spec §4.7 "Heap growth").
func (a *Allocator) Grow(addr, size uintptr) {
	a.addFreeRegion(addr, size)
}
