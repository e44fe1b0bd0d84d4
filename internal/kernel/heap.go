package kernel

import "cineaos/internal/mem/kheap"

// heap is the single global kernel heap allocator, installed once by
// cmd/kernel/main.go during boot. It is a package-level var rather than a
// constructor parameter because kernel.Panic (called from anywhere, often
// before any other subsystem is reachable) must not depend on it being
// threaded through every call site.
var heap *kheap.Allocator

// SetHeap installs the kernel heap allocator built during boot.
func SetHeap(h *kheap.Allocator) {
	heap = h
}

// Heap returns the installed kernel heap allocator, or nil if boot has not
// reached kheap initialization yet.
func Heap() *kheap.Allocator {
	return heap
}
