// ABOUTME: Package documentation for media fundamentals
// ABOUTME: Describes the pull-based pipeline model and buffer ownership rules
// Package media provides the fundamental types for pull-based audio pipelines.
//
// A pipeline is a chain of Source implementations. Each stage pulls
// compressed or decoded buffers from the stage upstream of it via Read,
// so the whole chain runs on the consumer's thread of control.
//
// Buffer ownership follows a strict single-owner handoff: a buffer
// returned from Read belongs to the caller until it calls Release,
// which hands pooled buffers back to their Group.
//
// Example:
//
//	group := media.NewGroup(1, 8192)
//	buf, err := group.Acquire()
//	if err != nil {
//	    // pool exhausted: a capacity bug, not a transient condition
//	}
//	defer buf.Release()
package media
