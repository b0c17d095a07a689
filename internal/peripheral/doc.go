// Package peripheral models hub-attached devices: the factory that builds
// them from persisted configuration, the kind-specific drivers that talk to
// device endpoints over HTTP, and the registry that owns the live set.
//
// All registry mutation and read fan-out is serialised behind a single mutex,
// so configuration persistence and lifecycle notifications observe a
// consistent view. Device I/O itself runs outside the lock.
package peripheral
