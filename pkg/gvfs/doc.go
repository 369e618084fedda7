// Package gvfs implements the sync transport on top of the GNOME virtual
// filesystem. Reads go through the FUSE mount under /run/user/<uid>/gvfs,
// and writes go through the gio (or legacy gvfs-*) command line tools since
// MTP devices don't support writes through the FUSE mount.
package gvfs
