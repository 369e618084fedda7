/*
The sync package implements syncdroid's sync algorithm. It copies a directory
tree from the computer to a device mounted through gvfs, or from the device
to the computer.

A run goes through the following steps:
1) The Resolver turns the user's source and destination into absolute
   paths. Whichever side the source is on, the destination is on the other.
2) Scan walks the source tree, and creates a SubdirTask for every directory
   that contains files.
3) For each task, the destination directory is listed (or created), and its
   files are matched against the source files. Missing files are copied.
4) Destination files that no source file matched are ignored, removed, or
   copied back to the source, depending on the UnmatchedPolicy.

The device connection is occasionally reset while copying. Operations that
modify files go through a Retrier, which remounts the device and retries
once.

The sync algorithm only deals with files. Empty directories aren't synced,
and files are compared by name only.
*/
package sync
