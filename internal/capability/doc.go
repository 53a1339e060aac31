// Package capability manages references to user-selected directories and the
// permission to use them.
//
// A Directory is opaque: it is obtained from a Picker, which records a
// read/write grant for the current process, or restored from a CBOR blob with
// Restore, which carries no grant. All file access goes through Broker.Do,
// which establishes access first and then hands the callback an os.Root
// confined to the directory.
//
// Permission states:
//
//   - StateGranted: the OS allows access and the process holds a grant.
//   - StateUnknown: the OS allows access but the user has not confirmed it.
//   - StateDenied: the OS refuses access or the directory is gone.
//
// On unix the OS side is answered with access(2) and directories are
// identified by device and inode. Elsewhere Check reports ErrQueryUnsupported,
// Do falls back to attempting the operation, and SameDirectory compares leaf names.
package capability
