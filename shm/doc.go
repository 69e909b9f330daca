// Package shm shares fixed-layout records with other processes through a
// named memory mapping.
//
// A Buffer is the raw mapping: a file under /tmp mapped MAP_SHARED on Unix,
// a page-file backed named mapping on Windows. An Arena divides a Buffer
// into pools, one per Tag, each an array of equally sized elements:
//
//	arena := shm.NewArena(shm.DefaultName)
//	if err := arena.Open(shm.DefaultSize); err != nil {
//	    return err
//	}
//	defer arena.Close()
//
//	objects := shm.MustType[CustomObject]("custom-object")
//	if err := objects.Write(arena, 0, obj); err != nil {
//	    return err
//	}
//
// Pools are laid out in creation order starting at offset 0, with no header,
// so cooperating processes must agree on the order. Every typed access is
// bounds checked against the pool capacity.
//
// Arenas are not synchronized unless opened with WithLocking, which adds an
// in-process mutex and an OS lock (flock, or a named mutex on Windows).
package shm
