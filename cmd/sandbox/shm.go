package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wippyai/clr-host/config"
)

func newShmCmd(opts *options) *cobra.Command {
	var count uint32

	cmd := &cobra.Command{
		Use:   "shm",
		Short: "Write sample objects to shared memory and read them back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(opts)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return shmRoundTrip(cmd.OutOrStdout(), cfg.SharedMemory, count)
		},
	}
	cmd.Flags().Uint32VarP(&count, "count", "n", 3, "number of objects to write")
	return cmd
}

// shmRoundTrip exercises the arena without a runtime.
func shmRoundTrip(out io.Writer, cfg config.SharedMemoryConfig, count uint32) error {
	arena := arenaFor(cfg)
	if err := arena.Open(cfg.Size); err != nil {
		return err
	}
	defer arena.Close()

	block, err := customObjects.Pool(arena)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "arena %q: %d bytes, %s pool at %d holds %d objects\n",
		arena.Name(), arena.Size(), block.Tag, block.Offset, block.Capacity)

	for i := uint32(0); i < count; i++ {
		obj := NewCustomObject(fmt.Sprintf("object #%d", i), float64(i)*1.5)
		if err := customObjects.Write(arena, i, obj); err != nil {
			return err
		}
	}
	for i := uint32(0); i < count; i++ {
		obj, err := customObjects.Read(arena, i)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "[%d] %s\n", i, &obj)
	}
	return nil
}
