package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/clr-host/config"
)

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Resolve the sample entry points and exchange objects with them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSequence(cmd, opts)
		},
	}
}

func runSequence(cmd *cobra.Command, opts *options) error {
	cfg, log, err := setup(opts)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	return sequence(cmd.Context(), cfg, log, cmd.OutOrStdout())
}

// sequence prints an object through the managed side, then round-trips
// objects through shared memory in both directions.
func sequence(ctx context.Context, cfg *config.Config, log *zap.Logger, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openSession(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	local := NewCustomObject("Lorem ipsum", 1.2345)
	fmt.Fprintf(out, "[Go] passing object: %s\n", &local)
	s.PrintObject(&local)

	shared := NewCustomObject("Quo Usque Tandem", 42.0125)
	if err := s.WriteShared(0, shared); err != nil {
		return err
	}
	fmt.Fprintf(out, "[Go] wrote shared[0]: %s\n", &shared)
	if err := s.ManagedRead(0); err != nil {
		return err
	}

	if err := s.ManagedWrite(1); err != nil {
		return err
	}
	back, err := s.ReadShared(1)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "[Go] read shared[1]: %s\n", &back)
	return nil
}
