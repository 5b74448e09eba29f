package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nettf/nettf/internal/discover"
)

func newDiscoverCmd() *cobra.Command {
	var timeoutMs int
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Scan the local network for NETTF receivers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMs)*time.Millisecond+2*time.Second)
			defer cancel()
			peers, err := discover.Scan(ctx, time.Duration(timeoutMs)*time.Millisecond)
			if err != nil {
				return err
			}
			if len(peers) == 0 {
				fmt.Println("no peers found")
				return nil
			}
			for _, p := range peers {
				fmt.Printf("%s\t%v\n", p.IP, p.Latency)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&timeoutMs, "timeout", 500, "per-host probe timeout in milliseconds")
	return cmd
}
