package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nettf/nettf/internal/frame"
	"github.com/nettf/nettf/internal/metrics"
	"github.com/nettf/nettf/internal/netio"
	"github.com/nettf/nettf/internal/nettflog"
	"github.com/nettf/nettf/internal/signal"
)

func newReceiveCmd() *cobra.Command {
	var (
		port        int
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Listen for and accept incoming NETTF transfers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReceive(port, metricsAddr)
		},
	}
	cmd.Flags().IntVar(&port, "port", netio.DefaultPort, "port to listen on")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "optional address to serve Prometheus /metrics on (e.g. :9877)")
	return cmd
}

// runReceive binds a listener and services one connection at a time
// (spec §6: the engine is single-stream), exiting cleanly when the
// process is interrupted between transfers or aborting the in-flight
// one when interrupted twice.
func runReceive(port int, metricsAddr string) error {
	if metricsAddr != "" {
		go func() {
			if err := metrics.Serve(metricsAddr); err != nil {
				nettflog.Error(logrus.Fields{"addr": metricsAddr, "err": err}, "metrics server exited")
			}
		}()
	}

	ln, err := netio.Listen(fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	defer ln.Close()

	ctl := signal.NewController()
	stop := ctl.Listen(os.Interrupt)
	defer stop()

	// Accept blocks, so close the listener once an interrupt arrives;
	// Accept then fails with net.ErrClosed and the loop returns.
	go func() {
		for ctl.Current() == signal.Continue {
			time.Sleep(100 * time.Millisecond)
		}
		ln.Close()
	}()

	fmt.Printf("listening on :%d\n", port)

	for {
		if ctl.Current() != signal.Continue {
			return nil
		}
		conn, err := netio.Accept(ln)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			nettflog.Error(logrus.Fields{"err": err}, "accept failed")
			continue
		}
		serveConn(conn, ctl)
	}
}

func serveConn(conn net.Conn, ctl *signal.Controller) {
	defer conn.Close()

	sessionID := uuid.NewString()
	metrics.ActiveConnections.Set(1)
	defer metrics.ActiveConnections.Set(0)

	nettflog.Info(logrus.Fields{"session": sessionID, "peer": conn.RemoteAddr().String()}, "connection accepted")

	kindLabel := "unknown"
	var lastTransferred int64
	opt := frame.RecvOptions{
		Cancel: ctl,
		// transferred is cumulative per file, resetting to 0 when a
		// directory transfer moves on to its next entry; treat any
		// decrease as the start of a new file rather than a negative
		// delta.
		Progress: func(transferred, total int64, chunkSize int) {
			delta := transferred - lastTransferred
			if delta < 0 {
				delta = transferred
			}
			metrics.BytesTransferred.Add(float64(delta))
			lastTransferred = transferred
			metrics.ChunkSizeCurrent.Set(float64(chunkSize))
		},
		OnPrompt: func() {
			fmt.Fprintln(os.Stderr, "interrupt received, finishing current frame (interrupt again to force-abort)")
		},
		OnKind: func(k frame.Kind) {
			kindLabel = k.String()
		},
	}

	outcome := "ok"
	if err := frame.ReceiveFrame(conn, opt); err != nil {
		outcome = "error"
		nettflog.Error(logrus.Fields{"session": sessionID, "err": err}, "transfer failed")
		fmt.Fprintln(os.Stderr, err)
	}
	metrics.FramesTotal.WithLabelValues(kindLabel, outcome).Inc()
}
