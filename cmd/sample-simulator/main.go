// sample-simulator streams synthetic high-frequency eddy covariance
// samples to a running fvspart ingest listener, for testing daemon mode
// without an instrument.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	var (
		addr = flag.String("addr", "127.0.0.1:7200", "fvspart ingest address to connect to")
		hz   = flag.Float64("hz", 10, "Sampling frequency in Hz")
		seed = flag.Int64("seed", 1, "Random seed")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[sample-simulator] ", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Println("shutting down...")
		cancel()
	}()

	for ctx.Err() == nil {
		if err := stream(ctx, logger, *addr, *hz, *seed); err != nil {
			logger.Printf("stream error: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(2 * time.Second):
				logger.Println("reconnecting...")
			}
		}
	}
}

// stream connects to the ingest listener and emits samples until the
// connection drops or the context is cancelled.
func stream(ctx context.Context, logger *log.Logger, addr string, hz float64, seed int64) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Printf("connected to %s, streaming at %.3g Hz", addr, hz)

	rng := rand.New(rand.NewSource(seed))
	w := bufio.NewWriter(conn)
	ticker := time.NewTicker(time.Duration(float64(time.Second) / hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e1 := rng.Float64() - 0.5
			e2 := rng.Float64() - 0.5
			e3 := rng.Float64() - 0.5

			// Daytime-like surface exchange: upward moisture, downward CO2
			wind := 0.4 * e1
			vapor := 9.5e-3 + 1e-3*e1 + 2e-4*e2
			co2 := 6.8e-4 - 1.2e-5*e1 + 2e-6*e3

			if _, err := fmt.Fprintf(w, "%.6g,%.6g,%.6g\n", wind, vapor, co2); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
}
