package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	serial "github.com/tarm/goserial"

	"github.com/micromet/fvspart/internal/log"
)

// SerialSource reads the same line protocol from a serial-attached
// instrument.
type SerialSource struct {
	ctx       context.Context
	wg        *sync.WaitGroup
	device    string
	baud      int
	assembler *Assembler
	rwc       io.ReadWriteCloser
}

// NewSerialSource creates a serial ingest source feeding the assembler
func NewSerialSource(ctx context.Context, wg *sync.WaitGroup, device string, baud int, assembler *Assembler) *SerialSource {
	// Use 19200 baud by default, applicable for USB connection. RS-232
	// should be set in the config to 115200
	if baud == 0 {
		baud = 19200
	}
	return &SerialSource{
		ctx:       ctx,
		wg:        wg,
		device:    device,
		baud:      baud,
		assembler: assembler,
	}
}

// Start launches the sample-reading goroutine
func (s *SerialSource) Start() {
	log.Infof("starting serial sample ingest on %v...", s.device)
	s.wg.Add(1)
	go s.getSamples()
}

// getSamples runs the sample reader, reconnecting if there is an error
func (s *SerialSource) getSamples() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			log.Info("cancellation request received. Cancelling serial sample reader.")
			if s.rwc != nil {
				s.rwc.Close()
			}
			return
		default:
			if s.rwc == nil {
				if err := s.connect(); err != nil {
					log.Errorf("could not open serial device %v: %v", s.device, err)
					if !s.sleep(5 * time.Second) {
						return
					}
					continue
				}
			}
			if err := s.readSamples(); err != nil {
				log.Error(err)
				s.rwc.Close()
				s.rwc = nil
				log.Info("attempting to reconnect...")
			}
		}
	}
}

func (s *SerialSource) connect() error {
	rwc, err := serial.OpenPort(&serial.Config{Name: s.device, Baud: s.baud})
	if err != nil {
		return err
	}
	s.rwc = rwc
	return nil
}

// readSamples parses sample records from the port and sends them to the
// window assembler
func (s *SerialSource) readSamples() error {
	scanner := bufio.NewScanner(s.rwc)
	for scanner.Scan() {
		select {
		case <-s.ctx.Done():
			log.Info("cancellation request received. Cancelling serial sample reader.")
			return nil
		default:
			sample, err := ParseSample(scanner.Text())
			if err != nil {
				log.Debugf("discarding malformed sample record: %v", err)
				continue
			}
			s.assembler.Add(sample)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading from serial device: %w", err)
	}
	return fmt.Errorf("serial device %v closed", s.device)
}

func (s *SerialSource) sleep(d time.Duration) bool {
	select {
	case <-s.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
