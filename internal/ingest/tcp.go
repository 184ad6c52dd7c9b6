package ingest

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/gnet/v2"

	"github.com/micromet/fvspart/internal/log"
)

// TCPServer accepts newline-delimited sample records over TCP using a
// gnet event loop.
type TCPServer struct {
	gnet.BuiltinEventEngine

	addr      string
	assembler *Assembler
	eng       gnet.Engine
}

// NewTCPServer creates a TCP ingest server feeding the assembler
func NewTCPServer(listenAddr string, port int, assembler *Assembler) *TCPServer {
	return &TCPServer{
		addr:      fmt.Sprintf("tcp://%v:%v", listenAddr, port),
		assembler: assembler,
	}
}

// Start runs the event loop until the context is cancelled
func (s *TCPServer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("starting TCP sample ingest on %v", s.addr)
		if err := gnet.Run(s, s.addr, gnet.WithMulticore(true)); err != nil {
			log.Errorf("TCP ingest server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		log.Info("Shutting down the TCP ingest server...")
		s.eng.Stop(context.Background())
	}()
}

// OnBoot saves the engine handle so the server can be stopped later
func (s *TCPServer) OnBoot(eng gnet.Engine) gnet.Action {
	s.eng = eng
	return gnet.None
}

// OnOpen attaches a per-connection buffer for partial lines
func (s *TCPServer) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	c.SetContext(&bytes.Buffer{})
	return nil, gnet.None
}

// OnTraffic consumes complete lines from the connection, leaving any
// trailing partial line buffered for the next read event.
func (s *TCPServer) OnTraffic(c gnet.Conn) gnet.Action {
	data, err := c.Next(-1)
	if err != nil {
		log.Errorf("error reading from ingest connection: %v", err)
		return gnet.Close
	}

	buf := c.Context().(*bytes.Buffer)
	buf.Write(data)

	for {
		line, err := buf.ReadString('\n')
		if err != nil {
			// No complete line yet; keep the partial for later
			buf.Reset()
			buf.WriteString(line)
			return gnet.None
		}
		s.consumeLine(line)
	}
}

func (s *TCPServer) consumeLine(line string) {
	if len(bytes.TrimSpace([]byte(line))) == 0 {
		return
	}
	sample, err := ParseSample(line)
	if err != nil {
		log.Debugf("discarding malformed sample record: %v", err)
		return
	}
	s.assembler.Add(sample)
}
