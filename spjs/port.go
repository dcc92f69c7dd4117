package spjs

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mastercactapus/gprobe/machine/smoothie"
	"github.com/rs/zerolog"
)

var lastID int64

func nextID() string {
	id := atomic.AddInt64(&lastID, 1)
	return "gprobe_" + strconv.FormatInt(id, 36)
}

// Port is one serial port on the server as a byte stream. Each DataFrame
// is one controller line.
type Port struct {
	sp   *SPJS
	name string
	baud int
	log  zerolog.Logger

	pr *io.PipeReader
	pw *io.PipeWriter

	closeOnce sync.Once
	done      chan struct{}
}

var _ io.ReadWriteCloser = &Port{}

// OpenPort attaches to name, asking the server to open it at baud if it
// is not already open.
func OpenPort(sp *SPJS, name string, baud int, log zerolog.Logger) *Port {
	pr, pw := io.Pipe()
	p := &Port{
		sp:   sp,
		name: name,
		baud: baud,
		log:  log.With().Str("port", name).Logger(),
		pr:   pr,
		pw:   pw,
		done: make(chan struct{}),
	}
	go p.loop()
	return p
}

// NewChannel returns a controller line channel over an SPJS port.
func NewChannel(sp *SPJS, name string, baud int, timeout time.Duration, log zerolog.Logger) *smoothie.StreamChannel {
	return smoothie.NewLineChannel(OpenPort(sp, name, baud, log), timeout)
}

func (p *Port) ensureOpen(ports []SerialPort) {
	for _, port := range ports {
		if port.Name != p.name {
			continue
		}
		if !port.IsOpen {
			p.log.Info().Int("baud", p.baud).Msg("opening")
			go p.sp.WriteString(fmt.Sprintf("open %s %d", p.name, p.baud))
		}
		return
	}
	p.log.Warn().Msg("port not found on server")
}

func (p *Port) loop() {
	for {
		select {
		case <-p.done:
			return
		case <-p.sp.done:
			p.pw.CloseWithError(ErrClosed)
			return
		case v := <-p.sp.Messages():
			switch msg := v.(type) {
			case *DataFrame:
				if msg.Port != p.name {
					continue
				}
				data := msg.Data
				if !strings.HasSuffix(data, "\n") {
					data += "\n"
				}
				_, err := p.pw.Write([]byte(data))
				if err != nil {
					return
				}
			case *SerialPortList:
				p.ensureOpen(msg.SerialPorts)
			case *ErrorMessage:
				p.log.Warn().Str("error", msg.Error).Msg("server error")
			case *CmdStatus:
				if msg.Cmd == "WipedQueue" {
					p.log.Warn().Msg("server wiped the port queue")
				}
			}
		}
	}
}

func (p *Port) Read(b []byte) (int, error) {
	return p.pr.Read(b)
}

// Write sends b to the port as a single queued item.
func (p *Port) Write(b []byte) (int, error) {
	err := p.sp.SendJSON(JSON{
		Port: p.name,
		Data: []Data{{Data: string(b), ID: nextID()}},
	})
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		p.pw.Close()
	})
	return nil
}
