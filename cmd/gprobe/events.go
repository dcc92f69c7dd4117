package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/rs/zerolog"
)

const (
	logChannel    = "/events/log"
	resultChannel = "/events/result"
)

// events serves session progress as server-sent events: every log record
// on /events/log and the final report on /events/result.
type events struct {
	addr string
	sse  *sse.Server
	srv  *http.Server
	ln   net.Listener
	log  zerolog.Logger
}

var _ io.Writer = &events{}

func newEvents(addr string) *events {
	e := &events{
		addr: addr,
		log:  zerolog.Nop(),
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(io.Discard, "", 0),
		}),
	}

	mux := http.NewServeMux()
	mux.Handle("/events/", e.sse)
	e.srv = &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		mux.ServeHTTP(w, req)
	})}
	return e
}

func (e *events) Start(log zerolog.Logger) error {
	ln, err := net.Listen("tcp", e.addr)
	if err != nil {
		return err
	}
	e.ln = ln
	e.log = log
	log.Info().Str("addr", ln.Addr().String()).Msg("serving events")
	go func() {
		err := e.srv.Serve(ln)
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("event stream")
		}
	}()
	return nil
}

// Addr is the bound listen address, valid after Start.
func (e *events) Addr() string { return e.ln.Addr().String() }

// Write forwards one JSON log record.
func (e *events) Write(p []byte) (int, error) {
	e.sse.SendMessage(logChannel, sse.SimpleMessage(string(bytes.TrimSpace(p))))
	return len(p), nil
}

type resultEvent struct {
	Session string      `json:"session"`
	Job     string      `json:"job"`
	Report  string      `json:"report"`
	Result  interface{} `json:"result"`
}

func (e *events) Result(session, job string, res fmt.Stringer) {
	data, err := json.Marshal(resultEvent{
		Session: session,
		Job:     job,
		Report:  res.String(),
		Result:  res,
	})
	if err != nil {
		e.log.Error().Err(err).Str("session", session).Msg("marshal result event")
		return
	}
	e.sse.SendMessage(resultChannel, sse.SimpleMessage(string(data)))
}

func (e *events) Close() error {
	e.sse.Shutdown()
	return e.srv.Close()
}
