package spjs

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// SPJS is a client for a Serial Port JSON Server websocket. It reconnects
// until closed.
type SPJS struct {
	url string
	log zerolog.Logger

	mx          sync.RWMutex
	serialPorts []SerialPort

	outgoing chan message
	incoming chan interface{}

	closeOnce sync.Once
	done      chan struct{}
}

type message struct {
	done    chan struct{}
	payload []byte
}

type DataFrame struct {
	Port string `json:"P"`
	Data string `json:"D"`
}
type CmdStatus struct {
	Cmd        string
	QueueCount int `json:"QCnt"`
	Type       []string
	Data       []string `json:"D"`
	ID         string   `json:"Id"`
}
type Version struct {
	Version string
}
type Hostname struct {
	Hostname string
}

type ErrorMessage struct {
	Error string
}
type SerialPortList struct {
	SerialPorts []SerialPort
}
type SerialPort struct {
	Name                      string
	Friendly                  string
	SerialNumber              string
	DeviceClass               string
	IsOpen                    bool
	IsPrimary                 bool
	RelatedNames              []string
	Baud                      int
	BufferAlgorithm           string
	AvailableBufferAlgorithms []string
	Ver                       float64
	USBVID                    string
	USBPID                    string
	FeedRateOverride          float64
}

// ErrClosed is returned when writing to a closed client.
var ErrClosed = errors.New("spjs: closed")

func NewSPJS(url string, log zerolog.Logger) *SPJS {
	sp := &SPJS{
		url:      url,
		log:      log.With().Str("spjs", url).Logger(),
		outgoing: make(chan message, 1000),
		incoming: make(chan interface{}, 1000),
		done:     make(chan struct{}),
	}

	go sp.loop()

	return sp
}

// Messages delivers decoded server messages: *DataFrame, *CmdStatus,
// *SerialPortList, *ErrorMessage, *Version or *Hostname.
func (sp *SPJS) Messages() <-chan interface{} {
	return sp.incoming
}

// SerialPorts returns the most recent port list.
func (sp *SPJS) SerialPorts() []SerialPort {
	sp.mx.RLock()
	defer sp.mx.RUnlock()
	return sp.serialPorts
}

// Close stops reconnecting and drops the connection.
func (sp *SPJS) Close() error {
	sp.closeOnce.Do(func() { close(sp.done) })
	return nil
}

func parseSPJSMessage(data []byte, msg map[string]json.RawMessage) (val interface{}, err error) {
	check := func(fieldName string, v interface{}) bool {
		if msg[fieldName] == nil {
			return false
		}
		val = v
		err = json.Unmarshal(data, val)
		return true
	}
	if check("Error", &ErrorMessage{}) {
		return
	}
	if check("Hostname", &Hostname{}) {
		return
	}
	if check("Version", &Version{}) {
		return
	}
	if check("SerialPorts", &SerialPortList{}) {
		return
	}
	if check("Cmd", &CmdStatus{}) {
		return
	}
	if check("D", &DataFrame{}) {
		return
	}

	return nil, errors.New("unknown message: " + string(data))
}

func (sp *SPJS) readLoop(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			sp.log.Debug().Err(err).Msg("read")
			return
		}
		if !bytes.HasPrefix(data, []byte("{")) {
			// ignore echo messages
			continue
		}
		var msg map[string]json.RawMessage
		err = json.Unmarshal(data, &msg)
		if err != nil {
			sp.log.Error().Err(err).Msg("read")
			continue
		}
		val, err := parseSPJSMessage(data, msg)
		if err != nil {
			sp.log.Warn().Err(err).Msg("parse")
			continue
		}
		if list, ok := val.(*SerialPortList); ok {
			sp.mx.Lock()
			sp.serialPorts = list.SerialPorts
			sp.mx.Unlock()
		}
		select {
		case sp.incoming <- val:
		case <-sp.done:
			return
		}
	}
}

func (sp *SPJS) loop() {
	var nextUp message

reconnect:
	for {
		select {
		case <-sp.done:
			return
		default:
		}

		sp.log.Info().Msg("connecting")
		ws, _, err := websocket.DefaultDialer.Dial(sp.url, nil)
		if err != nil {
			sp.log.Error().Err(err).Msg("connect")
			select {
			case <-time.After(3 * time.Second):
			case <-sp.done:
				return
			}
			continue
		}
		sp.log.Info().Msg("connected")
		ch := make(chan struct{})
		go sp.readLoop(ws, ch)
		go sp.WriteString("list") // refresh list on reconnect

		for {
			if nextUp.done != nil {
				err = ws.WriteMessage(websocket.TextMessage, nextUp.payload)
				if err != nil {
					sp.log.Error().Err(err).Msg("send")
					ws.Close()
					continue reconnect
				}
				close(nextUp.done)
				nextUp.done = nil
			}

			select {
			case <-ch:
				continue reconnect
			case <-sp.done:
				ws.Close()
				return
			case nextUp = <-sp.outgoing:
			}
		}
	}
}

type JSON struct {
	Port string `json:"P"`
	Data []Data
}
type Data struct {
	Data string `json:"D"`
	ID   string `json:"Id"`
}

func (sp *SPJS) send(payload []byte) error {
	ch := make(chan struct{})
	select {
	case sp.outgoing <- message{done: ch, payload: payload}:
	case <-sp.done:
		return ErrClosed
	}
	select {
	case <-ch:
		return nil
	case <-sp.done:
		return ErrClosed
	}
}

// SendJSON queues data for a port and blocks until it is written to the socket.
func (sp *SPJS) SendJSON(v JSON) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return sp.send(append([]byte("sendjson "), data...))
}

// WriteString sends a raw server command such as `list`.
func (sp *SPJS) WriteString(data string) error {
	return sp.send([]byte(data))
}
