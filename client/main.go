package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/survivalserver/network"
)

// send frames v as JSON and writes it to the server.
func send(c *websocket.Conn, msgID uint16, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	packet, err := network.EncodePacket(msgID, data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

type stateView struct {
	SessionID string `json:"session_id"`
	Phase     string `json:"phase"`
	Message   string `json:"message"`
	Options   []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	} `json:"options"`
}

func show(p *network.Packet) {
	switch p.MsgID {
	case network.MsgTypeState:
		var s stateView
		if err := json.Unmarshal(p.Data, &s); err != nil {
			log.Printf("bad state: %v", err)
			return
		}
		if s.Message != "" {
			log.Println(s.Message)
		}
		log.Printf("[%s] session %s", s.Phase, s.SessionID)
		for _, o := range s.Options {
			log.Printf("  %-18s %s", o.ID, o.Label)
		}
	case network.MsgTypeError:
		var e network.ErrorMessage
		json.Unmarshal(p.Data, &e)
		log.Printf("! %s (%s)", e.Message, e.Code)
	case network.MsgTypeHeartbeat:
	default:
		log.Printf("<- RECV (ID: %d): %s", p.MsgID, p.Data)
	}
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	resume := flag.String("session", "", "session id to resume")
	name := flag.String("name", "Survivor", "survivor name")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			p, err := network.DecodePacket(message)
			if err != nil {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			show(p)
		}
	}()

	if *resume != "" {
		err = send(c, network.MsgTypeResumeSession, network.ResumeSessionRequest{SessionID: *resume})
	} else {
		err = send(c, network.MsgTypeNewSession, network.NewSessionRequest{Name: *name})
	}
	if err != nil {
		log.Println("Write error:", err)
		return
	}

	log.Println("Type an option id or a command such as camp:rest, work:hunt, move:<place>.")

	lines := make(chan string)
	go func() {
		reader := bufio.NewScanner(os.Stdin)
		for reader.Scan() {
			lines <- strings.TrimSpace(reader.Text())
		}
		close(lines)
	}()

	heartbeat := time.NewTicker(20 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-done:
			return
		case <-heartbeat.C:
			if err := c.WriteMessage(websocket.BinaryMessage, []byte{0, network.MsgTypeHeartbeat, 0, 0}); err != nil {
				log.Println("Write error:", err)
				return
			}
		case text, ok := <-lines:
			if !ok {
				return
			}
			if text == "" {
				continue
			}
			msgID, payload := uint16(network.MsgTypeAction), interface{}(network.ActionRequest{Token: text})
			if text == "look" {
				msgID, payload = network.MsgTypeView, struct{}{}
			}
			if err := send(c, msgID, payload); err != nil {
				log.Println("Write error:", err)
				return
			}
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		}
	}
}
