package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/laibhnoor/ChatApp/pkg/wire"
)

type LoginResponse struct {
	Token string `json:"token"`
}

func login(apiAddr, userID, username string) (string, error) {
	reqBody, _ := json.Marshal(map[string]string{"user_id": userID, "username": username})
	resp, err := http.Post(apiAddr+"/login", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login failed: %s", string(body))
	}

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", err
	}

	return loginResp.Token, nil
}

func send(c *websocket.Conn, ev wire.ClientEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, data)
}

func render(data []byte) {
	var probe struct {
		Type wire.EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		fmt.Printf("\rReceived raw: %s\n> ", data)
		return
	}

	switch probe.Type {
	case wire.EvNewMessage:
		var ev wire.NewMessage
		json.Unmarshal(data, &ev)
		fmt.Printf("\r%s: %s\n> ", ev.Message.Sender.Username, ev.Message.Content)
	case wire.EvMessageNotification:
		var ev wire.MessageNotification
		json.Unmarshal(data, &ev)
		fmt.Printf("\r[%s] new message from %s\n> ", ev.ConversationID, ev.Message.Sender.Username)
	case wire.EvUserTyping:
		var ev wire.UserTyping
		json.Unmarshal(data, &ev)
		if ev.IsTyping {
			fmt.Printf("\r%s is typing...\n> ", ev.Username)
		} else {
			fmt.Printf("\r%s stopped typing\n> ", ev.Username)
		}
	case wire.EvMessagesRead:
		var ev wire.MessagesRead
		json.Unmarshal(data, &ev)
		fmt.Printf("\r%s read %d message(s)\n> ", ev.ReadBy.Username, len(ev.MessageIDs))
	case wire.EvUserOnline, wire.EvUserOffline:
		var ev wire.Presence
		json.Unmarshal(data, &ev)
		state := "online"
		if probe.Type == wire.EvUserOffline {
			state = "offline"
		}
		fmt.Printf("\r%s is %s\n> ", ev.Username, state)
	case wire.EvError:
		var ev wire.ErrorEvent
		json.Unmarshal(data, &ev)
		fmt.Printf("\rerror (%s): %s\n> ", ev.Code, ev.Message)
	default:
		fmt.Printf("\rReceived: %s\n> ", data)
	}
}

func main() {
	serverAddr := flag.String("addr", "localhost:8080", "gateway service address")
	apiAddr := flag.String("api", "http://localhost:8081", "api service address")
	userID := flag.String("user", "user1", "user id")
	username := flag.String("name", "", "display name (defaults to user id)")
	conversation := flag.String("conv", "", "conversation id to join on connect")
	flag.Parse()

	if *username == "" {
		*username = *userID
	}

	log.Printf("Logging in as %s...", *userID)
	token, err := login(*apiAddr, *userID, *username)
	if err != nil {
		log.Fatal("Login failed:", err)
	}

	u := url.URL{Scheme: "ws", Host: *serverAddr, Path: "/ws"}
	log.Printf("connecting to %s", u.String())

	header := http.Header{}
	header.Add("Authorization", "Bearer "+token)

	c, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	current := *conversation
	if current != "" {
		send(c, wire.ClientEvent{Type: wire.EvJoinConversation, ConversationID: current})
	}

	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("read:", err)
				return
			}
			render(message)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	// Commands: /join <id>, /leave, /typing, /read <id...>, /quit,
	// anything else is sent as a message to the current conversation.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Print("> ")
		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				fmt.Print("> ")
				continue
			}

			var err error
			switch {
			case text == "/quit":
				interrupt <- os.Interrupt
				return

			case strings.HasPrefix(text, "/join "):
				current = strings.TrimSpace(strings.TrimPrefix(text, "/join "))
				err = send(c, wire.ClientEvent{Type: wire.EvJoinConversation, ConversationID: current})

			case text == "/leave":
				if current != "" {
					err = send(c, wire.ClientEvent{Type: wire.EvLeaveConversation, ConversationID: current})
					current = ""
				}

			case text == "/typing":
				err = send(c, wire.ClientEvent{Type: wire.EvTyping, ConversationID: current, IsTyping: true})

			case strings.HasPrefix(text, "/read "):
				var ids []int64
				for _, f := range strings.Fields(strings.TrimPrefix(text, "/read ")) {
					id, perr := strconv.ParseInt(f, 10, 64)
					if perr == nil {
						ids = append(ids, id)
					}
				}
				err = send(c, wire.ClientEvent{Type: wire.EvMarkAsRead, ConversationID: current, MessageIDs: ids})

			default:
				if current == "" {
					fmt.Print("no conversation joined, use /join <id>\n> ")
					continue
				}
				err = send(c, wire.ClientEvent{Type: wire.EvSendMessage, ConversationID: current, Content: text})
			}

			if err != nil {
				log.Println("write:", err)
				return
			}
			fmt.Print("> ")
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("interrupt")

			// Cleanly close the connection by sending a close message and then
			// waiting (with timeout) for the server to close the connection.
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("write close:", err)
				return
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		}
	}
}
