// Whiteboard CLI - command line client for the collaborative
// whiteboard server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HIMANSHU6001/whiteboard/clients/go/whiteboard"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("WHITEBOARD_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}

	client := whiteboard.NewClient(baseURL)
	if token := os.Getenv("WHITEBOARD_TOKEN"); token != "" {
		client.Token = token
	}
	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health()
		exitOnError(err)
		printJSON(resp)

	case "register":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: whiteboard register <name> <email>")
			os.Exit(1)
		}
		client.Name = os.Args[2]
		client.Email = os.Args[3]
		u, err := client.Register(fmt.Sprintf("cli-%d", time.Now().Unix()), os.Args[2], os.Args[3])
		exitOnError(err)
		fmt.Printf("Registered as: %s <%s>\n", u.Name, u.Email)

	case "create":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: whiteboard create <title>")
			os.Exit(1)
		}
		wb, err := client.CreateWhiteboard(whiteboard.NewSessionID(), os.Args[2])
		exitOnError(err)
		fmt.Printf("Created whiteboard: %s (%s)\n", wb.ID, wb.Title)

	case "info":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: whiteboard info <id>")
			os.Exit(1)
		}
		wb, err := client.GetWhiteboard(os.Args[2])
		exitOnError(err)
		printJSON(wb)

	case "delete":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: whiteboard delete <id>")
			os.Exit(1)
		}
		exitOnError(client.DeleteWhiteboard(os.Args[2]))
		fmt.Println("Deleted.")

	case "ishost":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: whiteboard ishost <id>")
			os.Exit(1)
		}
		isHost, wb, err := client.IsHost(os.Args[2])
		exitOnError(err)
		fmt.Printf("Host of %q: %v\n", wb.Title, isHost)

	case "watch":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: whiteboard watch <id>")
			os.Exit(1)
		}
		watch(client, baseURL, os.Args[2])

	case "say":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: whiteboard say <id> <message>")
			os.Exit(1)
		}
		say(client, baseURL, os.Args[2], os.Args[3])

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

// watch joins the room over the websocket and prints relay traffic
// until interrupted.
func watch(client *whiteboard.Client, baseURL, roomID string) {
	if _, err := client.JoinWhiteboard(roomID); err != nil {
		exitOnError(err)
	}

	sock, err := whiteboard.Dial(context.Background(), baseURL, nil)
	exitOnError(err)
	defer sock.Close()

	sock.OnJoin(func(p whiteboard.Participant) {
		fmt.Printf("* %s joined\n", p.Name)
	})
	sock.OnChat(func(m whiteboard.ChatMessage) {
		ts := time.UnixMilli(m.Timestamp).Format("15:04:05")
		fmt.Printf("[%s] %s: %s\n", ts, m.Sender, m.Body)
	})
	sock.OnCanvas(func(c json.RawMessage) {
		fmt.Printf("~ canvas snapshot (%d bytes)\n", len(c))
	})

	exitOnError(sock.Join(roomID, client.Name))
	fmt.Printf("Watching %s as %s. Ctrl-C to stop.\n", roomID, client.Name)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

// say joins the room, sends one chat message, and leaves.
func say(client *whiteboard.Client, baseURL, roomID, body string) {
	sock, err := whiteboard.Dial(context.Background(), baseURL, nil)
	exitOnError(err)
	defer sock.Close()

	exitOnError(sock.Join(roomID, client.Name))
	exitOnError(sock.SendChat(roomID, client.Name, body))

	// Give the frame time to flush before the close handshake.
	time.Sleep(100 * time.Millisecond)
	fmt.Println("Sent.")
}

func usage() {
	fmt.Println(`Whiteboard CLI - collaborative whiteboard client

Usage: whiteboard <command> [options]

Commands:
  register <name> <email>  Register (idempotent per email)
  create <title>           Create a whiteboard session
  info <id>                Show session metadata
  delete <id>              Delete a session
  ishost <id>              Check whether you own a session
  watch <id>               Join a room and print relay traffic
  say <id> <message>       Send one chat message to a room
  health                   Check server health

Environment:
  WHITEBOARD_URL      Server URL (default: http://localhost:5000)
  WHITEBOARD_TOKEN    Bearer token for authenticated endpoints
  WHITEBOARD_CONFIG   Config directory (default: ~/.whiteboard)`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
