// cwctl is a command line helper for inspecting Chatwork rooms and the
// message classifier.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/chatwork"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/classifier"
	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()
	client := chatwork.NewClient(os.Getenv("CHATWORK_BASE_URL"), os.Getenv("CHATWORK_API_TOKEN"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := os.Args[1]
	switch cmd {
	case "me":
		me, err := client.Me(ctx)
		exitOnError(err)
		printJSON(me)

	case "read":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: cwctl read <room_id>")
			os.Exit(1)
		}
		msgs, err := client.GetMessages(ctx, os.Args[2], true)
		exitOnError(err)
		for _, msg := range msgs {
			res := classifier.Analyze(msg)
			ts := time.Unix(msg.SendTime, 0).Format("2006-01-02 15:04:05")
			flag := " "
			if res.RequiresReply {
				flag = "*"
			}
			fmt.Printf("%s [%s] %-6s %s: %s\n", flag, ts, res.Priority, msg.Account.Name, firstLine(msg.Body))
		}

	case "analyze":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: cwctl analyze <text>")
			os.Exit(1)
		}
		printJSON(classifier.Analyze(models.Message{Body: strings.Join(os.Args[2:], " ")}))

	case "post":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: cwctl post <room_id> <message>")
			os.Exit(1)
		}
		id, err := client.PostMessage(ctx, os.Args[2], strings.Join(os.Args[3:], " "))
		exitOnError(err)
		fmt.Printf("Posted: %s\n", id)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`cwctl - Chatwork triage helper

Usage: cwctl <command> [options]

Commands:
  me                      Show the account the token belongs to
  read <room>             Classify the latest messages of a room (* = needs reply)
  analyze <text>          Classify text locally
  post <room> <message>   Post a message to a room

Environment:
  CHATWORK_API_TOKEN   API token (required for me/read/post)
  CHATWORK_BASE_URL    API base URL (default: https://api.chatwork.com/v2)`)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
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
