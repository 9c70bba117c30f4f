// Command tester is a development client: it mints a token, connects to a
// running studio-live instance, joins rooms given on the command line and
// renders everything the server pushes.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"studio-live/auth"
	"studio-live/client"
	"studio-live/domain"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "base URL of the live server")
	userID := flag.String("user", "tester", "user id to connect as")
	secret := flag.String("secret", "", "JWT secret of the target instance")
	admin := flag.Bool("admin", false, "mint an admin token")
	rooms := flag.String("rooms", "", "comma-separated room keys to join")
	flag.Parse()

	if err := run(*serverURL, *userID, *secret, *admin, *rooms); err != nil {
		color.Red.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(serverURL, userID, secret string, admin bool, rooms string) error {
	if secret == "" {
		return fmt.Errorf("missing -secret")
	}

	tokens := auth.NewTokenService(secret, time.Hour)
	token, err := tokens.Generate(userID, admin)
	if err != nil {
		return err
	}

	c, err := client.Dial(serverURL, token, 64)
	if err != nil {
		return err
	}
	defer c.Close()
	color.Green.Printf("Connected to %s as %s\n", serverURL, userID)

	for _, roomStr := range strings.Split(rooms, ",") {
		if roomStr == "" {
			continue
		}
		room, err := domain.ParseRoomKey(strings.TrimSpace(roomStr))
		if err != nil {
			return err
		}
		if err := c.Join(room); err != nil {
			return err
		}
		color.Cyan.Printf("Joining %s\n", room)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sig:
			color.Yellow.Println("Bye")
			return nil
		case frame, ok := <-c.Frames:
			if !ok {
				return fmt.Errorf("connection closed by server")
			}
			render(frame)
		}
	}
}

func render(frame client.ServerFrame) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Type", "Kind", "Room", "Sender", "Detail"})

	detail := string(frame.Payload)
	switch frame.Type {
	case "notification":
		if frame.Notification != nil {
			detail = frame.Notification.Summary
		}
		color.Magenta.Println("Notification received")
	case "error":
		detail = frame.Code + ": " + frame.Message
		color.Red.Println("Server rejected a frame")
	}

	table.Append([]string{frame.Type, string(frame.Kind), frame.Room, frame.SenderID, detail})
	table.Render()
}
