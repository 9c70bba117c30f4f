package test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"studio-live/auth"
	"studio-live/client"
	"studio-live/domain"
	"studio-live/domain/event"
	"studio-live/infrastructure/ws"
	"studio-live/mocks"
	"studio-live/observability"
	"studio-live/repositories"
	"studio-live/runtime"
	"studio-live/runtime/workers"
	"studio-live/transport"
)

const frameTimeout = 2 * time.Second

type stack struct {
	server     *httptest.Server
	tokens     *auth.TokenService
	repository repositories.NotificationRepository
	directory  *mocks.MockAccessDirectory
}

func startStack(t *testing.T) *stack {
	t.Helper()
	req := require.New(t)
	log := slog.Default()

	// Reduced to 16 Mo for testing (avoid 20 Go of storage)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)

	ctrl := gomock.NewController(t)
	directory := mocks.NewMockAccessDirectory(ctrl)
	repository := repositories.NewNotificationRepository(db, log, lo.ToPtr(100))
	orchestrator := runtime.NewOrchestrator(
		log,
		workers.NewSupervisor(log, 200*time.Millisecond),
		runtime.NewRegistry(log),
		directory,
		repository,
		observability.NewStats(),
		256,
		time.Minute,
	)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req.NoError(orchestrator.Start(ctx))

	tokens := auth.NewTokenService("integration-secret", time.Hour)
	wsServer := ws.NewServer(log, orchestrator, tokens, transport.Config{
		SendBuffer:     32,
		WriteTimeout:   time.Second,
		PongTimeout:    10 * time.Second,
		PingInterval:   5 * time.Second,
		MaxMessageSize: 64 << 10,
	})

	router := chi.NewRouter()
	router.Mount("/ws", wsServer.Routes())
	httpServer := httptest.NewServer(router)

	t.Cleanup(func() {
		httpServer.Close()
		orchestrator.Stop()
		_ = db.Close()
	})
	return &stack{server: httpServer, tokens: tokens, repository: repository, directory: directory}
}

func (s *stack) dial(t *testing.T, userID string) *client.Client {
	t.Helper()
	token, err := s.tokens.Generate(userID, false)
	require.NoError(t, err)
	c, err := client.Dial(s.server.URL, token, 32)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// awaitFrame drains frames until one matches, tolerating interleaved
// presence chatter.
func awaitFrame(t *testing.T, c *client.Client, match func(client.ServerFrame) bool) client.ServerFrame {
	t.Helper()
	deadline := time.After(frameTimeout)
	for {
		select {
		case frame, ok := <-c.Frames:
			if !ok {
				t.Fatal("connection closed while waiting for a frame")
			}
			if match(frame) {
				return frame
			}
		case <-deadline:
			t.Fatal("no matching frame within the timeout")
		}
	}
}

func joinRoom(t *testing.T, c *client.Client, room domain.RoomKey) {
	t.Helper()
	require.NoError(t, c.Join(room))
	awaitFrame(t, c, func(f client.ServerFrame) bool {
		return f.Type == "joined" && f.Room == room.String()
	})
}

func Test_Scenario_Board_Update_Reaches_The_Room_And_The_Trail(t *testing.T) {
	req := require.New(t)
	stack := startStack(t)
	room := domain.ProjectRoom("p1")

	// Given the project has three participants, one of them offline
	stack.directory.EXPECT().CanAccess(gomock.Any(), gomock.Any(), room).Return(true, nil).AnyTimes()
	stack.directory.EXPECT().ParticipantsOf(gomock.Any(), room).
		Return([]string{"alice", "bob", "carol"}, nil).AnyTimes()

	// And alice and bob are connected and in the project room
	alice := stack.dial(t, "alice")
	bob := stack.dial(t, "bob")
	joinRoom(t, alice, room)
	joinRoom(t, bob, room)

	// When alice creates a task on the board
	req.NoError(alice.Emit(event.TaskCreated, room, event.TaskCreatedPayload{
		TaskID: "t1", Title: "Paint the sky",
	}))

	// Then bob sees the board change in real time
	frame := awaitFrame(t, bob, func(f client.ServerFrame) bool {
		return f.Type == "event" && f.Kind == event.TaskCreated
	})
	req.Equal("alice", frame.SenderID)
	req.Equal(room.String(), frame.Room)
	req.False(frame.Timestamp.IsZero())

	// And alice's own tab receives the echo too
	awaitFrame(t, alice, func(f client.ServerFrame) bool {
		return f.Type == "event" && f.Kind == event.TaskCreated
	})

	// And bob's live notification copy arrives
	pushed := awaitFrame(t, bob, func(f client.ServerFrame) bool {
		return f.Type == "notification"
	})
	req.Equal(`Task "Paint the sky" was created`, pushed.Notification.Summary)

	// And both non-actors, connected or not, got a durable record
	req.Eventually(func() bool {
		fetched, _, err := stack.repository.List("carol", nil)
		return err == nil && len(fetched) == 1
	}, frameTimeout, 20*time.Millisecond)
	fetched, _, err := stack.repository.List("bob", nil)
	req.NoError(err)
	req.Len(fetched, 1)
	req.False(fetched[0].Read)
	fetched, _, err = stack.repository.List("alice", nil)
	req.NoError(err)
	req.Empty(fetched)
}

func Test_Scenario_Presence_Announcements(t *testing.T) {
	req := require.New(t)
	stack := startStack(t)
	room := domain.SceneRoom("s1")
	stack.directory.EXPECT().CanAccess(gomock.Any(), gomock.Any(), room).Return(true, nil).AnyTimes()

	// Given alice is alone in the scene
	alice := stack.dial(t, "alice")
	joinRoom(t, alice, room)

	// When bob joins and later leaves
	bob := stack.dial(t, "bob")
	joinRoom(t, bob, room)

	// Then alice is told about the arrival
	arrival := awaitFrame(t, alice, func(f client.ServerFrame) bool {
		return f.Kind == event.PresenceJoined
	})
	payload, err := event.DecodePayload(event.PresenceJoined, arrival.Payload)
	req.NoError(err)
	req.Equal("bob", payload.(*event.PresencePayload).UserID)

	req.NoError(bob.Leave(room))

	// And about the departure
	departure := awaitFrame(t, alice, func(f client.ServerFrame) bool {
		return f.Kind == event.PresenceLeft
	})
	payload, err = event.DecodePayload(event.PresenceLeft, departure.Payload)
	req.NoError(err)
	req.Equal("bob", payload.(*event.PresencePayload).UserID)
}

func Test_Scenario_Disconnect_Announces_Departure(t *testing.T) {
	req := require.New(t)
	stack := startStack(t)
	room := domain.ProjectRoom("p1")
	stack.directory.EXPECT().CanAccess(gomock.Any(), gomock.Any(), room).Return(true, nil).AnyTimes()

	alice := stack.dial(t, "alice")
	joinRoom(t, alice, room)

	token, err := stack.tokens.Generate("bob", false)
	req.NoError(err)
	bob, err := client.Dial(stack.server.URL, token, 32)
	req.NoError(err)
	joinRoom(t, bob, room)

	// When bob's connection dies without a leave frame
	req.NoError(bob.Close())

	// Then the room learns about the departure anyway
	awaitFrame(t, alice, func(f client.ServerFrame) bool {
		return f.Kind == event.PresenceLeft
	})
}

func Test_Scenario_Denied_Join_And_Policy_Rejections(t *testing.T) {
	req := require.New(t)
	stack := startStack(t)
	secret := domain.ProjectRoom("vault")

	// Given mallory may not view the project
	stack.directory.EXPECT().CanAccess(gomock.Any(), "mallory", secret).Return(false, nil)

	mallory := stack.dial(t, "mallory")

	// When she tries to join
	req.NoError(mallory.Join(secret))

	// Then she gets a forbidden error frame, not a join ack
	frame := awaitFrame(t, mallory, func(f client.ServerFrame) bool { return f.Type == "error" })
	req.Equal("forbidden", frame.Code)

	// And emitting into a room she never joined is refused too
	stack.directory.EXPECT().CanAccess(gomock.Any(), "mallory", gomock.Any()).Return(true, nil).AnyTimes()
	open := domain.ProjectRoom("open")
	req.NoError(mallory.Emit(event.TaskCreated, open, event.TaskCreatedPayload{TaskID: "t", Title: "x"}))
	frame = awaitFrame(t, mallory, func(f client.ServerFrame) bool { return f.Type == "error" })
	req.Equal("forbidden", frame.Code)

	// And a malformed payload never reaches anyone
	joinRoom(t, mallory, open)
	req.NoError(mallory.Emit(event.TaskStatusChanged, open, map[string]string{
		"taskId": "t1", "status": "abandoned",
	}))
	frame = awaitFrame(t, mallory, func(f client.ServerFrame) bool { return f.Type == "error" })
	req.Equal("bad_request", frame.Code)

	// And an uncatalogued kind is refused outright
	req.NoError(mallory.Emit("task.exploded", open, map[string]string{}))
	frame = awaitFrame(t, mallory, func(f client.ServerFrame) bool { return f.Type == "error" })
	req.Equal("unknown_kind", frame.Code)
}

func Test_Scenario_Bad_Token_Never_Upgrades(t *testing.T) {
	req := require.New(t)
	stack := startStack(t)

	// When dialing with a forged credential
	_, err := client.Dial(stack.server.URL, "not-a-token", 1)

	// Then no connection is established at all
	req.Error(err)
}

func Test_Scenario_Ephemeral_Events_Skip_The_Sender(t *testing.T) {
	req := require.New(t)
	stack := startStack(t)
	room := domain.ProjectRoom("p1")
	stack.directory.EXPECT().CanAccess(gomock.Any(), gomock.Any(), room).Return(true, nil).AnyTimes()

	alice := stack.dial(t, "alice")
	bob := stack.dial(t, "bob")
	joinRoom(t, alice, room)
	joinRoom(t, bob, room)

	// When alice moves her cursor
	req.NoError(alice.Emit(event.CursorMoved, room, event.CursorPayload{X: 10, Y: 20}))
	// And then creates a task
	req.NoError(alice.Emit(event.TaskCreated, room, event.TaskCreatedPayload{TaskID: "t1", Title: "after"}))

	// Then bob receives the cursor move before the task event
	frame := awaitFrame(t, bob, func(f client.ServerFrame) bool {
		return f.Kind == event.CursorMoved || f.Kind == event.TaskCreated
	})
	req.Equal(event.CursorMoved, frame.Kind)

	// And alice only ever sees her own task event, never her own cursor
	frame = awaitFrame(t, alice, func(f client.ServerFrame) bool {
		return f.Kind == event.CursorMoved || f.Kind == event.TaskCreated
	})
	req.Equal(event.TaskCreated, frame.Kind)
}

func Test_Scenario_Per_Origin_Order_Is_Preserved(t *testing.T) {
	req := require.New(t)
	stack := startStack(t)
	room := domain.TaskRoom("t1")
	stack.directory.EXPECT().CanAccess(gomock.Any(), gomock.Any(), room).Return(true, nil).AnyTimes()
	stack.directory.EXPECT().ParticipantsOf(gomock.Any(), room).Return([]string{"alice", "bob"}, nil).AnyTimes()

	alice := stack.dial(t, "alice")
	bob := stack.dial(t, "bob")
	joinRoom(t, alice, room)
	joinRoom(t, bob, room)

	// When alice posts three comments back to back
	bodies := []string{"first", "second", "third"}
	for i, body := range bodies {
		req.NoError(alice.Emit(event.CommentCreated, room, event.CommentPayload{
			CommentID: string(rune('a' + i)), Body: body,
		}))
	}

	// Then bob sees them in submission order
	var got []string
	for len(got) < len(bodies) {
		frame := awaitFrame(t, bob, func(f client.ServerFrame) bool {
			return f.Type == "event" && f.Kind == event.CommentCreated
		})
		payload, err := event.DecodePayload(event.CommentCreated, frame.Payload)
		req.NoError(err)
		got = append(got, payload.(*event.CommentPayload).Body)
	}
	req.Equal(bodies, got)
}
