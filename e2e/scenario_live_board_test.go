package e2e

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"studio-live/client"
	"studio-live/domain"
	"studio-live/domain/event"
)

type testLiveBoardSuite struct {
	BaseLiveSuite
}

func TestLiveBoardSuite(t *testing.T) {
	suite.Run(t, &testLiveBoardSuite{})
}

func (s *testLiveBoardSuite) TestBoardCollaborationFlow() {
	room := domain.ProjectRoom(uuid.NewString())
	taskID := uuid.NewString()

	alice := s.DialAs("e2e-alice")
	bob := s.DialAs("e2e-bob")

	s.Run("Step 1: Both editors join the project room", func() {
		s.Require().NoError(alice.Join(room))
		s.AwaitFrame(alice, func(f client.ServerFrame) bool {
			return f.Type == "joined" && f.Room == room.String()
		})
		s.Require().NoError(bob.Join(room))
		s.AwaitFrame(bob, func(f client.ServerFrame) bool {
			return f.Type == "joined" && f.Room == room.String()
		})
	})

	s.Run("Step 2: The arrival is announced to the earlier member", func() {
		frame := s.AwaitFrame(alice, func(f client.ServerFrame) bool {
			return f.Kind == event.PresenceJoined
		})
		payload, err := event.DecodePayload(event.PresenceJoined, frame.Payload)
		s.Require().NoError(err)
		s.Require().Equal("e2e-bob", payload.(*event.PresencePayload).UserID)
	})

	s.Run("Step 3: A board change propagates in order", func() {
		s.Require().NoError(alice.Emit(event.TaskCreated, room, event.TaskCreatedPayload{
			TaskID: taskID, Title: "e2e task",
		}))
		s.Require().NoError(alice.Emit(event.TaskStatusChanged, room, event.TaskStatusPayload{
			TaskID: taskID, Status: "doing",
		}))

		created := s.AwaitFrame(bob, func(f client.ServerFrame) bool {
			return f.Type == "event" && f.Kind == event.TaskCreated
		})
		s.Require().Equal("e2e-alice", created.SenderID)

		moved := s.AwaitFrame(bob, func(f client.ServerFrame) bool {
			return f.Type == "event" && f.Kind == event.TaskStatusChanged
		})
		payload, err := event.DecodePayload(event.TaskStatusChanged, moved.Payload)
		s.Require().NoError(err)
		s.Require().Equal("doing", payload.(*event.TaskStatusPayload).Status)
	})

	s.Run("Step 4: A malformed status is bounced to the sender only", func() {
		s.Require().NoError(alice.Emit(event.TaskStatusChanged, room, map[string]string{
			"taskId": taskID, "status": "abandoned",
		}))
		frame := s.AwaitFrame(alice, func(f client.ServerFrame) bool {
			return f.Type == "error"
		})
		s.Require().Equal("bad_request", frame.Code)
	})

	s.Run("Step 5: Leaving is announced to the remaining member", func() {
		s.Require().NoError(bob.Leave(room))
		frame := s.AwaitFrame(alice, func(f client.ServerFrame) bool {
			return f.Kind == event.PresenceLeft
		})
		payload, err := event.DecodePayload(event.PresenceLeft, frame.Payload)
		s.Require().NoError(err)
		s.Require().Equal("e2e-bob", payload.(*event.PresencePayload).UserID)
	})
}
