package e2e

import (
	"fmt"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"

	"studio-live/auth"
	"studio-live/client"
)

// BaseLiveSuite connects the suite to a running core over websocket. The
// target address comes from the environment so the same suite runs against a
// local binary or a deployed instance.
type BaseLiveSuite struct {
	suite.Suite
	Config Config
	tokens *auth.TokenService
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseLiveSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping live e2e suite")
	}
	s.tokens = auth.NewTokenService(s.Config.JWTSecret, time.Hour)
}

// DialAs opens an authenticated connection for one user, with a colorized
// header in the logs.
func (s *BaseLiveSuite) DialAs(userID string) *client.Client {
	header := fmt.Sprintf("  ====== connecting as %s ======", userID)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	token, err := s.tokens.Generate(userID, false)
	s.Require().NoError(err)
	c, err := client.Dial(s.Config.ServerAddr, token, 32)
	s.Require().NoError(err, "Failed to connect to the core at "+s.Config.ServerAddr)
	s.T().Cleanup(func() { _ = c.Close() })
	return c
}

// AwaitFrame drains frames until one matches, tolerating presence chatter.
func (s *BaseLiveSuite) AwaitFrame(c *client.Client, match func(client.ServerFrame) bool) client.ServerFrame {
	deadline := time.After(5 * time.Second)
	for {
		select {
		case frame, ok := <-c.Frames:
			s.Require().True(ok, "connection closed while waiting for a frame")
			if match(frame) {
				return frame
			}
		case <-deadline:
			s.Require().Fail("no matching frame within the timeout")
			return client.ServerFrame{}
		}
	}
}
