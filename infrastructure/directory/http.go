// Package directory implements the external access-control collaborator as
// a thin HTTP client against the CRUD application's internal authorization
// endpoints. The real-time core never reads the relational store directly.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"studio-live/domain"
)

type HTTPDirectory struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

func NewHTTPDirectory(baseURL string, timeout time.Duration, log *slog.Logger) *HTTPDirectory {
	return &HTTPDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log.With(slog.String("component", "access_directory")),
	}
}

func (d *HTTPDirectory) CanAccess(ctx context.Context, userID string, room domain.RoomKey) (bool, error) {
	var res struct {
		Allowed bool `json:"allowed"`
	}
	params := url.Values{"user": {userID}, "room": {room.String()}}
	if err := d.get(ctx, "/internal/access", params, &res); err != nil {
		return false, err
	}
	return res.Allowed, nil
}

func (d *HTTPDirectory) ParticipantsOf(ctx context.Context, room domain.RoomKey) ([]string, error) {
	var res struct {
		Participants []string `json:"participants"`
	}
	params := url.Values{"room": {room.String()}}
	if err := d.get(ctx, "/internal/participants", params, &res); err != nil {
		return nil, err
	}
	return res.Participants, nil
}

func (d *HTTPDirectory) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		d.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("directory call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("directory call %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
