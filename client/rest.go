package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPBackend is the Backend implementation over the REST surface. The
// session token travels in the custom "token" header on every call.
type HTTPBackend struct {
	BaseURL string
	Token   string
	HC      *http.Client
}

func NewHTTPBackend(baseURL, token string) *HTTPBackend {
	return &HTTPBackend{
		BaseURL: baseURL,
		Token:   token,
		HC:      &http.Client{Timeout: 15 * time.Second},
	}
}

// envelope is the uniform response wrapper of every endpoint.
type envelope struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	Users          []User          `json:"users"`
	UnseenMessages map[string]int  `json:"unseenMessages"`
	Messages       []Message       `json:"messages"`
	NewMessage     *Message        `json:"newMessage"`
	User           *User           `json:"user"`
	UserData       *User           `json:"userData"`
	Token          string          `json:"token"`
}

func (b *HTTPBackend) call(ctx context.Context, method, path string, body any) (*envelope, error) {
	var rd *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(buf)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if b.Token != "" {
		req.Header.Set("token", b.Token)
	}

	resp, err := b.HC.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	if !env.Success {
		if env.Message == "" {
			env.Message = resp.Status
		}
		return nil, fmt.Errorf("%s %s: %s", method, path, env.Message)
	}
	return &env, nil
}

func (b *HTTPBackend) Users(ctx context.Context) ([]User, map[string]int, error) {
	env, err := b.call(ctx, http.MethodGet, "/api/messages/users", nil)
	if err != nil {
		return nil, nil, err
	}
	unseen := env.UnseenMessages
	if unseen == nil {
		unseen = map[string]int{}
	}
	return env.Users, unseen, nil
}

func (b *HTTPBackend) Conversation(ctx context.Context, peerID string) ([]Message, error) {
	env, err := b.call(ctx, http.MethodGet, "/api/messages/"+peerID, nil)
	if err != nil {
		return nil, err
	}
	return env.Messages, nil
}

func (b *HTTPBackend) Send(ctx context.Context, peerID, text, image string) (*Message, error) {
	env, err := b.call(ctx, http.MethodPost, "/api/messages/send/"+peerID, map[string]string{
		"text":  text,
		"image": image,
	})
	if err != nil {
		return nil, err
	}
	if env.NewMessage == nil {
		return nil, fmt.Errorf("send: response missing newMessage")
	}
	return env.NewMessage, nil
}

func (b *HTTPBackend) MarkSeen(ctx context.Context, messageID string) error {
	_, err := b.call(ctx, http.MethodPut, "/api/messages/mark/"+messageID, nil)
	return err
}

func (b *HTTPBackend) DeleteConversation(ctx context.Context, peerID string) error {
	_, err := b.call(ctx, http.MethodDelete, "/api/messages/"+peerID, nil)
	return err
}

// Login authenticates and returns the token for subsequent calls and the
// websocket handshake.
func (b *HTTPBackend) Login(ctx context.Context, email, password string) (*User, string, error) {
	env, err := b.call(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, "", err
	}
	b.Token = env.Token
	return env.UserData, env.Token, nil
}
