package testutil

import (
	"context"
	"io"
	"sync"
)

type SentMail struct {
	To       string
	Username string
	Token    string
	BaseURL  string
}

// Mailer records verification emails and publishes them on Sent.
type Mailer struct {
	Sent chan SentMail
	Err  error
}

func NewMailer() *Mailer {
	return &Mailer{Sent: make(chan SentMail, 16)}
}

func (m *Mailer) SendVerification(_ context.Context, to, username, token, baseURL string) error {
	select {
	case m.Sent <- SentMail{To: to, Username: username, Token: token, BaseURL: baseURL}:
	default:
	}
	return m.Err
}

type Upload struct {
	Key         string
	Body        []byte
	ContentType string
}

// Uploader keeps uploaded avatars in memory.
type Uploader struct {
	mu      sync.Mutex
	Uploads []Upload
	Err     error
}

func (u *Uploader) Upload(_ context.Context, key string, body io.Reader, _ int64, contentType string) (string, error) {
	if u.Err != nil {
		return "", u.Err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.Uploads = append(u.Uploads, Upload{Key: key, Body: data, ContentType: contentType})
	return "https://cdn.test/" + key, nil
}
