package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// MaxPictureSize is the largest profile picture the server accepts.
const MaxPictureSize = 1 << 20

// ProfilePicture returns the session user's picture as base64, or "" if
// none is set.
func (c *Client) ProfilePicture(ctx context.Context) (string, error) {
	var res struct {
		ProfilePicture string `json:"profile_picture"`
	}
	if err := c.do(ctx, "get profile picture", http.MethodGet, "/api/v1/profile_picture", nil, &res); err != nil {
		return "", err
	}
	return res.ProfilePicture, nil
}

// UploadProfilePicture uploads r as the profile picture. At most
// MaxPictureSize bytes are accepted; larger input fails with
// ErrFileTooLarge before anything is sent.
func (c *Client) UploadProfilePicture(ctx context.Context, filename string, r io.Reader) (string, error) {
	const op = "upload profile picture"

	data, err := io.ReadAll(io.LimitReader(r, MaxPictureSize+1))
	if err != nil {
		return "", fmt.Errorf("api: %s: failed to read file: %w", op, err)
	}
	if len(data) > MaxPictureSize {
		return "", ErrFileTooLarge
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("profile_picture", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("api: %s: %w", op, err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("api: %s: %w", op, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("api: %s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/v1/upload_profile_picture"), &body)
	if err != nil {
		return "", fmt.Errorf("api: %s: %w", op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var res struct {
		ProfilePictureURL string `json:"profile_picture_url"`
	}
	if err := c.send(req, op, &res); err != nil {
		return "", err
	}
	return res.ProfilePictureURL, nil
}

// UploadProfilePictureFile uploads the file at path.
func (c *Client) UploadProfilePictureFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("api: upload profile picture: %w", err)
	}
	defer f.Close()

	return c.UploadProfilePicture(ctx, path, f)
}
