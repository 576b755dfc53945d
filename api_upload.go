package console

import (
	"context"
	"io"
)

type uploadResponse struct {
	URL string `json:"url"`
}

// UploadAPI wraps POST /upload (multipart).
type UploadAPI struct {
	gw *Gateway
}

func NewUploadAPI(gw *Gateway) *UploadAPI {
	return &UploadAPI{gw: gw}
}

// File streams a single attachment and returns the URL the server stored it
// under, ready to be referenced from a report draft.
func (u *UploadAPI) File(ctx context.Context, filename string, file io.Reader) (string, error) {
	res := uploadResponse{}
	if err := u.gw.Upload(ctx, "/upload", "file", filename, file, nil, &res); err != nil {
		return "", err
	}
	return res.URL, nil
}
