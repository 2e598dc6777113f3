package testutil

import (
	"net/http"

	"docverify/pkg/requestcontext"
)

// WithAPIKey marks req as authenticated by keyID, as RequireAPIKey does.
func WithAPIKey(req *http.Request, keyID string) *http.Request {
	return req.WithContext(requestcontext.WithAPIKeyID(req.Context(), keyID))
}
