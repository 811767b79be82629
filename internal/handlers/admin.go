package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"github.com/example/tokenprog/internal/auth"
	"github.com/example/tokenprog/pkg/jsonutil"
)

// AdminHandler issues API keys to holders of the admin token.
type AdminHandler struct {
	Issuer     auth.APIKeyIssuer
	AdminToken string
}

func NewAdminHandler(issuer auth.APIKeyIssuer, adminToken string) *AdminHandler {
	return &AdminHandler{Issuer: issuer, AdminToken: adminToken}
}

// issueKeyRequest: an empty Key gets a random 32-byte hex key.
type issueKeyRequest struct {
	Key    string `json:"key"`
	Owner  string `json:"owner"`
	Active *bool  `json:"active"`
}

type issueKeyResponse struct {
	Key     string `json:"key"`
	Active  bool   `json:"active"`
	Owner   string `json:"owner,omitempty"`
	Created string `json:"created_at"`
}

// ServeHTTP handles POST /admin/keys.
func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonutil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.AdminToken == "" || r.Header.Get("X-Admin-Token") != h.AdminToken {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req issueKeyRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "bad request")
		return
	}
	key := req.Key
	if key == "" {
		var b [32]byte
		_, _ = rand.Read(b[:])
		key = hex.EncodeToString(b[:])
	}
	active := req.Active == nil || *req.Active
	if err := h.Issuer.Issue(r.Context(), key, active, req.Owner); err != nil {
		jsonutil.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Printf("event=key_issued api=%s owner=%q active=%t", auth.HashPrefix(key), req.Owner, active)
	jsonutil.JSON(w, http.StatusOK, issueKeyResponse{
		Key:     key,
		Active:  active,
		Owner:   req.Owner,
		Created: time.Now().UTC().Format(time.RFC3339),
	})
}
