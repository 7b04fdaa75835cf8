package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/hlog"

	"github.com/bimakw/swap-quoter/internal/domain/entities"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Str("code", code).Msg(message)
	}
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// parseAddressList parses a comma separated list of addresses
func parseAddressList(s string) ([]common.Hash, error) {
	var out []common.Hash
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := entities.ParseAddress(part)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
