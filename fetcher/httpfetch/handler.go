package httpfetch

import (
	"encoding/json"
	"net/http"
	"strings"

	conflictkit "github.com/c0deZ3R0/go-conflict-kit"
)

// StampSource supplies current version stamps to a StampHandler. The second
// return value reports whether the record exists.
type StampSource interface {
	CurrentStamp(listID, itemID string) (conflictkit.VersionStamp, bool)
}

// StampHandler serves version stamps at
// GET /lists/{listID}/items/{itemID}/stamp. Intended for tests, demos, and
// backing stores that want to expose the endpoint shape Client expects.
type StampHandler struct {
	source StampSource
}

// NewStampHandler creates a handler backed by the given source.
func NewStampHandler(source StampSource) *StampHandler {
	return &StampHandler{source: source}
}

func (h *StampHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	listID, itemID, ok := parseStampPath(r.URL.Path)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "malformed stamp path")
		return
	}

	stamp, found := h.source.CurrentStamp(listID, itemID)
	if !found {
		respondWithError(w, http.StatusNotFound, "record not found")
		return
	}

	respondWithJSON(w, http.StatusOK, stampPayload{
		Version:           stamp.Version,
		Modified:          stamp.Modified,
		ModifiedByName:    stamp.ModifiedBy.Name,
		ModifiedByContact: stamp.ModifiedBy.ContactID,
	})
}

// parseStampPath extracts identifiers from /lists/{listID}/items/{itemID}/stamp.
func parseStampPath(path string) (listID, itemID string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 5 || parts[0] != "lists" || parts[2] != "items" || parts[4] != "stamp" {
		return "", "", false
	}
	if parts[1] == "" || parts[3] == "" {
		return "", "", false
	}
	return parts[1], parts[3], true
}

// respondWithJSON responds to an HTTP request with a JSON payload.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to marshal response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError responds to an HTTP request with an error message.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
