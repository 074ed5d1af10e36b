package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"oasis/internal/gateway/entity"
	"oasis/internal/pipeline"
)

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.CreatedBy = entity.UserFromRequest(r).String()
	res, err := h.svc.Generate(r.Context(), req, nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

const (
	generateWSWriteWait = 10 * time.Second
	generateWSPongWait  = 60 * time.Second
	generateWSPingEvery = (generateWSPongWait * 9) / 10
)

var generateWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1 << 14,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// generateWSInbound is a pipeline request tagged with a message type.
// Type "generate" (or empty) starts a generation; "ping" is answered with
// "pong".
type generateWSInbound struct {
	Type string `json:"type"`
	pipeline.Request
}

type generateWSOutbound struct {
	Type       string           `json:"type"`
	Stage      pipeline.Stage   `json:"stage,omitempty"`
	Hash       string           `json:"hash,omitempty"`
	ArtifactID string           `json:"artifactId,omitempty"`
	Result     *pipeline.Result `json:"result,omitempty"`
	Code       string           `json:"code,omitempty"`
	Message    string           `json:"message,omitempty"`
}

// GenerateWS streams pipeline progress. Each generate message produces
// "progress" frames followed by one "result" or "error" frame.
func (h *Handler) GenerateWS(w http.ResponseWriter, r *http.Request) {
	createdBy := entity.UserFromRequest(r).String()
	if v := strings.TrimSpace(r.URL.Query().Get("user_id")); v != "" {
		createdBy = v
	}

	conn, err := generateWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(generateWSPongWait)); err != nil {
		h.logger.Warn("handler: ws set read deadline failed", "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(generateWSPongWait))
	})

	writeCh := make(chan generateWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(generateWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(generateWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(generateWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		var in generateWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushGenerateWS(ctx, writeCh, generateWSOutbound{Type: "pong"})
		case "", "generate":
			req := in.Request
			if req.CreatedBy == "" {
				req.CreatedBy = createdBy
			}
			go h.runGenerateWS(ctx, writeCh, req)
		default:
			pushGenerateWS(ctx, writeCh, generateWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "unsupported type: " + in.Type,
			})
		}
	}
}

func (h *Handler) runGenerateWS(ctx context.Context, writeCh chan<- generateWSOutbound, req pipeline.Request) {
	res, err := h.svc.Generate(ctx, req, func(ev pipeline.Event) {
		out := generateWSOutbound{
			Type:       "progress",
			Stage:      ev.Stage,
			Hash:       ev.Hash,
			ArtifactID: ev.ArtifactID,
			Message:    ev.Error,
		}
		pushGenerateWS(ctx, writeCh, out)
	})
	if err != nil {
		pushGenerateWS(ctx, writeCh, generateWSOutbound{
			Type:    "error",
			Code:    http.StatusText(statusFor(err)),
			Message: err.Error(),
		})
		return
	}
	pushGenerateWS(ctx, writeCh, generateWSOutbound{Type: "result", Hash: res.Hash, ArtifactID: res.Artifact.ID, Result: &res})
}

// pushGenerateWS blocks until the writer takes out or the connection ends.
func pushGenerateWS(ctx context.Context, writeCh chan<- generateWSOutbound, out generateWSOutbound) {
	select {
	case writeCh <- out:
	case <-ctx.Done():
	}
}
