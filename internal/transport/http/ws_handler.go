package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/smarvasti/haftify/internal/domain"
	"github.com/smarvasti/haftify/internal/quiz"
)

type WSHandler struct {
	service  *quiz.Service
	upgrader websocket.Upgrader
}

func NewWSHandler(service *quiz.Service) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	ModuleID   string `json:"moduleId,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`
	QuestionID string `json:"questionId,omitempty"`
}

type togglePayload struct {
	Answer string `json:"answer"`
}

type repeatPayload struct {
	Mode string `json:"mode"`
}

type settingsPayload struct {
	FilterMode    string `json:"filterMode"`
	ProgressScope string `json:"progressScope"`
}

type timerPayload struct {
	Action string `json:"action"`
}

type answerResult struct {
	Correct      bool                      `json:"correct"`
	Explanations []quiz.Explanation        `json:"explanations,omitempty"`
	Completion   *domain.CompletionSummary `json:"completion,omitempty"`
}

type advanceResult struct {
	Kind       quiz.OutcomeKind          `json:"kind"`
	Module     *domain.ModuleSummary     `json:"module,omitempty"`
	Completion *domain.CompletionSummary `json:"completion,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	catalogID := r.URL.Query().Get("catalogId")
	emailVerified := r.URL.Query().Get("emailVerified") == "true"
	if userID == "" || catalogID == "" {
		http.Error(w, "missing userId or catalogId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	opened, err := h.service.Open(r.Context(), userID, catalogID, emailVerified)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel, err := h.service.Subscribe(r.Context(), userID, catalogID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	defer h.service.Leave(r.Context(), userID, catalogID)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "view", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "opened", Payload: opened}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, userID, catalogID, inbound, send)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, userID, catalogID string, inbound inboundMessage, send chan<- outboundMessage[any]) {
	ctx := r.Context()
	fail := func(err error) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}

	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid select payload"))
			return
		}
		var err error
		switch {
		case payload.QuestionID != "":
			_, err = h.service.SelectQuestion(ctx, userID, catalogID, payload.QuestionID)
		case payload.CategoryID != "":
			_, err = h.service.SelectCategory(ctx, userID, catalogID, payload.CategoryID)
		case payload.ModuleID != "":
			_, err = h.service.SelectModule(ctx, userID, catalogID, payload.ModuleID)
		default:
			err = errors.New("select payload needs moduleId, categoryId or questionId")
		}
		if err != nil {
			fail(err)
		}
	case "toggleAnswer":
		var payload togglePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid toggleAnswer payload"))
			return
		}
		if _, err := h.service.ToggleAnswer(ctx, userID, catalogID, payload.Answer); err != nil {
			fail(err)
		}
	case "submit":
		result, err := h.service.Submit(ctx, userID, catalogID)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "answerResult", Payload: answerResult{
			Correct:      result.Correct,
			Explanations: result.Explanations,
			Completion:   result.Completion,
		}}
	case "advance":
		result, err := h.service.Advance(ctx, userID, catalogID)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "advanceResult", Payload: advanceResult{
			Kind:       result.Kind,
			Module:     result.Module,
			Completion: result.Completion,
		}}
	case "repeatModule":
		if _, err := h.service.RepeatModule(ctx, userID, catalogID); err != nil {
			fail(err)
		}
	case "nextModule":
		if _, err := h.service.NextModule(ctx, userID, catalogID); err != nil {
			fail(err)
		}
	case "repeatCatalog":
		var payload repeatPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid repeatCatalog payload"))
			return
		}
		mode, err := quiz.ParseRepeatMode(payload.Mode)
		if err != nil {
			fail(err)
			return
		}
		if _, err := h.service.RepeatCatalog(ctx, userID, catalogID, mode); err != nil {
			fail(err)
		}
	case "settings":
		var payload settingsPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid settings payload"))
			return
		}
		mode, err := domain.ParseFilterMode(payload.FilterMode)
		if err != nil {
			fail(err)
			return
		}
		scope, err := domain.ParseProgressScope(payload.ProgressScope)
		if err != nil {
			fail(err)
			return
		}
		if _, err := h.service.UpdateSettings(ctx, userID, catalogID, domain.Settings{FilterMode: mode, ProgressScope: scope}); err != nil {
			fail(err)
		}
	case "timer":
		var payload timerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid timer payload"))
			return
		}
		if _, err := h.service.Timer(ctx, userID, catalogID, quiz.TimerAction(payload.Action)); err != nil {
			fail(err)
		}
	default:
		fail(errors.New("unsupported message type"))
	}
}
