package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"quizforge/internal/app"
	"quizforge/internal/domain"
)

// WSHandler exposes the quiz session over a websocket: inbound messages are
// user intents, outbound messages are session snapshots and inline errors.
type WSHandler struct {
	session  *app.Session
	gen      app.Generator
	upgrader websocket.Upgrader

	mu     sync.Mutex
	editor *app.Editor
}

func NewWSHandler(session *app.Session, gen app.Generator) *WSHandler {
	return &WSHandler{
		session: session,
		gen:     gen,
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

type setNamePayload struct {
	Name string `json:"name"`
}

type answerPayload struct {
	QuestionID        string   `json:"questionId"`
	SelectedOptionIDs []string `json:"selectedOptionIds"`
	TextAnswer        string   `json:"textAnswer"`
}

type deleteQuestionPayload struct {
	QuestionID string `json:"questionId"`
}

type optionRefPayload struct {
	QuestionIndex int    `json:"questionIndex"`
	OptionID      string `json:"optionId"`
}

// questionFieldPayload is a tagged update: Field names the question field to
// replace, and only the matching value member is read.
type questionFieldPayload struct {
	QuestionIndex int     `json:"questionIndex"`
	Field         string  `json:"field"`
	Text          *string `json:"text,omitempty"`
	Type          *string `json:"questionType,omitempty"`
	Points        *int    `json:"points,omitempty"`
	Explanation   *string `json:"explanation,omitempty"`
}

type optionFieldPayload struct {
	QuestionIndex int     `json:"questionIndex"`
	OptionIndex   int     `json:"optionIndex"`
	Field         string  `json:"field"`
	Text          *string `json:"text,omitempty"`
	IsCorrect     *bool   `json:"isCorrect,omitempty"`
}

type generatePayload struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

type editorState struct {
	Questions  []domain.Question `json:"questions"`
	Generating bool              `json:"generating"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

var errMissingValue = errors.New("missing value for field")

func errUnsupported(kind string) error {
	return fmt.Errorf("unsupported %q", kind)
}

// ServeWS upgrades the request and wires the connection into the session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snapshot, ok := <-updates:
				if !ok {
					return
				}
				trySend(send, closeSignals, outboundMessage[any]{Type: "state", Payload: snapshot})
			case <-closeSignals:
				return
			}
		}
	}()

	out := &sender{send: send, done: closeSignals}
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r.Context(), inbound, out)
	}

	close(closeSignals)
	<-updatesDone
	<-writerDone
}

// sender delivers outbound messages until the connection tears down. It is
// safe to use from the async generation goroutine after the socket closed.
type sender struct {
	send chan outboundMessage[any]
	done chan struct{}
}

func (s *sender) message(msg outboundMessage[any]) {
	trySend(s.send, s.done, msg)
}

func trySend(send chan<- outboundMessage[any], done <-chan struct{}, msg outboundMessage[any]) {
	select {
	case send <- msg:
	case <-done:
	}
}

func (h *WSHandler) dispatch(ctx context.Context, inbound inboundMessage, send *sender) {
	switch inbound.Type {
	case "setName":
		var payload setNamePayload
		if !decode(inbound.Payload, &payload, send) {
			return
		}
		h.session.SetPlayerName(payload.Name)
	case "start":
		h.session.StartQuiz()
	case "next":
		h.session.GoToNextQuestion()
	case "prev":
		h.session.GoToPreviousQuestion()
	case "answer":
		var payload answerPayload
		if !decode(inbound.Payload, &payload, send) {
			return
		}
		answer, err := h.session.Answer(payload.QuestionID, payload.SelectedOptionIDs, payload.TextAnswer)
		if err != nil {
			sendError(send, err)
			return
		}
		send.message(outboundMessage[any]{Type: "answerResult", Payload: answer})
	case "complete":
		h.session.CompleteQuiz()
	case "reset":
		h.session.ResetQuiz()
	case "editorOpen":
		h.mu.Lock()
		h.editor = app.NewEditor(h.session, h.gen)
		editor := h.editor
		h.mu.Unlock()
		sendEditorState(send, editor)
	case "editorSave":
		if editor := h.currentEditor(send); editor != nil {
			editor.Save()
			h.dropEditor()
		}
	case "editorCancel":
		if editor := h.currentEditor(send); editor != nil {
			editor.Cancel()
			h.dropEditor()
		}
	case "editorAddQuestion":
		if editor := h.currentEditor(send); editor != nil {
			editor.AddQuestion()
			sendEditorState(send, editor)
		}
	case "editorDeleteQuestion":
		var payload deleteQuestionPayload
		if !decode(inbound.Payload, &payload, send) {
			return
		}
		if editor := h.currentEditor(send); editor != nil {
			editor.DeleteQuestion(payload.QuestionID)
			sendEditorState(send, editor)
		}
	case "editorSetQuestion":
		var payload questionFieldPayload
		if !decode(inbound.Payload, &payload, send) {
			return
		}
		if editor := h.currentEditor(send); editor != nil {
			if err := applyQuestionField(editor, payload); err != nil {
				sendError(send, err)
				return
			}
			sendEditorState(send, editor)
		}
	case "editorAddOption":
		var payload questionFieldPayload
		if !decode(inbound.Payload, &payload, send) {
			return
		}
		if editor := h.currentEditor(send); editor != nil {
			if err := editor.AddOption(payload.QuestionIndex); err != nil {
				sendError(send, err)
				return
			}
			sendEditorState(send, editor)
		}
	case "editorSetOption":
		var payload optionFieldPayload
		if !decode(inbound.Payload, &payload, send) {
			return
		}
		if editor := h.currentEditor(send); editor != nil {
			if err := applyOptionField(editor, payload); err != nil {
				sendError(send, err)
				return
			}
			sendEditorState(send, editor)
		}
	case "editorDeleteOption":
		var payload optionRefPayload
		if !decode(inbound.Payload, &payload, send) {
			return
		}
		if editor := h.currentEditor(send); editor != nil {
			if err := editor.DeleteOption(payload.QuestionIndex, payload.OptionID); err != nil {
				sendError(send, err)
				return
			}
			sendEditorState(send, editor)
		}
	case "editorGenerate":
		var payload generatePayload
		if !decode(inbound.Payload, &payload, send) {
			return
		}
		editor := h.currentEditor(send)
		if editor == nil {
			return
		}
		// The round-trip runs off the read loop so the indicator can go up
		// immediately and other intents stay serviceable.
		go func() {
			if _, err := editor.GenerateQuestions(ctx, payload.Topic, payload.Count); err != nil {
				sendError(send, err)
				return
			}
			sendEditorState(send, editor)
		}()
		sendEditorState(send, editor)
	default:
		sendError(send, errUnsupported(inbound.Type))
	}
}

func applyQuestionField(editor *app.Editor, payload questionFieldPayload) error {
	switch payload.Field {
	case "text":
		if payload.Text == nil {
			return errMissingValue
		}
		return editor.SetQuestionText(payload.QuestionIndex, *payload.Text)
	case "type":
		if payload.Type == nil {
			return errMissingValue
		}
		return editor.SetQuestionType(payload.QuestionIndex, domain.QuestionType(*payload.Type))
	case "points":
		if payload.Points == nil {
			return errMissingValue
		}
		return editor.SetQuestionPoints(payload.QuestionIndex, *payload.Points)
	case "explanation":
		if payload.Explanation == nil {
			return errMissingValue
		}
		return editor.SetQuestionExplanation(payload.QuestionIndex, *payload.Explanation)
	default:
		return errUnsupported(payload.Field)
	}
}

func applyOptionField(editor *app.Editor, payload optionFieldPayload) error {
	switch payload.Field {
	case "text":
		if payload.Text == nil {
			return errMissingValue
		}
		return editor.SetOptionText(payload.QuestionIndex, payload.OptionIndex, *payload.Text)
	case "isCorrect":
		if payload.IsCorrect == nil {
			return errMissingValue
		}
		return editor.SetOptionCorrect(payload.QuestionIndex, payload.OptionIndex, *payload.IsCorrect)
	default:
		return errUnsupported(payload.Field)
	}
}

func (h *WSHandler) currentEditor(send *sender) *app.Editor {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.editor == nil {
		send.message(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "editor not open"}})
		return nil
	}
	return h.editor
}

func (h *WSHandler) dropEditor() {
	h.mu.Lock()
	h.editor = nil
	h.mu.Unlock()
}

func decode(raw json.RawMessage, dst interface{}, send *sender) bool {
	if err := json.Unmarshal(raw, dst); err != nil {
		send.message(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid payload"}})
		return false
	}
	return true
}

func sendError(send *sender, err error) {
	send.message(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
}

func sendEditorState(send *sender, editor *app.Editor) {
	send.message(outboundMessage[any]{Type: "editorState", Payload: editorState{
		Questions:  editor.Questions(),
		Generating: editor.Generating(),
	}})
}
