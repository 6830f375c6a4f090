package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/jconnolly84/quizmas/internal/handler/health"
	"github.com/jconnolly84/quizmas/internal/quiz"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type roomPath struct {
	RoomID string `path:"roomID" description:"Room code, 1-64 of [A-Za-z0-9_-]."`
}

type bankQuery struct {
	roomPath
	Overwrite bool `query:"overwrite" description:"Replace an existing question bank."`
}

// operation is one documented route.
type operation struct {
	method, path         string
	summary, description string
	req, resp            any
	status               int
	contentType          string
	errors               []int
}

func roomOp(method, path, summary, description string, req, resp any, status int, errs ...int) operation {
	return operation{
		method:      method,
		path:        "/api/rooms/{roomID}" + path,
		summary:     summary,
		description: description,
		req:         withPath(req),
		resp:        resp,
		status:      status,
		errors:      append([]int{http.StatusBadRequest, http.StatusNotFound}, errs...),
	}
}

func withPath(v any) any {
	if v == nil {
		return roomPath{}
	}
	return v
}

func actOperations(name, promptNoun string) []operation {
	base := "/" + name
	return []operation{
		roomOp(http.MethodPost, base, "Start "+name,
			"Enters the "+name+" round, picks the team and "+promptNoun+", starts the timer and adds the "+promptNoun+" to the used pool.",
			struct {
				roomPath
				ActRequest
			}{}, nil, http.StatusNoContent, http.StatusConflict),
		roomOp(http.MethodPost, base+"/stop", "Stop "+name+" timer", "Stops and clears the timer without revealing the "+promptNoun+".",
			nil, nil, http.StatusNoContent),
		roomOp(http.MethodPost, base+"/reveal", "Reveal "+promptNoun, "Reveals the "+promptNoun+" and stops the timer.",
			nil, nil, http.StatusNoContent),
		roomOp(http.MethodDelete, base+"/used", "Reset "+name+" pool", "Empties the used "+promptNoun+" pool.",
			nil, nil, http.StatusNoContent),
	}
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Quizmas API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Shared room state for the Quizmas party quiz: buzzer, scores and stage.")

	ops := []operation{
		{
			method: http.MethodGet, path: "/healthz",
			summary:     "Health check",
			description: "Returns the health status of backend dependencies.",
			resp:        map[string]health.Result{}, status: http.StatusOK,
			errors: []int{http.StatusServiceUnavailable},
		},
		{
			method: http.MethodPost, path: "/api/rooms",
			summary:     "Create room",
			description: "Creates a room under a fresh room code.",
			resp:        RoomResponse{}, status: http.StatusCreated,
		},
		roomOp(http.MethodPut, "", "Ensure room",
			"Creates the room with defaults if missing, otherwise back-fills missing top-level fields. Idempotent.",
			nil, RoomResponse{}, http.StatusOK),
		roomOp(http.MethodGet, "", "Get room", "Returns the current room document.",
			nil, RoomResponse{}, http.StatusOK),
		roomOp(http.MethodPut, "/bank", "Store question bank",
			"Stores the question bank unless one exists and overwrite is not set.",
			bankQuery{}, QuestionBankResponse{}, http.StatusOK),
		roomOp(http.MethodPost, "/buzz", "Buzz",
			"Attempts to take the buzzer lock. Exactly one team wins until the lock is reset.",
			struct {
				roomPath
				TeamRequest
			}{}, quiz.BuzzResult{}, http.StatusOK, http.StatusConflict),
		roomOp(http.MethodDelete, "/buzz", "Reset buzzer", "Releases the buzzer lock.",
			nil, nil, http.StatusNoContent),
		roomOp(http.MethodPost, "/teams", "Register team", "Adds a team with a zero score if not present.",
			struct {
				roomPath
				TeamRequest
			}{}, nil, http.StatusNoContent, http.StatusConflict),
		roomOp(http.MethodPost, "/scores", "Change score",
			"Adds delta to the team's score, registering the team if needed. Returns the new score.",
			struct {
				roomPath
				ScoreRequest
			}{}, ScoreResponse{}, http.StatusOK, http.StatusConflict),
		roomOp(http.MethodPut, "/live", "Show question",
			"Enters the questions round with the given question, hides the answer and resets the buzzer.",
			nil, nil, http.StatusNoContent),
		roomOp(http.MethodPut, "/reveal", "Reveal answer", "Shows or hides the answer to the live question.",
			struct {
				roomPath
				RevealRequest
			}{}, nil, http.StatusNoContent),
		roomOp(http.MethodDelete, "/stage", "Clear stage", "Returns the room to idle and clears all round state.",
			nil, nil, http.StatusNoContent),
	}
	ops = append(ops, actOperations("charades", "person")...)
	ops = append(ops, actOperations("hum", "song")...)
	ops = append(ops,
		operation{
			method: http.MethodGet, path: "/api/rooms/{roomID}/events",
			summary:     "Room event stream",
			description: "Server-Sent Events stream of room documents, starting with the current state. A missing room is sent as null.",
			req:         roomPath{}, status: http.StatusOK, contentType: "text/event-stream",
		},
		operation{
			method: http.MethodGet, path: "/api/rooms/{roomID}/ws",
			summary:     "Room WebSocket",
			description: "WebSocket carrying the same room documents as the event stream.",
			req:         roomPath{}, status: http.StatusSwitchingProtocols, contentType: "text/plain",
		},
	)

	for _, op := range ops {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		if op.contentType != "" {
			oc.AddRespStructure(nil, openapi.WithHTTPStatus(op.status), openapi.WithContentType(op.contentType))
		} else {
			oc.AddRespStructure(op.resp, openapi.WithHTTPStatus(op.status))
		}
		for _, status := range op.errors {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(status))
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
