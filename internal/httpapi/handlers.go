package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	aguievents "github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/spetersoncode/almond/agui"
	"github.com/spetersoncode/almond/analyzer"
	"github.com/spetersoncode/almond/workflow"
)

// BatchRequest is the body of POST /v1/workflow/classify/batch.
type BatchRequest struct {
	Requests []analyzer.ClassifyRequest `json:"requests"`
}

// BatchResponse holds batch results in request order.
type BatchResponse struct {
	Results []*analyzer.ClassificationResult `json:"results"`
}

// run adapts an analyzer operation to a JSON endpoint. A run that ended on
// the error path is still a 200 with success=false in the body.
func run[Req, Res any](op func(context.Context, *Req) (Res, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		respond(c, c.ShouldBindJSON, op)
	}
}

func respond[Req, Res any](c *gin.Context, bind func(any) error, op func(context.Context, *Req) (Res, error)) {
	req := new(Req)
	if err := bind(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	res, err := op(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Analysis types accepted by POST /v1/analyze.
const (
	AnalysisClassification = "classification"
	AnalysisEvolution      = "evolution"
	AnalysisRetrospect     = "retrospect"
	AnalysisUnderstanding  = "understanding"
)

// analyzeEnvelope selects the operation of POST /v1/analyze. The rest of
// the body is the request of that operation. analysis_type is accepted for
// older callers.
type analyzeEnvelope struct {
	AnalysisType       string `json:"analysisType"`
	LegacyAnalysisType string `json:"analysis_type"`
}

func (e analyzeEnvelope) kind() string {
	switch {
	case e.AnalysisType != "":
		return e.AnalysisType
	case e.LegacyAnalysisType != "":
		return e.LegacyAnalysisType
	}
	return AnalysisClassification
}

// analyze dispatches one body to the operation its analysis type names.
func (s *Server) analyze(c *gin.Context) {
	var env analyzeEnvelope
	if err := c.ShouldBindBodyWith(&env, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	bind := func(obj any) error { return c.ShouldBindBodyWith(obj, binding.JSON) }

	switch kind := env.kind(); kind {
	case AnalysisClassification:
		respond(c, bind, s.analyzer.Classify)
	case AnalysisEvolution:
		respond(c, bind, s.analyzer.Evolve)
	case AnalysisRetrospect:
		respond(c, bind, s.analyzer.Retrospect)
	case AnalysisUnderstanding:
		respond(c, bind, s.analyzer.Understand)
	default:
		writeError(c, fmt.Errorf("%w: unsupported analysis type %q", analyzer.ErrInvalidRequest, kind))
	}
}

func (s *Server) classifyBatch(c *gin.Context) {
	var body BatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	results, err := s.analyzer.ClassifyBatch(c.Request.Context(), body.Requests)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, BatchResponse{Results: results})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, s.analyzer.Health(c.Request.Context()))
}

// stream runs a workflow and writes AG-UI events as server-sent events.
func (s *Server) stream(c *gin.Context) {
	log := loggerFrom(c)

	var input agui.RunWorkflowInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	prepared, err := input.Prepare(c.Param("variant"))
	if err != nil {
		writeError(c, err)
		return
	}
	req, err := analyzer.NewRequest(prepared.Variant)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := prepared.DecodeState(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	wfEvents, err := s.analyzer.Stream(ctx, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	mapper := agui.NewMapper(prepared.ThreadID, prepared.RunID)
	log = log.With("thread_id", mapper.ThreadID(), "run_id", mapper.RunID(), "variant", prepared.Variant)

	var eventCount int
	for ev := range mapper.MapStream(ctx, wfEvents) {
		eventCount++
		if err := writeSSE(c.Writer, ev); err != nil {
			log.Error("failed to write SSE event", "error", err, "event_type", ev.Type())
			return
		}
	}
	log.Info("stream completed", "events_sent", eventCount)
}

// writeSSE writes an AG-UI event in SSE format.
func writeSSE(w gin.ResponseWriter, ev aguievents.Event) error {
	data, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type(), string(data)); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	w.Flush()
	return nil
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, analyzer.ErrInvalidRequest),
		errors.Is(err, workflow.ErrUnknownVariant),
		errors.Is(err, agui.ErrNoState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		loggerFrom(c).Error("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
