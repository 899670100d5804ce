package telemetry

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"leaguevault/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

var restyMessageCounter uint64

// InstrumentResty attaches tracing and debug-level exchange dumps to a
// resty client. `output` may be nil, in which case raw exchanges are not
// written anywhere.
func InstrumentResty(client *resty.Client, tracerName string, output restyutil.InstrumentOutput) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(onBeforeRequest(tracer))
	client.OnAfterResponse(onAfterResponse(output))
	client.OnError(onError)
}

func onBeforeRequest(tracer trace.Tracer) resty.RequestMiddleware {
	return func(cli *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), req.Method)
		req.SetContext(ctx)
		return nil
	}
}

func onAfterResponse(output restyutil.InstrumentOutput) resty.ResponseMiddleware {
	return func(_ *resty.Client, res *resty.Response) error {
		ctx := res.Request.Context()
		span := trace.SpanFromContext(ctx)
		defer span.End()

		// setting request attributes here since res.Request.RawRequest
		// is nil in onBeforeRequest
		span.SetName(fmt.Sprintf("http %s", res.Request.Method))
		span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
		span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)

		if output != nil && slog.Default().Enabled(ctx, slog.LevelDebug) {
			messageId := strconv.FormatUint(atomic.AddUint64(&restyMessageCounter, 1), 10)
			output.Write(messageId, restyutil.FormatHttpMessage(res))
			slog.DebugContext(
				ctx, "request complete",
				"method", res.Request.Method,
				"url", res.Request.URL,
				"status", res.StatusCode(),
				"message_id", messageId,
			)
		}

		return nil
	}
}

func onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	span.SetName(fmt.Sprintf("http %s", req.Method))
	span.RecordError(err)
	span.SetStatus(codes.Error, "request failed")

	slog.ErrorContext(
		req.Context(), "request failed",
		"method", req.Method,
		"url", req.URL,
		"err", err,
	)

	if req.RawRequest == nil {
		return
	}
	span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
}
