package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestWithAttachesContextIDs(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx = WithChatID(ctx, "chat-1")
	ctx = WithJobID(ctx, "job-1")

	With(ctx, &base).Info().Msg("hello")

	out := buf.String()
	for _, want := range []string{`"trace_id":"trace-1"`, `"chat_id":"chat-1"`, `"job_id":"job-1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}

func TestWithEmptyContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	With(context.Background(), &base).Info().Msg("plain")

	out := buf.String()
	if strings.Contains(out, "trace_id") || strings.Contains(out, "chat_id") || strings.Contains(out, "job_id") {
		t.Errorf("unexpected id fields: %s", out)
	}
}

func TestTraceDuration(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	base := zerolog.New(&buf).Level(zerolog.TraceLevel)

	done := TraceDuration(&base, "JobUC.Create")
	done()

	out := buf.String()
	if !strings.Contains(out, `"method":"JobUC.Create"`) {
		t.Errorf("method field missing: %s", out)
	}
	if !strings.Contains(out, `"start"`) || !strings.Contains(out, `"finish"`) {
		t.Errorf("start/finish pair missing: %s", out)
	}
	if !strings.Contains(out, "duration") {
		t.Errorf("duration field missing: %s", out)
	}
}
