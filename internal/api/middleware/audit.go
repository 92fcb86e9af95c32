package middleware

import (
	"bytes"
	"io"
	log "log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const maxAuditBody = 16384

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *responseBodyWriter) Write(b []byte) (int, error) {
	if r.body.Len() < maxAuditBody {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

func (r *responseBodyWriter) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// AuditMiddleware 记录后台请求与响应，上传文件和登录凭据不落日志
func AuditMiddleware(redactPaths ...string) gin.HandlerFunc {
	redact := make(map[string]struct{}, len(redactPaths))
	for _, p := range redactPaths {
		redact[p] = struct{}{}
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		reqBody := ""
		_, redacted := redact[c.FullPath()]
		switch {
		case redacted:
			reqBody = "[redacted]"
		case strings.HasPrefix(c.ContentType(), "multipart/"):
			reqBody = "[multipart]"
		case c.Request.Body != nil:
			raw, _ := io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBody+1))
			rest := c.Request.Body
			c.Request.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(raw), rest), Closer: rest}
			if len(raw) > maxAuditBody {
				raw = raw[:maxAuditBody]
			}
			reqBody = string(raw)
		}

		rawQuery := c.Request.URL.RawQuery
		decodedQuery, err := url.QueryUnescape(rawQuery)
		if err != nil {
			decodedQuery = rawQuery
		}

		log.InfoContext(ctx, "Recv Request",
			log.String("method", c.Request.Method),
			log.String("path", c.Request.URL.Path),
			log.String("query", decodedQuery),
			log.String("req_body", reqBody),
		)

		w := &responseBodyWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w
		startTime := time.Now()

		c.Next()

		log.InfoContext(ctx, "Send Response",
			log.Int("status", c.Writer.Status()),
			log.Duration("latency", time.Since(startTime)),
			log.Uint64("admin_id", c.GetUint64("admin_id")),
			log.String("res_body", w.body.String()),
		)
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}
