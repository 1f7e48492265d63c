package server

import (
	"fmt"
	"net/http"
)

const indexHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>maitri</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 40rem; margin: 4rem auto; color: #333; }
code { background: #f4f4f4; padding: 0.1rem 0.3rem; border-radius: 3px; }
</style>
</head>
<body>
<h1>maitri</h1>
<p>Semantic memory and proactive engagement daemon, version %s.</p>
<ul>
<li><a href="/api/health">/api/health</a></li>
<li><a href="/api/games">/api/games</a></li>
<li><a href="/metrics">/metrics</a></li>
<li>realtime chat: <code>ws://{host}/ws/{user}</code></li>
</ul>
</body>
</html>
`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, indexHTML, s.version)
}
