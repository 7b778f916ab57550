package handlers

import (
	_ "embed"
	"net/http"
	"strconv"
)

// The contract ships inside the binary so /v1/openapi.json always matches
// the code that is actually serving.
//
//go:embed openapi.json
var openAPISpec []byte

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>FitStudio API</title>
<style>body { margin: 0 } redoc { display: block; height: 100vh }</style>
</head>
<body>
<redoc spec-url="/v1/openapi.json"></redoc>
<script src="https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"></script>
</body>
</html>`

// OpenAPIJSON serves the embedded machine-readable contract.
func (a *App) OpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(openAPISpec)))
	h.Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(openAPISpec)
}

// OpenAPIDocs serves a Redoc page rendering the contract.
func (a *App) OpenAPIDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(docsPage))
}
