package home

import (
	"bytes"
	"html/template"

	"github.com/qolzam/telar-turnstile/internal/turnstile"
)

// pageData is what the index page renders
type pageData struct {
	SiteKey     string
	CSRFField   string
	CSRFToken   string
	SampleInput string
	Result      *turnstile.VerifyResult
	Error       *ErrorResponse
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Cloudflare Turnstile</title>
<script src="https://challenges.cloudflare.com/turnstile/v0/api.js" async defer></script>
</head>
<body>
<h1>Cloudflare Turnstile</h1>
<form method="post" action="/">
<input type="hidden" name="{{.CSRFField}}" value="{{.CSRFToken}}">
<input type="text" name="sampleInput" value="{{.SampleInput}}" placeholder="Sample input">
<div class="cf-turnstile" data-sitekey="{{.SiteKey}}"></div>
<button type="submit">Submit</button>
</form>
{{with .Result}}
<h2>Result</h2>
<dl id="result">
<dt>Success</dt><dd id="success">{{.Success}}</dd>
<dt>Hostname</dt><dd id="hostname">{{.Hostname}}</dd>
<dt>Challenge</dt><dd id="challenge-ts">{{.ChallengeTS.Format "2006-01-02T15:04:05Z07:00"}}</dd>
<dt>Error codes</dt><dd id="error-codes">{{range .ErrorCodes}}<code>{{.}}</code> {{else}}none{{end}}</dd>
</dl>
{{end}}
{{with .Error}}
<h2>Error</h2>
<p id="error"><code>{{.Code}}</code> {{.Message}}</p>
{{end}}
</body>
</html>
`))

func renderIndex(data pageData) (string, error) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
