package render

// pageTemplate is the single page shell: the fetch form, followed by one of
// the result sections (escaped text, image reference, or error message).
const pageTemplate = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>fetchview</title>
<link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.9.0/styles/github.min.css">
<style>
  body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 60rem; padding: 0 1rem; }
  form { display: flex; gap: .5rem; margin-bottom: 1.5rem; }
  input[name=url] { flex: 1; padding: .5rem; }
  button { padding: .5rem 1rem; }
  .error { color: #b00020; border: 1px solid #b00020; padding: .75rem; border-radius: 4px; }
  .meta { color: #555; font-size: .85rem; margin-bottom: .5rem; }
  pre { background: #f6f8fa; padding: 1rem; overflow-x: auto; border-radius: 4px; }
  img.result { max-width: 100%; }
</style>
</head>
<body>
<h1>fetchview</h1>
<form method="post" action="/fetch">
  <input type="url" name="url" placeholder="https://example.com/file.txt" value="{{.URL}}" required>
  <button type="submit">Fetch</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .HasResult}}
<p class="meta">
  {{.FinalURL}} &middot; status {{.StatusCode}}
  {{- if .ContentType}} &middot; declared {{.ContentType}}{{end}}
  {{- if .DetectedType}} &middot; detected {{.DetectedType}}{{end}}
  {{- if .Size}} &middot; {{.Size}} bytes{{end}}
</p>
{{end}}
{{if .Text}}
<pre><code>{{.Text}}</code></pre>
<script src="https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.9.0/highlight.min.js"></script>
<script>hljs.highlightAll();</script>
{{end}}
{{if .ImageSrc}}<img class="result" src="{{.ImageSrc}}" alt="fetched image">{{end}}
</body>
</html>
`
