package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/speech-sentiment/store"
)

const audioField = "audio_data"

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Speech sentiment</title></head>
<body>
<h1>Speech sentiment</h1>
{{if .Error}}<p class="error">Last request failed: {{.Error}}</p>{{end}}
<form method="post" action="/upload" enctype="multipart/form-data">
  <input type="file" name="audio_data" accept=".wav,audio/wav">
  <button type="submit">Upload audio</button>
</form>
<form method="post" action="/upload_text">
  <textarea name="text" rows="3" cols="60"></textarea>
  <button type="submit">Analyze text</button>
</form>
<ul>
{{range .Artifacts}}  <li>
    <audio controls src="/uploads/{{.ID}}"></audio>
    <a href="/uploads/{{.ID}}">{{.ID}}</a>
    {{if .HasResult}}<pre>{{.Result}}</pre>{{end}}
  </li>
{{end}}</ul>
</body>
</html>
`))

type artifactView struct {
	ID        string `json:"id"`
	HasResult bool   `json:"has_result"`
	Result    string `json:"result,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) collect() ([]artifactView, error) {
	ids, err := s.artifacts.List()
	if err != nil {
		return nil, err
	}
	out := make([]artifactView, 0, len(ids))
	for _, id := range ids {
		v := artifactView{ID: id}
		text, err := s.artifacts.ReadResultText(id)
		switch {
		case err == nil:
			v.HasResult, v.Result = true, text
		case errors.Is(err, store.ErrNotFound):
			// payload whose run failed or is still in progress
		default:
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	views, err := s.collect()
	if err != nil {
		s.log.WithError(err).Error("list artifacts")
		http.Error(w, "failed to list artifacts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = indexTmpl.Execute(w, struct {
		Error     string
		Artifacts []artifactView
	}{
		Error:     r.URL.Query().Get("error"),
		Artifacts: views,
	})
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	path, err := s.artifacts.Open(chi.URLParam(r, "filename"))
	if err != nil {
		_, status := classify(err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	http.ServeFile(w, r, path)
}

// readUpload returns the bytes and client file name of the audio form field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile(audioField)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

// runContext keeps request values but drops its cancellation: a run that has
// started finishes even if the client goes away. Provider deadlines still apply.
func runContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, kind string) {
	target := "/"
	if kind != "" {
		target = "/?error=" + url.QueryEscape(kind)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) uploadAudioForm(w http.ResponseWriter, r *http.Request) {
	data, name, err := s.readUpload(w, r)
	if err != nil {
		s.log.WithError(err).Warn("missing audio upload")
		s.redirect(w, r, "invalid_input")
		return
	}

	ref, err := s.processor.ProcessAudioUpload(runContext(r), data, name)
	if err != nil {
		kind, _ := classify(err)
		s.log.WithError(err).WithField("kind", kind).Error("audio upload failed")
		s.redirect(w, r, kind)
		return
	}
	s.log.WithField("artifact", ref.ID).Debug("audio upload stored")
	s.redirect(w, r, "")
}

func (s *Server) uploadTextForm(w http.ResponseWriter, r *http.Request) {
	ref, err := s.processor.ProcessTextSubmission(runContext(r), r.FormValue("text"))
	if err != nil {
		kind, _ := classify(err)
		s.log.WithError(err).WithField("kind", kind).Error("text submission failed")
		s.redirect(w, r, kind)
		return
	}
	s.log.WithField("artifact", ref.ID).Debug("text submission stored")
	s.redirect(w, r, "")
}

func (s *Server) listArtifacts(w http.ResponseWriter, r *http.Request) {
	views, err := s.collect()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) uploadAudioJSON(w http.ResponseWriter, r *http.Request) {
	data, name, err := s.readUpload(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing " + audioField + ": " + err.Error(), Kind: "invalid_input"})
		return
	}

	ref, err := s.processor.ProcessAudioUpload(runContext(r), data, name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ref)
}

func (s *Server) uploadTextJSON(w http.ResponseWriter, r *http.Request) {
	var text string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, s.cfg.MaxUploadBytes)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json: " + err.Error(), Kind: "invalid_input"})
			return
		}
		text = req.Text
	} else {
		text = r.FormValue("text")
	}

	ref, err := s.processor.ProcessTextSubmission(runContext(r), text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ref)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind, status := classify(err)
	entry := s.log.WithError(err).WithField("kind", kind)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.WithFields(logrus.Fields{"status": status}).Warn("request rejected")
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
