package server

import (
	"github.com/walma-app/walma/internal/assets"
	"github.com/walma-app/walma/internal/content"
	"github.com/walma-app/walma/internal/level"
	"github.com/walma-app/walma/internal/playback"
)

type partView struct {
	Kind  content.Kind `json:"kind"`
	Value string       `json:"value"`
	// Src is the resolved image locator, or the math image URL when a math
	// image service is configured.
	Src string `json:"src,omitempty"`
}

type optionView struct {
	Value string     `json:"value"`
	Parts []partView `json:"parts"`
}

type unitView struct {
	Ordinal     int            `json:"ordinal"`
	Kind        level.UnitKind `json:"kind"`
	Parts       []partView     `json:"parts"`
	Options     []optionView   `json:"options,omitempty"`
	Explanation []partView     `json:"explanation,omitempty"`
}

type levelSummary struct {
	ID        string     `json:"id"`
	Kind      level.Kind `json:"kind"`
	Title     string     `json:"title"`
	Units     int        `json:"units"`
	Completed bool       `json:"completed"`
}

type levelDetail struct {
	levelSummary
	Description    string     `json:"description,omitempty"`
	SchemaVersion  string     `json:"schemaVersion"`
	MathStyle      string     `json:"mathStyle"`
	DiagramRequest string     `json:"diagramRequest,omitempty"`
	Content        []unitView `json:"content"`
}

type reportView struct {
	Status string `json:"status"` // pending, reported or failed
	Error  string `json:"error,omitempty"`
}

type sessionView struct {
	playback.PlaybackState
	Unit   *unitView   `json:"unit,omitempty"`
	Report *reportView `json:"report,omitempty"`
}

func (s *Server) parts(lvl *level.Level, ordinal int, parts []content.Part) []partView {
	out := make([]partView, 0, len(parts))
	for _, p := range parts {
		v := partView{Kind: p.Kind, Value: p.Value}
		switch {
		case p.Kind == content.KindImage:
			v.Src = string(s.resolver.Resolve(p.Value))
		case p.IsMath() && s.math != nil:
			params := s.mathParams
			params.Token = assets.UnitToken(lvl.ID, ordinal)
			if img, err := s.math.Locate(p, params); err == nil {
				v.Src = string(img.URL)
			} else {
				s.log.Debug("math image unavailable", "level", lvl.ID, "ordinal", ordinal, "error", err)
			}
		}
		out = append(out, v)
	}
	return out
}

// unit renders u for display. The explanation is included only when
// withExplanation is set; correct answers are never exposed.
func (s *Server) unit(lvl *level.Level, u level.Unit, withExplanation bool) unitView {
	v := unitView{
		Ordinal: u.Ordinal(),
		Kind:    u.Kind(),
		Parts:   s.parts(lvl, u.Ordinal(), u.Parts()),
	}
	for i, opt := range u.Options() {
		v.Options = append(v.Options, optionView{
			Value: opt,
			Parts: s.parts(lvl, u.Ordinal(), u.OptionParts(i)),
		})
	}
	if withExplanation {
		v.Explanation = s.parts(lvl, u.Ordinal(), u.Explanation())
	}
	return v
}

func summarize(lvl *level.Level, completed bool) levelSummary {
	return levelSummary{
		ID:        lvl.ID,
		Kind:      lvl.Kind,
		Title:     lvl.DisplayTitle(),
		Units:     len(lvl.Units),
		Completed: completed,
	}
}

func (s *Server) detail(lvl *level.Level, completed bool) levelDetail {
	d := levelDetail{
		levelSummary:   summarize(lvl, completed),
		Description:    lvl.Description,
		SchemaVersion:  lvl.SchemaVersion,
		MathStyle:      lvl.MathStyle,
		DiagramRequest: lvl.DiagramRequest,
		Content:        make([]unitView, 0, len(lvl.Units)),
	}
	for _, u := range lvl.Units {
		d.Content = append(d.Content, s.unit(lvl, u, false))
	}
	return d
}

// view snapshots a session. Callers hold sess.mu.
func (s *Server) view(sess *session) sessionView {
	seq := sess.seq
	v := sessionView{PlaybackState: seq.Snapshot()}
	if u, ok := seq.Current(); ok {
		uv := s.unit(seq.Level(), u, v.ExplanationVisible)
		v.Unit = &uv
	}
	if p := seq.Report(); p != nil {
		rv := &reportView{Status: "pending"}
		if p.Finished() {
			if err := p.Err(); err != nil {
				rv.Status = "failed"
				rv.Error = err.Error()
			} else {
				rv.Status = "reported"
			}
		}
		v.Report = rv
	}
	return v
}
