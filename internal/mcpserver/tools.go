package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/oakwood-commons/stixoutline/internal/host"
	"github.com/oakwood-commons/stixoutline/internal/outline"
)

const inlineURI = "file:///inline.json"

type openReq struct {
	Path     string `json:"path"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

type openResp struct {
	URI         string   `json:"uri"`
	Enabled     bool     `json:"enabled"`
	ParseErrors []string `json:"parseErrors,omitempty"`
	Children    []node   `json:"children"`
}

// node is the compact item shape returned by listing tools.
type node struct {
	ID          int    `json:"id"`
	Label       string `json:"label"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	HasChildren bool   `json:"hasChildren"`
}

type nodeReq struct {
	ID *int `json:"id"`
}

func (r nodeReq) identity() outline.Identity {
	if r.ID == nil {
		return outline.Root
	}
	return outline.Identity(*r.ID)
}

type itemResp struct {
	outline.Item
	Path string `json:"path"`
}

type findReq struct {
	Query string `json:"query"`
}

type renameReq struct {
	ID    *int   `json:"id"`
	Value string `json:"value"`
	Save  bool   `json:"save"`
}

type renameResp struct {
	Text  string `json:"text"`
	Saved bool   `json:"saved"`
}

func (s *Server) open(_ context.Context, r openReq) (any, error) {
	var uri string
	switch {
	case r.Path != "":
		var err error
		if uri, err = host.OpenFile(s.ws, r.Path); err != nil {
			return nil, err
		}
		s.paths[uri] = r.Path
	default:
		lang := r.Language
		if lang == "" {
			lang = "json"
		}
		uri = inlineURI
		delete(s.paths, uri)
		s.ws.Open(uri, lang, r.Text)
		if err := s.ws.Activate(uri); err != nil {
			return nil, err
		}
	}
	resp := openResp{URI: uri, Enabled: s.proj.Enabled(), Children: s.nodes(s.proj.Children(outline.Root))}
	for _, e := range s.proj.Tracker().ParseErrors() {
		resp.ParseErrors = append(resp.ParseErrors, e.Error())
	}
	return resp, nil
}

func (s *Server) children(_ context.Context, r nodeReq) (any, error) {
	if err := s.requireDocument(); err != nil {
		return nil, err
	}
	return s.nodes(s.proj.Children(r.identity())), nil
}

func (s *Server) item(_ context.Context, r nodeReq) (any, error) {
	if err := s.requireDocument(); err != nil {
		return nil, err
	}
	item, ok := s.proj.Item(r.identity())
	if !ok {
		return nil, fmt.Errorf("node %d does not resolve in the current document", int(r.identity()))
	}
	return itemResp{Item: item, Path: item.Path.String()}, nil
}

func (s *Server) find(_ context.Context, r findReq) (any, error) {
	if err := s.requireDocument(); err != nil {
		return nil, err
	}
	ids, err := s.proj.Find(r.Query)
	if err != nil {
		return nil, err
	}
	return s.nodes(ids), nil
}

func (s *Server) rename(ctx context.Context, r renameReq) (any, error) {
	if err := s.requireDocument(); err != nil {
		return nil, err
	}
	if r.ID == nil {
		return nil, errors.New("id is required")
	}
	id := outline.Identity(*r.ID)
	if _, ok := s.proj.RenameEdit(id, r.Value); !ok {
		return nil, fmt.Errorf("node %d does not resolve in the current document", *r.ID)
	}
	doc := s.proj.Tracker().Document()
	path, hasFile := s.paths[doc.URI()]
	if r.Save && !hasFile {
		return nil, errors.New("document has no file to save to")
	}
	if err := s.proj.RenameTo(ctx, id, r.Value); err != nil {
		return nil, err
	}
	resp := renameResp{Text: doc.Text()}
	if r.Save {
		if err := host.SaveFile(s.ws, doc.URI(), path); err != nil {
			return nil, err
		}
		resp.Saved = true
	}
	return resp, nil
}

func (s *Server) requireDocument() error {
	if s.proj.Tracker().Document() == nil {
		return errNoDocument
	}
	return nil
}

func (s *Server) nodes(ids []outline.Identity) []node {
	out := make([]node, 0, len(ids))
	for _, id := range ids {
		item, ok := s.proj.Item(id)
		if !ok {
			continue
		}
		out = append(out, node{
			ID:          int(item.ID),
			Label:       item.Label,
			Path:        item.Path.String(),
			Type:        item.ContextValue,
			HasChildren: len(s.proj.Children(id)) > 0,
		})
	}
	return out
}
