package dto

import (
	"github.com/BloggingApp/feed-client/internal/model"
	"github.com/BloggingApp/feed-client/internal/mutation"
)

type MutationResponse struct {
	ID     string      `json:"id"`
	Kind   string      `json:"kind"`
	Target string      `json:"target"`
	State  string      `json:"state"`
	Error  string      `json:"error,omitempty"`
	Added  *bool       `json:"added,omitempty"`
	Post   *model.Post `json:"post,omitempty"`
}

func NewMutationResponse(m *mutation.Mutation) MutationResponse {
	state := m.State()
	resp := MutationResponse{
		ID:     m.ID.String(),
		Kind:   string(m.Kind),
		Target: m.Target,
		State:  state.String(),
	}

	switch state {
	case mutation.RolledBack:
		if err := m.Err(); err != nil {
			resp.Error = err.Error()
		}
	case mutation.Confirmed:
		if m.Kind == mutation.KindCreatePost {
			if post, ok := m.Post(); ok {
				resp.Post = &post
			}
		} else {
			added := m.Added()
			resp.Added = &added
		}
	}

	return resp
}
