package posts

import (
	"context"
	"slices"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bailaconsara/portal/internal/backend"
	"github.com/bailaconsara/portal/internal/state"
	"github.com/bailaconsara/portal/internal/util"
)

// MetaDescriptionLength limita a descrição SEO gerada a partir do texto.
const MetaDescriptionLength = 160

type (
	Post  = backend.Post
	Image = backend.Image
)

// Estado é o valor publicado no canal do blog.
type Estado struct {
	Posts   []Post `json:"posts"`
	NewPost *Post  `json:"newPost"`
}

// API lista as chamadas do blog usadas pelo serviço.
type API interface {
	ListPosts(ctx context.Context) ([]Post, error)
	GetPost(ctx context.Context, id int64) (Post, error)
	GetPostBySlug(ctx context.Context, slug string) (Post, error)
	GetPostByTitle(ctx context.Context, title string) (Post, error)
	CreatePost(ctx context.Context, cover Image, post Post) (Post, error)
	UpdatePost(ctx context.Context, cover *Image, post Post) (Post, error)
	DeletePost(ctx context.Context, id int64) (backend.Message, error)
}

type Service struct {
	api     API
	channel *state.Channel[Estado]
	logger  zerolog.Logger
}

func NewService(api API, channel *state.Channel[Estado]) *Service {
	return &Service{
		api:     api,
		channel: channel,
		logger:  log.With().Str("component", "posts").Logger(),
	}
}

func (s *Service) Channel() *state.Channel[Estado] {
	return s.channel
}

func (s *Service) List(ctx context.Context) ([]Post, error) {
	list, err := s.api.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	s.channel.Publish(func(e Estado) Estado {
		e.Posts = list
		return e
	})
	return list, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Post, error) {
	return s.selectPost(s.api.GetPost(ctx, id))
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (Post, error) {
	return s.selectPost(s.api.GetPostBySlug(ctx, slug))
}

func (s *Service) GetByTitle(ctx context.Context, title string) (Post, error) {
	return s.selectPost(s.api.GetPostByTitle(ctx, title))
}

func (s *Service) selectPost(post Post, err error) (Post, error) {
	if err != nil {
		return Post{}, err
	}
	s.channel.Publish(func(e Estado) Estado {
		e.NewPost = &post
		return e
	})
	return post, nil
}

// Create envia a publicação com a capa e a coloca no topo da lista.
func (s *Service) Create(ctx context.Context, cover Image, post Post) (Post, error) {
	post = WithDescription(post)
	if err := Validate(post); err != nil {
		return Post{}, err
	}
	if len(cover.Data) == 0 {
		return Post{}, &util.ValidationError{Fields: map[string]string{"imagenportada": util.MsgRequired}}
	}
	created, err := s.api.CreatePost(ctx, cover, post)
	if err != nil {
		return Post{}, err
	}
	s.channel.Publish(func(e Estado) Estado {
		e.Posts = append([]Post{created}, e.Posts...)
		e.NewPost = &created
		return e
	})
	s.logger.Info().Int64("post_id", created.ID).Str("slug", created.Slug).Msg("publicação criada")
	return created, nil
}

// Update regrava a publicação; cover nil mantém a capa atual.
func (s *Service) Update(ctx context.Context, cover *Image, post Post) (Post, error) {
	post = WithDescription(post)
	if err := Validate(post); err != nil {
		return Post{}, err
	}
	if post.ID == 0 {
		return Post{}, &util.ValidationError{Fields: map[string]string{"id": util.MsgRequired}}
	}
	updated, err := s.api.UpdatePost(ctx, cover, post)
	if err != nil {
		return Post{}, err
	}
	if updated.ID == 0 {
		updated.ID = post.ID
	}
	s.channel.Publish(func(e Estado) Estado {
		next := make([]Post, len(e.Posts))
		for i, cur := range e.Posts {
			if cur.ID == updated.ID {
				cur = updated
			}
			next[i] = cur
		}
		e.Posts = next
		if e.NewPost != nil && e.NewPost.ID == updated.ID {
			e.NewPost = &updated
		}
		return e
	})
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) (backend.Message, error) {
	msg, err := s.api.DeletePost(ctx, id)
	if err != nil {
		return backend.Message{}, err
	}
	s.channel.Publish(func(e Estado) Estado {
		e.Posts = slices.DeleteFunc(slices.Clone(e.Posts), func(p Post) bool { return p.ID == id })
		if e.NewPost != nil && e.NewPost.ID == id {
			e.NewPost = nil
		}
		return e
	})
	return msg, nil
}

// ClearSelection descarta a publicação aberta.
func (s *Service) ClearSelection(context.Context) {
	s.channel.Publish(func(e Estado) Estado {
		e.NewPost = nil
		return e
	})
}

// WithDescription preenche metadescripcion a partir do texto informativo quando vazia.
func WithDescription(post Post) Post {
	if post.MetaDescripcion == "" {
		post.MetaDescripcion = Excerpt(post.TextoInfo, MetaDescriptionLength)
	}
	return post
}

// Validate exige título, texto informativo, campos SEO, slug e texto alternativo da capa.
func Validate(post Post) error {
	v := util.NewValidator()
	v.Require("title", post.Title)
	v.Require("textoinfo", post.TextoInfo)
	v.Require("fraseclave", post.FraseClave)
	v.Require("tituloseo", post.TituloSEO)
	v.Require("slug", post.Slug)
	v.Require("metadescripcion", post.MetaDescripcion)
	v.Require("altportada", post.AltPortada)
	return v.Err()
}
