package posts

import (
	"context"
	"errors"
	"testing"

	"github.com/bailaconsara/portal/internal/backend"
	"github.com/bailaconsara/portal/internal/state"
	"github.com/bailaconsara/portal/internal/util"
)

type stubAPI struct {
	calls   []string
	posts   []Post
	created Post
	sent    Post
	cover   *Image
	failed  error
}

func (s *stubAPI) ListPosts(ctx context.Context) ([]Post, error) {
	s.calls = append(s.calls, "list")
	return s.posts, s.failed
}

func (s *stubAPI) GetPost(ctx context.Context, id int64) (Post, error) {
	s.calls = append(s.calls, "get")
	return s.find(func(p Post) bool { return p.ID == id })
}

func (s *stubAPI) GetPostBySlug(ctx context.Context, slug string) (Post, error) {
	s.calls = append(s.calls, "slug")
	return s.find(func(p Post) bool { return p.Slug == slug })
}

func (s *stubAPI) GetPostByTitle(ctx context.Context, title string) (Post, error) {
	s.calls = append(s.calls, "title")
	return s.find(func(p Post) bool { return p.Title == title })
}

func (s *stubAPI) find(match func(Post) bool) (Post, error) {
	for _, p := range s.posts {
		if match(p) {
			return p, nil
		}
	}
	return Post{}, &backend.APIError{Status: 404, Message: "Post no encontrado"}
}

func (s *stubAPI) CreatePost(ctx context.Context, cover Image, post Post) (Post, error) {
	s.calls = append(s.calls, "create")
	s.sent = post
	s.cover = &cover
	return s.created, s.failed
}

func (s *stubAPI) UpdatePost(ctx context.Context, cover *Image, post Post) (Post, error) {
	s.calls = append(s.calls, "update")
	s.sent = post
	s.cover = cover
	return post, s.failed
}

func (s *stubAPI) DeletePost(ctx context.Context, id int64) (backend.Message, error) {
	s.calls = append(s.calls, "delete")
	return backend.Message{Text: "Post eliminado"}, s.failed
}

func samplePost(id int64) Post {
	return Post{
		ID: id, Title: "Festival de verano", TextoInfo: "<p>Tres noches de <strong>salsa</strong> y bachata.</p>",
		FraseClave: "festival salsa", TituloSEO: "Festival de verano", Slug: "festival-de-verano", AltPortada: "Cartel",
	}
}

func TestCreatePrependsAndFillsDescription(t *testing.T) {
	api := &stubAPI{posts: []Post{samplePost(1)}, created: samplePost(2)}
	svc := NewService(api, state.New("posts", Estado{}))
	ctx := context.Background()
	if _, err := svc.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}

	post := samplePost(0)
	created, err := svc.Create(ctx, Image{Filename: "cartel.jpg", ContentType: "image/jpeg", Data: []byte{0xff}}, post)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if api.sent.MetaDescripcion != "Tres noches de salsa y bachata." {
		t.Fatalf("unexpected generated description %q", api.sent.MetaDescripcion)
	}
	got := svc.Channel().Value()
	if len(got.Posts) != 2 || got.Posts[0].ID != created.ID || got.NewPost == nil || got.NewPost.ID != 2 {
		t.Fatalf("expected created post first, got %+v", got)
	}
}

func TestCreateRequiresCoverAndFields(t *testing.T) {
	api := &stubAPI{}
	svc := NewService(api, state.New("posts", Estado{}))
	ctx := context.Background()

	post := samplePost(0)
	post.Slug = ""
	var vErr *util.ValidationError
	if _, err := svc.Create(ctx, Image{Data: []byte{1}}, post); !errors.As(err, &vErr) || vErr.Fields["slug"] != util.MsgRequired {
		t.Fatalf("expected slug validation, got %v", err)
	}
	if _, err := svc.Create(ctx, Image{}, samplePost(0)); !util.IsValidation(err) {
		t.Fatalf("expected missing cover validation, got %v", err)
	}
	if len(api.calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", api.calls)
	}
}

func TestUpdateReplacesByID(t *testing.T) {
	api := &stubAPI{posts: []Post{samplePost(1), samplePost(2)}}
	svc := NewService(api, state.New("posts", Estado{}))
	ctx := context.Background()
	if _, err := svc.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}

	post := samplePost(2)
	post.Title = "Festival de otoño"
	post.MetaDescripcion = "Descripción propia"
	if _, err := svc.Update(ctx, nil, post); err != nil {
		t.Fatalf("update: %v", err)
	}
	if api.cover != nil {
		t.Fatalf("nil cover must be forwarded as nil")
	}
	got := svc.Channel().Value().Posts
	if got[0].Title != "Festival de verano" || got[1].Title != "Festival de otoño" {
		t.Fatalf("unexpected posts %+v", got)
	}
	if got[1].MetaDescripcion != "Descripción propia" {
		t.Fatalf("explicit description must be kept, got %q", got[1].MetaDescripcion)
	}
}

func TestDeleteFiltersAndClearsSelection(t *testing.T) {
	api := &stubAPI{posts: []Post{samplePost(1), samplePost(2)}}
	svc := NewService(api, state.New("posts", Estado{}))
	ctx := context.Background()
	if _, err := svc.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := svc.Get(ctx, 2); err != nil {
		t.Fatalf("get: %v", err)
	}

	if _, err := svc.Delete(ctx, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got := svc.Channel().Value()
	if len(got.Posts) != 1 || got.Posts[0].ID != 1 || got.NewPost != nil {
		t.Fatalf("unexpected state %+v", got)
	}
}

func TestLookupsPublishSelection(t *testing.T) {
	api := &stubAPI{posts: []Post{samplePost(7)}}
	svc := NewService(api, state.New("posts", Estado{}))
	ctx := context.Background()

	if _, err := svc.GetBySlug(ctx, "festival-de-verano"); err != nil {
		t.Fatalf("slug: %v", err)
	}
	if got := svc.Channel().Value().NewPost; got == nil || got.ID != 7 {
		t.Fatalf("expected selection, got %+v", got)
	}
	if _, err := svc.GetByTitle(ctx, "Otro"); backend.UserMessage(err) != "Post no encontrado" {
		t.Fatalf("expected not found, got %v", err)
	}
	if got := svc.Channel().Value().NewPost; got == nil || got.ID != 7 {
		t.Fatalf("failed lookup must keep selection, got %+v", got)
	}
}

func TestExcerpt(t *testing.T) {
	cases := []struct {
		name  string
		html  string
		limit int
		want  string
	}{
		{"empty", "", 10, ""},
		{"plain", "Noche de salsa", 50, "Noche de salsa"},
		{"blocks", "<p>Hola</p><p>mundo</p>", 50, "Hola mundo"},
		{"inline", "<p>Noche de <strong>salsa</strong> en Madrid</p>", 50, "Noche de salsa en Madrid"},
		{"script", "<p>Texto</p><script>alert(1)</script>", 50, "Texto"},
		{"cut", "<p>Noche de salsa en Madrid</p>", 10, "Noche de…"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Excerpt(tc.html, tc.limit); got != tc.want {
				t.Fatalf("Excerpt(%q, %d) = %q, want %q", tc.html, tc.limit, got, tc.want)
			}
		})
	}
}
