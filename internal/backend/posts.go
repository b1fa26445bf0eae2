package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ListPosts lista todas as publicações.
func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "posts/getPosts", nil, false)
	if err != nil {
		return nil, err
	}
	var posts []Post
	if err := c.do(req, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost busca por id.
func (c *Client) GetPost(ctx context.Context, id int64) (Post, error) {
	return c.getPost(ctx, fmt.Sprintf("posts/getPost/%d", id))
}

// GetPostBySlug busca pelo slug público.
func (c *Client) GetPostBySlug(ctx context.Context, slug string) (Post, error) {
	return c.getPost(ctx, "posts/"+segment(slug))
}

// GetPostByTitle busca pelo título.
func (c *Client) GetPostByTitle(ctx context.Context, title string) (Post, error) {
	return c.getPost(ctx, "posts/post/"+segment(title))
}

func (c *Client) getPost(ctx context.Context, path string) (Post, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, false)
	if err != nil {
		return Post{}, err
	}
	var post Post
	if err := c.do(req, &post); err != nil {
		return Post{}, err
	}
	return post, nil
}

// CreatePost envia capa e dados como multipart e devolve a publicação criada.
func (c *Client) CreatePost(ctx context.Context, cover Image, post Post) (Post, error) {
	if len(cover.Data) == 0 {
		return Post{}, errors.New("backend: imagem de capa obrigatória")
	}
	post.ID = 0
	req, err := c.newMultipartRequest(ctx, http.MethodPost, "posts/createPost", &cover, post)
	if err != nil {
		return Post{}, err
	}
	var resp postEnvelope
	if err := c.do(req, &resp); err != nil {
		return Post{}, err
	}
	return resp.Data, nil
}

// UpdatePost regrava a publicação; cover nil mantém a capa atual.
func (c *Client) UpdatePost(ctx context.Context, cover *Image, post Post) (Post, error) {
	req, err := c.newMultipartRequest(ctx, http.MethodPut, "posts/updatePost", cover, post)
	if err != nil {
		return Post{}, err
	}
	var resp postEnvelope
	if err := c.do(req, &resp); err != nil {
		return Post{}, err
	}
	return resp.Data, nil
}

func (c *Client) DeletePost(ctx context.Context, id int64) (Message, error) {
	return c.message(ctx, http.MethodDelete, fmt.Sprintf("posts/deletePost/%d", id), nil)
}
